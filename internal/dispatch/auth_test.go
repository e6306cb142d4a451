package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/openapi-actions/internal/fault"
)

func staticCreds(c Credentials) CredentialSource {
	return CredentialSourceFunc(func(string) (Credentials, error) { return c, nil })
}

func TestAuthHeader_None(t *testing.T) {
	t.Parallel()
	for _, authType := range []string{"", "none", "None", "  none  "} {
		headers, err := authHeader(nil, authType, "svc")
		require.NoError(t, err)
		assert.Empty(t, headers)
	}
}

func TestAuthHeader_Basic(t *testing.T) {
	t.Parallel()
	headers, err := authHeader(staticCreds(Credentials{Key: "user", Secret: "pass"}), "basic", "svc")
	require.NoError(t, err)
	// base64("user:pass")
	assert.Equal(t, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, headers)
}

func TestAuthHeader_BasicMissingSecret(t *testing.T) {
	t.Parallel()
	_, err := authHeader(staticCreds(Credentials{Key: "user"}), "basic", "svc")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Auth, fe.Kind)
	assert.Contains(t, fe.Error(), `missing credentials for service "svc"`)
}

func TestAuthHeader_Bearer(t *testing.T) {
	t.Parallel()
	headers, err := authHeader(staticCreds(Credentials{Token: "tok"}), "Bearer", "svc")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"}, headers)
}

func TestAuthHeader_BearerMissingToken(t *testing.T) {
	t.Parallel()
	_, err := authHeader(staticCreds(Credentials{}), "bearer", "svc")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Auth, fe.Kind)
}

func TestAuthHeader_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := authHeader(staticCreds(Credentials{}), "digest", "svc")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Auth, fe.Kind)
	assert.Contains(t, fe.Error(), `unsupported auth type "digest"`)
}

func TestAuthHeader_NoSourceConfigured(t *testing.T) {
	t.Parallel()
	_, err := authHeader(nil, "bearer", "svc")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Auth, fe.Kind)
}
