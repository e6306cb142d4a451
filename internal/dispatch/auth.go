package dispatch

import (
	"encoding/base64"
	"strings"

	"github.com/mark3labs/openapi-actions/internal/fault"
)

// Credentials holds the secrets for one service. Key/Secret serve Basic auth,
// Token serves Bearer.
type Credentials struct {
	Key    string
	Secret string
	Token  string
}

// CredentialSource resolves the credentials configured for a service.
type CredentialSource interface {
	Credentials(service string) (Credentials, error)
}

// CredentialSourceFunc adapts a function to the CredentialSource interface.
type CredentialSourceFunc func(service string) (Credentials, error)

func (f CredentialSourceFunc) Credentials(service string) (Credentials, error) { return f(service) }

// authHeader computes the Authorization header for an action's auth scheme.
// Basic returns a base64 "key:secret" header, Bearer a token header, and an
// empty or "none" scheme no header at all. Any other scheme is an auth fault.
func authHeader(src CredentialSource, authType, service string) (map[string]string, error) {
	switch strings.ToLower(strings.TrimSpace(authType)) {
	case "", "none":
		return map[string]string{}, nil
	case "basic":
		creds, err := resolve(src, service)
		if err != nil {
			return nil, err
		}
		if creds.Key == "" || creds.Secret == "" {
			return nil, fault.New(fault.Auth, "missing credentials for service %q (need key and secret for basic auth)", service)
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(creds.Key + ":" + creds.Secret))
		return map[string]string{"Authorization": "Basic " + encoded}, nil
	case "bearer":
		creds, err := resolve(src, service)
		if err != nil {
			return nil, err
		}
		if creds.Token == "" {
			return nil, fault.New(fault.Auth, "missing credentials for service %q (need token for bearer auth)", service)
		}
		return map[string]string{"Authorization": "Bearer " + creds.Token}, nil
	default:
		return nil, fault.New(fault.Auth, "unsupported auth type %q (supported: basic, bearer)", authType)
	}
}

func resolve(src CredentialSource, service string) (Credentials, error) {
	if src == nil {
		return Credentials{}, fault.New(fault.Auth, "missing credentials for service %q (no credential source configured)", service)
	}
	return src.Credentials(service)
}
