package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/openapi-actions/internal/document"
	"github.com/mark3labs/openapi-actions/internal/fault"
)

// petstoreDoc carries three operations with tags {A,B}, {B,C}, and {C,D} so
// filter combinations can be checked against known survivors.
func petstoreDoc() document.Tree {
	return document.Tree{
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"operationId": "listPets",
					"tags":        []any{"A", "B"},
				},
			},
			"/pets/{petId}": map[string]any{
				"get": map[string]any{
					"operationId": "getPet",
					"tags":        []any{"B", "C"},
				},
			},
			"/store/orders": map[string]any{
				"post": map[string]any{
					"operationId": "placeOrder",
					"tags":        []any{"C", "D"},
				},
			},
		},
	}
}

func staticLoader(docs map[string]document.Tree) document.Loader {
	return func(_ context.Context, location string) (document.Tree, error) {
		doc, ok := docs[location]
		if !ok {
			return nil, fault.New(fault.Configuration, "no document at %s", location)
		}
		return doc, nil
	}
}

func buildRegistry(t *testing.T, b Binding) (*Registry, error) {
	t.Helper()
	return New(context.Background(), []Binding{b},
		WithLoader(staticLoader(map[string]document.Tree{"petstore.yaml": petstoreDoc()})))
}

func actionNames(r *Registry) []string {
	var names []string
	for _, desc := range r.Actions() {
		names = append(names, desc.Name)
	}
	return names
}

func TestNew_RegistersAllOperations(t *testing.T) {
	t.Parallel()
	r, err := buildRegistry(t, Binding{
		Service:      "petstore",
		FileLocation: "petstore.yaml",
		BaseURL:      "https://api.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"getPet", "listPets", "placeOrder"}, actionNames(r))
	assert.Equal(t, []string{"A", "B", "C", "D"}, r.Tags())
	assert.Equal(t, "https://api.example.com", r.BaseURL("listPets"))

	desc, meta, err := r.Lookup("placeOrder")
	require.NoError(t, err)
	assert.Equal(t, "placeOrder", desc.Name)
	assert.Equal(t, "POST", meta.Method)
	assert.Equal(t, "/store/orders", meta.Path)
	assert.Equal(t, "petstore", meta.Service)
}

func TestNew_FilterMatrix(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		binding Binding
		want    []string
	}{
		{
			name:    "include paths glob",
			binding: Binding{IncludePaths: []string{"/pets*"}},
			want:    []string{"listPets"},
		},
		{
			name:    "include paths wildcard segment",
			binding: Binding{IncludePaths: []string{"/pets/*"}},
			want:    []string{"getPet"},
		},
		{
			name:    "exclude paths",
			binding: Binding{ExcludePaths: []string{"/store/*"}},
			want:    []string{"getPet", "listPets"},
		},
		{
			name:    "include tags",
			binding: Binding{IncludeTags: []string{"B"}},
			want:    []string{"getPet", "listPets"},
		},
		{
			name:    "exclude tags",
			binding: Binding{ExcludeTags: []string{"C"}},
			want:    []string{"listPets"},
		},
		{
			name:    "include then exclude tags",
			binding: Binding{IncludeTags: []string{"B", "D"}, ExcludeTags: []string{"C"}},
			want:    []string{"listPets"},
		},
		{
			name:    "path include trims tag universe",
			binding: Binding{IncludePaths: []string{"/pets"}, IncludeTags: []string{"A"}},
			want:    []string{"listPets"},
		},
		{
			name:    "case sensitive tag match",
			binding: Binding{IncludeTags: []string{"a"}},
			want:    nil,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := tc.binding
			b.Service = "petstore"
			b.FileLocation = "petstore.yaml"
			b.BaseURL = "https://api.example.com"
			r, err := buildRegistry(t, b)
			if tc.want == nil {
				var fe *fault.Error
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, fault.Configuration, fe.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, actionNames(r))
		})
	}
}

func TestNew_MalformedPatternNeverMatches(t *testing.T) {
	t.Parallel()
	_, err := buildRegistry(t, Binding{
		Service:      "petstore",
		FileLocation: "petstore.yaml",
		BaseURL:      "https://api.example.com",
		IncludePaths: []string{"[unclosed"},
	})
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Configuration, fe.Kind)
}

func TestNew_CollisionLaterBindingWins(t *testing.T) {
	t.Parallel()
	docs := map[string]document.Tree{
		"first.yaml":  petstoreDoc(),
		"second.yaml": petstoreDoc(),
	}
	r, err := New(context.Background(), []Binding{
		{Service: "first", FileLocation: "first.yaml", BaseURL: "https://first.example.com"},
		{Service: "second", FileLocation: "second.yaml", BaseURL: "https://second.example.com"},
	}, WithLoader(staticLoader(docs)))
	require.NoError(t, err)

	assert.Equal(t, []string{"getPet", "listPets", "placeOrder"}, actionNames(r))
	_, meta, err := r.Lookup("listPets")
	require.NoError(t, err)
	assert.Equal(t, "second", meta.Service)
	assert.Equal(t, "https://second.example.com", r.BaseURL("listPets"))
}

func TestNew_PrefixAvoidsCollision(t *testing.T) {
	t.Parallel()
	docs := map[string]document.Tree{
		"first.yaml":  petstoreDoc(),
		"second.yaml": petstoreDoc(),
	}
	r, err := New(context.Background(), []Binding{
		{Service: "first", FileLocation: "first.yaml", BaseURL: "https://first.example.com", Prefix: "first"},
		{Service: "second", FileLocation: "second.yaml", BaseURL: "https://second.example.com", Prefix: "second"},
	}, WithLoader(staticLoader(docs)))
	require.NoError(t, err)
	assert.Len(t, r.Actions(), 6)
	assert.Contains(t, actionNames(r), "first:listPets")
	assert.Contains(t, actionNames(r), "second:listPets")
}

func TestNew_SkipsFailedBinding(t *testing.T) {
	t.Parallel()
	r, err := New(context.Background(), []Binding{
		{Service: "broken", FileLocation: "missing.yaml", BaseURL: "https://broken.example.com"},
		{Service: "petstore", FileLocation: "petstore.yaml", BaseURL: "https://api.example.com"},
	}, WithLoader(staticLoader(map[string]document.Tree{"petstore.yaml": petstoreDoc()})))
	require.NoError(t, err)
	assert.Len(t, r.Actions(), 3)
}

func TestNew_BaseURLFallbackLookup(t *testing.T) {
	t.Parallel()
	r, err := New(context.Background(), []Binding{
		{Service: "petstore", FileLocation: "petstore.yaml"},
	},
		WithLoader(staticLoader(map[string]document.Tree{"petstore.yaml": petstoreDoc()})),
		WithBaseURLLookup(func(service string) string {
			if service == "petstore" {
				return "https://fallback.example.com"
			}
			return ""
		}))
	require.NoError(t, err)
	assert.Equal(t, "https://fallback.example.com", r.BaseURL("listPets"))
}

func TestNew_NoBaseURLSkipsBinding(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), []Binding{
		{Service: "petstore", FileLocation: "petstore.yaml"},
	}, WithLoader(staticLoader(map[string]document.Tree{"petstore.yaml": petstoreDoc()})))
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.Configuration, fe.Kind)
}

func TestLookup_UnknownAction(t *testing.T) {
	t.Parallel()
	r, err := buildRegistry(t, Binding{
		Service:      "petstore",
		FileLocation: "petstore.yaml",
		BaseURL:      "https://api.example.com",
	})
	require.NoError(t, err)

	_, _, err = r.Lookup("nope")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.UnknownAction, fe.Kind)
	assert.Contains(t, fe.Error(), "unknown action: nope")
}
