// Package document loads OpenAPI descriptions into the raw tree form the rest
// of the module operates on. kin-openapi does the heavy lifting (parsing,
// validation, Swagger v2 conversion, external $ref dereferencing); the result
// is serialized back to a map tree so local "#/" pointers stay visible for the
// schema resolver.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Tree is a loaded OpenAPI document: plain maps, slices, and scalars, with
// local $ref pointers left in place.
type Tree = map[string]any

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// Loader fetches a document tree for a location. The registry depends on this
// signature so tests can substitute in-memory documents.
type Loader func(ctx context.Context, location string) (Tree, error)

// Load reads an OpenAPI description from a filesystem path or an http/https
// URL and returns its tree. Swagger v2.0 inputs are converted to v3 first.
// Validation is permissive: problems that do not prevent a best-effort build
// are tolerated.
func Load(ctx context.Context, location string, opts ...Option) (Tree, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("document: location is empty")
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(location)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	var raw []byte
	var abs string
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, fmt.Errorf("document: unsupported URL scheme %q (only http/https allowed)", scheme)
		}
		fetched, err := fetchWithRetry(ctx, location, settings)
		if err != nil {
			return nil, fmt.Errorf("document: fetch %s: %w", location, err)
		}
		raw = fetched
	} else {
		var err error
		abs, err = filepath.Abs(location)
		if err != nil {
			return nil, fmt.Errorf("document: resolve path: %w", err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("document: read file: %w", err)
		}
		raw = data
	}

	version, err := detectVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("document: %s: %w", location, err)
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := newLoader(settings, !isURL)
		if isURL {
			doc, err = loader.LoadFromURI(u)
		} else {
			doc, err = loader.LoadFromFile(abs)
		}
		if err != nil {
			return nil, fmt.Errorf("document: parse %s: %w", location, err)
		}
	case 2:
		doc, err = convertV2ToV3(raw)
		if err != nil {
			return nil, fmt.Errorf("document: convert v2 to v3 %s: %w", location, err)
		}
	default:
		return nil, fmt.Errorf("document: %s: unknown or unsupported OpenAPI/Swagger version", location)
	}

	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, fmt.Errorf("document: validate %s: %w", location, err)
	}

	return toTree(doc)
}

// toTree serializes a parsed document back into a raw map tree.
func toTree(doc *openapi3.T) (Tree, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("document: serialize: %w", err)
	}
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("document: rebuild tree: %w", err)
	}
	return tree, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !rootIsFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			req, err := http.NewRequest(http.MethodGet, uri.String(), nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else an error.
func detectVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, errors.New("missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			defer resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == 429 {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// canProceedDespiteValidation returns true for validation errors where a
// best-effort build can still proceed (e.g., unresolved $ref entries).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
