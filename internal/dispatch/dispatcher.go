// Package dispatch turns a named action plus a loosely-typed argument map into
// a concrete HTTP request against the action's backend, executes it, and
// normalizes the response. Each dispatch is a single attempt, independent of
// every other dispatch; cancellation is cooperative via the caller's context.
package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mark3labs/openapi-actions/internal/action"
	"github.com/mark3labs/openapi-actions/internal/fault"
	"github.com/mark3labs/openapi-actions/internal/registry"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient substitutes the HTTP client used for outbound calls.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

// WithLogger sets the dispatch logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// Dispatcher executes actions against their backends. Safe for concurrent use;
// it holds no mutable state beyond the read-only registry.
type Dispatcher struct {
	registry *registry.Registry
	creds    CredentialSource
	client   *http.Client
	logger   *zap.Logger
}

// New builds a Dispatcher over a constructed registry.
func New(reg *registry.Registry, creds CredentialSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		creds:    creds,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var placeholderRe = regexp.MustCompile(`\{[^/{}]+\}`)

// Dispatch resolves an action name and argument map into an HTTP request,
// executes it, and returns the parsed response body (JSON when possible, raw
// text otherwise). Failures carry a taxonomy kind; no network call is made
// when validation fails.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	desc, meta, err := d.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	logger := d.logger.With(
		zap.String("action", name),
		zap.String("request_id", uuid.NewString()),
	)
	logger.Info("dispatching action")

	// Required fields are checked in declaration order; the first missing one
	// is reported.
	for _, req := range desc.InputSchema.Required {
		if _, ok := args[req]; !ok {
			return nil, fault.New(fault.Validation, "missing required argument: %s", req)
		}
	}

	pathArgs := map[string]any{}
	queryArgs := map[string]any{}
	headerArgs := map[string]string{}
	bodyArgs := map[string]any{}
	for key, value := range args {
		loc, ok := meta.ParamLocations[key]
		if !ok {
			loc = action.InQuery
		}
		switch loc {
		case action.InPath:
			pathArgs[key] = value
		case action.InHeader:
			headerArgs[key] = stringify(value)
		case action.InBody:
			bodyArgs[key] = value
		default:
			queryArgs[key] = value
		}
	}

	// An explicit body argument replaces the partitioned body wholesale.
	var body any = bodyArgs
	if explicit, ok := args["body"]; ok {
		body = explicit
	}

	target, err := buildURL(d.registry.BaseURL(name), meta.Path, pathArgs, queryArgs)
	if err != nil {
		return nil, err
	}

	headers, err := d.buildHeaders(meta, headerArgs)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeBody(meta.ContentMediaType, body)
	if err != nil {
		return nil, err
	}
	if encoded.ContentType != "" {
		headers["Content-Type"] = encoded.ContentType
	}

	req, err := http.NewRequestWithContext(ctx, meta.Method, target, encoded.Reader)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, err, "build request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	logger.Debug("sending request",
		zap.String("method", meta.Method),
		zap.String("url", target),
		zap.String("content_type", headers["Content-Type"]))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, err, "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, err, "read response: %v", err)
	}

	if resp.StatusCode >= 400 {
		logger.Warn("backend returned error status", zap.Int("status", resp.StatusCode))
		return nil, fault.HTTPError(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	logger.Debug("dispatch complete", zap.Int("status", resp.StatusCode))

	// Non-JSON success bodies are returned as raw text, never as an error.
	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return string(respBody), nil
	}
	return parsed, nil
}

// buildHeaders merges, lowest to highest precedence: the action's auth header,
// the declared content type, then caller-supplied headers.
func (d *Dispatcher) buildHeaders(meta *action.Meta, callerHeaders map[string]string) (map[string]string, error) {
	headers, err := authHeader(d.creds, meta.AuthType, meta.Service)
	if err != nil {
		return nil, err
	}
	headers["Content-Type"] = meta.ContentMediaType
	for key, value := range callerHeaders {
		headers[key] = value
	}
	return headers, nil
}

// buildURL substitutes path placeholders and appends query parameters. Any
// placeholder left unresolved after substitution is a validation error.
func buildURL(baseURL, pathTemplate string, pathArgs, queryArgs map[string]any) (string, error) {
	p := pathTemplate
	for name, value := range pathArgs {
		p = strings.ReplaceAll(p, "{"+name+"}", stringify(value))
	}
	if unresolved := placeholderRe.FindAllString(p, -1); len(unresolved) > 0 {
		return "", fault.New(fault.Validation,
			"unresolved path parameter(s) %s in %q", strings.Join(unresolved, ", "), pathTemplate)
	}

	target := strings.TrimRight(baseURL, "/") + p
	if len(queryArgs) == 0 {
		return target, nil
	}
	values := url.Values{}
	for key, value := range queryArgs {
		switch list := value.(type) {
		case []any:
			for _, item := range list {
				values.Add(key, stringify(item))
			}
		default:
			values.Set(key, stringify(value))
		}
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + values.Encode(), nil
}
