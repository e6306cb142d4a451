// Package registry builds the process-wide action table from an ordered list
// of specification bindings. Construction runs once at startup; the resulting
// Registry is read-only and safe for unsynchronized concurrent reads.
package registry

import (
	"context"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mark3labs/openapi-actions/internal/action"
	"github.com/mark3labs/openapi-actions/internal/document"
	"github.com/mark3labs/openapi-actions/internal/fault"
)

// Binding ties one interface description to its base address, auth scheme,
// name prefix, and filtering rules.
type Binding struct {
	Service      string
	FileLocation string
	Prefix       string
	AuthType     string
	BaseURL      string
	IncludeTags  []string
	ExcludeTags  []string
	IncludePaths []string
	ExcludePaths []string
}

// httpVerbs are the methods considered when walking a document's paths.
var httpVerbs = []string{"get", "post", "put", "delete", "patch", "options", "head", "trace"}

// Option configures Registry construction.
type Option func(*settings)

type settings struct {
	load    document.Loader
	baseURL func(service string) string
	logger  *zap.Logger
}

// WithLoader substitutes the document loader (tests inject in-memory trees).
func WithLoader(load document.Loader) Option { return func(s *settings) { s.load = load } }

// WithBaseURLLookup supplies the fallback base address resolver consulted when
// a binding carries no base URL of its own.
func WithBaseURLLookup(fn func(service string) string) Option {
	return func(s *settings) { s.baseURL = fn }
}

// WithLogger sets the construction logger.
func WithLogger(logger *zap.Logger) Option { return func(s *settings) { s.logger = logger } }

// Registry maps action names to everything a dispatch needs. Immutable after
// New returns.
type Registry struct {
	descriptors map[string]*action.Descriptor
	meta        map[string]*action.Meta
	baseURLs    map[string]string
	docs        map[string]document.Tree
	tags        []string
}

// New loads every binding in order and registers the surviving operations.
// Per-binding load failures and per-operation build failures are logged and
// skipped; a registry with zero actions is a configuration error. On a name
// collision the later binding overwrites the earlier one, loudly.
func New(ctx context.Context, bindings []Binding, opts ...Option) (*Registry, error) {
	s := settings{
		load: func(ctx context.Context, location string) (document.Tree, error) {
			return document.Load(ctx, location)
		},
		baseURL: func(string) string { return "" },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	r := &Registry{
		descriptors: map[string]*action.Descriptor{},
		meta:        map[string]*action.Meta{},
		baseURLs:    map[string]string{},
		docs:        map[string]document.Tree{},
	}
	owners := map[string]string{} // action name -> binding service, for collision warnings

	for _, b := range bindings {
		doc, err := s.load(ctx, b.FileLocation)
		if err != nil {
			s.logger.Error("failed to load specification, skipping binding",
				zap.String("service", b.Service),
				zap.String("location", b.FileLocation),
				zap.Error(err))
			continue
		}

		baseURL := b.BaseURL
		if baseURL == "" {
			baseURL = s.baseURL(b.Service)
		}
		if baseURL == "" {
			s.logger.Warn("no base URL for specification, skipping binding",
				zap.String("service", b.Service))
			continue
		}

		before := len(r.descriptors)
		r.addBinding(doc, b, baseURL, owners, s.logger)
		s.logger.Info("loaded actions from specification",
			zap.String("service", b.Service),
			zap.String("location", b.FileLocation),
			zap.Int("actions", len(r.descriptors)-before))
	}

	if len(r.descriptors) == 0 {
		return nil, fault.New(fault.Configuration, "no usable specification loaded")
	}

	r.tags = r.collectTags()
	s.logger.Info("registry built",
		zap.Int("actions", len(r.descriptors)),
		zap.Strings("tags", r.tags))
	return r, nil
}

func (r *Registry) addBinding(doc document.Tree, b Binding, baseURL string, owners map[string]string, logger *zap.Logger) {
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range sortedKeys(paths) {
		pathItem, ok := paths[p].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range httpVerbs {
			op, ok := pathItem[method].(map[string]any)
			if !ok {
				continue
			}
			if !allowOperation(p, action.Tags(op), b) {
				continue
			}

			desc, meta, err := action.Build(doc, p, method, b.Prefix)
			if err != nil {
				logger.Warn("failed to build action, skipping operation",
					zap.String("service", b.Service),
					zap.String("method", method),
					zap.String("path", p),
					zap.Error(err))
				continue
			}
			meta.AuthType = b.AuthType
			meta.Service = b.Service

			if prev, exists := owners[desc.Name]; exists {
				logger.Warn("action name collision, later binding wins",
					zap.String("action", desc.Name),
					zap.String("previous_service", prev),
					zap.String("service", b.Service))
			}
			owners[desc.Name] = b.Service
			r.descriptors[desc.Name] = desc
			r.meta[desc.Name] = meta
			r.baseURLs[desc.Name] = baseURL
			r.docs[desc.Name] = doc
		}
	}
}

// allowOperation applies the binding's filters in order, short-circuiting on
// the first failing one: include-path, exclude-path, include-tag, exclude-tag.
func allowOperation(p string, tags []string, b Binding) bool {
	if len(b.IncludePaths) > 0 && !matchAnyPattern(p, b.IncludePaths) {
		return false
	}
	if len(b.ExcludePaths) > 0 && matchAnyPattern(p, b.ExcludePaths) {
		return false
	}
	if len(b.IncludeTags) > 0 && !anyTagMatches(tags, b.IncludeTags) {
		return false
	}
	if len(b.ExcludeTags) > 0 && anyTagMatches(tags, b.ExcludeTags) {
		return false
	}
	return true
}

// matchAnyPattern reports whether value matches at least one shell-glob
// pattern. Malformed patterns never match.
func matchAnyPattern(value string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := path.Match(pat, value); err == nil && ok {
			return true
		}
	}
	return false
}

func anyTagMatches(tags, patterns []string) bool {
	for _, tag := range tags {
		if matchAnyPattern(tag, patterns) {
			return true
		}
	}
	return false
}

// Lookup returns the descriptor and metadata for an action, with an unknown
// action fault when the name is not registered.
func (r *Registry) Lookup(name string) (*action.Descriptor, *action.Meta, error) {
	desc, ok := r.descriptors[name]
	if !ok {
		return nil, nil, fault.New(fault.UnknownAction, "unknown action: %s", name)
	}
	return desc, r.meta[name], nil
}

// BaseURL returns the base address bound to an action.
func (r *Registry) BaseURL(name string) string { return r.baseURLs[name] }

// Document returns the raw specification tree owning an action.
func (r *Registry) Document(name string) document.Tree { return r.docs[name] }

// Actions lists every registered descriptor, sorted by name.
func (r *Registry) Actions() []*action.Descriptor {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*action.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Tags returns the distinct sorted tag set across all registered actions.
// Diagnostic only.
func (r *Registry) Tags() []string { return r.tags }

func (r *Registry) collectTags() []string {
	set := map[string]struct{}{}
	for name, meta := range r.meta {
		doc := r.docs[name]
		paths, _ := doc["paths"].(map[string]any)
		pathItem, _ := paths[meta.Path].(map[string]any)
		op, _ := pathItem[strings.ToLower(meta.Method)].(map[string]any)
		for _, t := range action.Tags(op) {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
