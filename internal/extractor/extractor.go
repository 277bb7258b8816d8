// Package extractor holds the site-specific extractors and the registry
// that picks one for a URL.
//
// An Extractor pairs a pure match predicate with a fetch-and-normalize
// operation. Extractors are built once at startup by a Factory from
// validated Settings and are read-only afterwards, so a single Registry is
// shared by all requests without locking.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/fetch"
)

// Extractor understands one site.
type Extractor interface {
	// Name is a stable lowercase identifier used in logs and metrics.
	Name() string
	// Matches must be pure and cheap; it is called for every request.
	Matches(u *url.URL) bool
	// Extract fetches the upstream resource and normalizes it.
	Extract(ctx context.Context, st *State, u *url.URL) (*embed.WithExpire, error)
}

// Factory builds an Extractor from settings. Returning (nil, nil) means
// the extractor is not configured and should be left out.
type Factory interface {
	Name() string
	Create(s *Settings) (Extractor, error)
}

// Settings is the slice of configuration extractors consume.
type Settings struct {
	// Extractors holds one section of named fields per extractor.
	Extractors map[string]map[string]string
	// UserAgents maps a logical name (e.g. "browser") to a header value.
	UserAgents map[string]string
}

// Section returns the named extractor section, if present.
func (s *Settings) Section(name string) (map[string]string, bool) {
	if s == nil || s.Extractors == nil {
		return nil, false
	}
	sec, ok := s.Extractors[name]
	return sec, ok
}

// UserAgent resolves a user agent reference. References may carry a
// leading '%' ("%browser"), and table keys may be written either way.
func (s *Settings) UserAgent(ref string) (string, bool) {
	if s == nil || s.UserAgents == nil {
		return "", false
	}
	key := strings.TrimPrefix(ref, "%")
	if ua, ok := s.UserAgents[key]; ok {
		return ua, true
	}
	ua, ok := s.UserAgents["%"+key]
	return ua, ok
}

// Startup-time configuration error kinds.
var (
	ErrMissingField     = errors.New("missing extractor field")
	ErrInvalidField     = errors.New("invalid extractor field")
	ErrInvalidUserAgent = errors.New("invalid user agent")
)

// ConfigError reports a problem building an extractor from settings.
type ConfigError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// Per-request errors.
var (
	ErrNoExtractor = errors.New("no extractor for url")
	ErrInvalidURL  = errors.New("invalid url")
)

// MediaResolver validates or enriches media URLs on a finished embed, for
// example through an image proxy. It runs after parsing.
type MediaResolver interface {
	Resolve(ctx context.Context, e *embed.Embed) error
}

// NopResolver leaves media untouched.
type NopResolver struct{}

func (NopResolver) Resolve(context.Context, *embed.Embed) error { return nil }

// State is shared by every request: the outbound client and collaborators.
type State struct {
	Client   *fetch.Client
	Resolver MediaResolver
	Log      zerolog.Logger
}

func (st *State) resolver() MediaResolver {
	if st == nil || st.Resolver == nil {
		return NopResolver{}
	}
	return st.Resolver
}

// hostIs reports whether host is domain or a subdomain of it. A host that
// merely ends with the same characters ("notdomain.com") does not match.
func hostIs(u *url.URL, domain string) bool {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// hasPath reports whether u has anything past the root.
func hasPath(u *url.URL) bool {
	return strings.Trim(u.Path, "/") != ""
}

// Default returns the built-in factories in priority order.
func Default() []Factory {
	return []Factory{
		DeviantArtFactory{},
		FurAffinityFactory{},
	}
}
