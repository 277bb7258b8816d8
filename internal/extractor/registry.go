package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/metrics"
)

// Registry dispatches URLs to the first matching extractor. Registration
// order is priority order.
type Registry struct {
	state      *State
	extractors []Extractor
}

// NewRegistry wraps already constructed extractors.
func NewRegistry(st *State, extractors ...Extractor) *Registry {
	if st == nil {
		st = &State{}
	}
	return &Registry{state: st, extractors: append([]Extractor(nil), extractors...)}
}

// Build runs each factory in order. A factory error aborts startup;
// factories that opt out are skipped.
func Build(st *State, s *Settings, factories ...Factory) (*Registry, error) {
	r := NewRegistry(st)
	for _, f := range factories {
		ex, err := f.Create(s)
		if err != nil {
			return nil, fmt.Errorf("extractor %s: %w", f.Name(), err)
		}
		if ex == nil {
			r.state.Log.Info().Str("extractor", f.Name()).Msg("extractor not configured; disabled")
			continue
		}
		r.extractors = append(r.extractors, ex)
	}
	r.state.Log.Debug().Strs("extractors", r.Names()).Msg("extractors ready")
	return r, nil
}

// Names lists the active extractors in priority order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for _, ex := range r.extractors {
		names = append(names, ex.Name())
	}
	return names
}

// Find returns the first extractor whose predicate accepts u, or nil.
func (r *Registry) Find(u *url.URL) Extractor {
	for _, ex := range r.extractors {
		if ex.Matches(u) {
			return ex
		}
	}
	return nil
}

// ParseURL accepts absolute http(s) URLs only.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

// Extract finds an extractor for raw and runs it. ErrNoExtractor means no
// extractor understands the URL; that's an ordinary outcome.
func (r *Registry) Extract(ctx context.Context, raw string) (*embed.WithExpire, error) {
	u, err := ParseURL(raw)
	if err != nil {
		metrics.Observe("", metrics.OutcomeBadURL, 0)
		return nil, err
	}
	ex := r.Find(u)
	if ex == nil {
		metrics.Observe("", metrics.OutcomeNoMatch, 0)
		return nil, fmt.Errorf("%w: %s", ErrNoExtractor, u.Redacted())
	}

	log := r.state.Log.With().Str("extractor", ex.Name()).Str("url", u.Redacted()).Logger()
	start := time.Now()
	res, err := ex.Extract(ctx, r.state, u)
	took := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCancelled
		}
		metrics.Observe(ex.Name(), outcome, took)
		log.Warn().Err(err).Dur("took", took).Msg("extraction failed")
		return nil, err
	}
	metrics.Observe(ex.Name(), metrics.OutcomeOK, took)
	observeFlags(ex.Name(), res.Embed.Flags)
	log.Debug().Dur("took", took).Uint64("expires", res.Expires).Msg("extracted")
	return res, nil
}

func observeFlags(name string, f embed.Flags) {
	if f.Has(embed.FlagAdult) {
		metrics.EmbedFlags.WithLabelValues(name, "adult").Inc()
	}
	if f.Has(embed.FlagGraphic) {
		metrics.EmbedFlags.WithLabelValues(name, "graphic").Inc()
	}
}
