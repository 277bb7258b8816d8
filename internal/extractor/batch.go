package extractor

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/unfurl/internal/embed"
)

// Result is one entry of ExtractAll.
type Result struct {
	URL   string
	Embed *embed.WithExpire
	Err   error
}

// ExtractAll runs Extract for each URL concurrently, at most limit at a time
// (no limit when limit <= 0). Failures stay with their own entry; results
// keep input order. URLs that differ only in fragment, host case or tracking
// parameters are extracted once and share the result, so callers must treat
// returned embeds as read-only.
func (r *Registry) ExtractAll(ctx context.Context, urls []string, limit int) []Result {
	out := make([]Result, len(urls))
	keys := make([]string, len(urls))
	first := make(map[string]int, len(urls))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, raw := range urls {
		keys[i] = batchKey(raw)
		if _, ok := first[keys[i]]; ok {
			continue
		}
		first[keys[i]] = i
		g.Go(func() error {
			res, err := r.Extract(ctx, raw)
			out[i] = Result{URL: raw, Embed: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, raw := range urls {
		if j := first[keys[i]]; j != i {
			out[i] = Result{URL: raw, Embed: out[j].Embed, Err: out[j].Err}
		}
	}
	return out
}

// trackingParams never change what an upstream serves.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"}

// batchKey identifies URLs that are certain to produce the same embed.
// Unparsable input is its own key.
func batchKey(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery != "" {
		q := u.Query()
		for _, p := range trackingParams {
			q.Del(p)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
