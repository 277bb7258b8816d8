package extractor

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/fetch"
)

func newState() *State {
	return &State{
		Client: &fetch.Client{UserAgent: "unfurl-test", PerRequestTimeout: 2 * time.Second},
		Log:    zerolog.Nop(),
	}
}

// stubExtractor matches any URL whose host contains match.
type stubExtractor struct {
	name  string
	match string
	calls int32
	err   error
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Matches(u *url.URL) bool { return strings.Contains(u.Host, s.match) }

func (s *stubExtractor) Extract(ctx context.Context, _ *State, u *url.URL) (*embed.WithExpire, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Finalize(&embed.Embed{Title: s.name, URL: u.String()}, nil, DefaultExpiry), nil
}

type stubFactory struct {
	name string
	ex   Extractor
	err  error
}

func (f stubFactory) Name() string                        { return f.name }
func (f stubFactory) Create(*Settings) (Extractor, error) { return f.ex, f.err }

func TestRegistry_FirstMatchWins(t *testing.T) {
	first := &stubExtractor{name: "first", match: "example"}
	second := &stubExtractor{name: "second", match: "example.com"}
	r := NewRegistry(newState(), first, second)

	assert.Equal(t, []string{"first", "second"}, r.Names())

	res, err := r.Extract(context.Background(), "https://www.example.com/a?b=c#d")
	require.NoError(t, err)
	assert.Equal(t, "first", res.Embed.Title)
	assert.Equal(t, "https://www.example.com/a", res.Embed.URL)
	assert.Equal(t, DefaultExpiry, res.Expires)
	assert.Equal(t, int32(1), first.calls)
	assert.Equal(t, int32(0), second.calls)

	// stable across runs
	for i := 0; i < 10; i++ {
		u, _ := url.Parse("https://example.com/x")
		assert.Equal(t, "first", r.Find(u).Name())
	}
}

func TestRegistry_NoExtractor(t *testing.T) {
	r := NewRegistry(newState(), &stubExtractor{name: "only", match: "example"})
	_, err := r.Extract(context.Background(), "https://unrelated.org/x")
	assert.ErrorIs(t, err, ErrNoExtractor)
}

func TestRegistry_InvalidURL(t *testing.T) {
	r := NewRegistry(newState())
	for _, raw := range []string{"", "not a url", "ftp://example.com/x", "/relative", "https://"} {
		_, err := r.Extract(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestRegistry_ExtractionErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	r := NewRegistry(newState(), &stubExtractor{name: "bad", match: "example", err: boom})
	res, err := r.Extract(context.Background(), "https://example.com/")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_CanceledContext(t *testing.T) {
	r := NewRegistry(newState(), &stubExtractor{name: "s", match: "example"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Extract(ctx, "https://example.com/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild(t *testing.T) {
	a := &stubExtractor{name: "a", match: "a"}
	b := &stubExtractor{name: "b", match: "b"}
	r, err := Build(newState(), &Settings{},
		stubFactory{name: "a", ex: a},
		stubFactory{name: "off"},
		stubFactory{name: "b", ex: b},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	cfgErr := &ConfigError{Kind: ErrMissingField, Field: "b.key"}
	_, err = Build(newState(), &Settings{}, stubFactory{name: "a", ex: a}, stubFactory{name: "b", err: cfgErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "extractor b")
	assert.Contains(t, err.Error(), "b.key")
}

func TestBuild_Default(t *testing.T) {
	r, err := Build(newState(), &Settings{}, Default()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"deviantart"}, r.Names(), "furaffinity stays off without its section")

	r, err = Build(newState(), &Settings{
		Extractors: map[string]map[string]string{"furaffinity": {"a": "AAA", "b": "BBB"}},
		UserAgents: map[string]string{"browser": "Mozilla/5.0"},
	}, Default()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"deviantart", "furaffinity"}, r.Names())
}

func TestExtractAll_KeepsOrderAndIsolatesFailures(t *testing.T) {
	r := NewRegistry(newState(), &stubExtractor{name: "ok", match: "good"})
	urls := []string{"https://good.example/1", "https://nope.example/2", "::bad", "https://good.example/3"}

	results := r.ExtractAll(context.Background(), urls, 2)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "https://good.example/1", results[0].Embed.Embed.URL)
	assert.ErrorIs(t, results[1].Err, ErrNoExtractor)
	assert.ErrorIs(t, results[2].Err, ErrInvalidURL)
	assert.NoError(t, results[3].Err)
	assert.Equal(t, "https://good.example/3", results[3].URL)
}

func TestSettings_UserAgent(t *testing.T) {
	s := &Settings{UserAgents: map[string]string{"browser": "B", "%bot": "Bot"}}
	ua, ok := s.UserAgent("%browser")
	assert.True(t, ok)
	assert.Equal(t, "B", ua)
	ua, ok = s.UserAgent("bot")
	assert.True(t, ok)
	assert.Equal(t, "Bot", ua)
	_, ok = s.UserAgent("%missing")
	assert.False(t, ok)

	var nilSettings *Settings
	_, ok = nilSettings.UserAgent("browser")
	assert.False(t, ok)
	_, ok = nilSettings.Section("furaffinity")
	assert.False(t, ok)
}
