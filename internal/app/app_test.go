package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperifyio/unfurl/internal/extractor"
)

// New wires config into the registry: the endpoint override reaches the
// DeviantArt extractor and the configured user agent reaches the wire.
func TestApp_ExtractThroughConfiguredRegistry(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"type":"photo","title":"Piece","url":"https://img.example/p.png","cache_age":60}`)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.UserAgent = "unfurl-test/1.0"
	cfg.setExtractorField("deviantart", "endpoint", srv.URL)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if names := a.Registry().Names(); len(names) != 1 || names[0] != "deviantart" {
		t.Fatalf("registry=%v, want only deviantart", names)
	}

	res, err := a.Extract(context.Background(), "https://www.deviantart.com/someone/art/piece-1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Embed.Title != "Piece" || res.Expires != 60 {
		t.Fatalf("embed=%+v expires=%d", res.Embed, res.Expires)
	}
	if gotUA != "unfurl-test/1.0" {
		t.Fatalf("User-Agent=%q", gotUA)
	}

	results := a.ExtractAll(context.Background(), []string{
		"https://www.deviantart.com/someone/art/piece-1",
		"https://example.com/",
	})
	if results[0].Err != nil || !errors.Is(results[1].Err, extractor.ErrNoExtractor) {
		t.Fatalf("results=%+v", results)
	}
}

func TestNew_RejectsMisconfiguredExtractor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.setExtractorField("furaffinity", "a", "only-a")
	cfg.setUserAgent("browser", "Mozilla/5.0")

	_, err := New(context.Background(), cfg)
	if !errors.Is(err, extractor.ErrMissingField) {
		t.Fatalf("want ErrMissingField, got %v", err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = -1
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}
