package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Benchmark the client with and without a concurrency gate.
func BenchmarkClient_Concurrency(b *testing.B) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><div class=\"submission-area\"><img src=\"/a.png\"></div></body></html>"))
	}))
	defer srv.Close()

	for _, maxConc := range []int{0, 4, 16} {
		b.Run(fmt.Sprintf("max=%d", maxConc), func(b *testing.B) {
			c := &Client{UserAgent: "unfurl-bench", PerRequestTimeout: 2 * time.Second, MaxConcurrent: maxConc}
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
						b.Errorf("get: %v", err)
					}
				}
			})
		})
	}
}
