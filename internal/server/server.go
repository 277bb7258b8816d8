// Package server exposes the extractor registry over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/extractor"
)

// Extractor is what the server needs from the registry.
type Extractor interface {
	Extract(ctx context.Context, raw string) (*embed.WithExpire, error)
}

type handler struct {
	ex  Extractor
	log zerolog.Logger
}

// NewRouter builds the routes:
//
//	GET /v1/embed?url=<url>  extract one URL
//	GET /healthz             liveness
//	GET /metrics             Prometheus exposition
func NewRouter(ex Extractor, log zerolog.Logger) http.Handler {
	h := &handler{ex: ex, log: log}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(h.accessLog)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/v1/embed", h.handleEmbed)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handler) handleEmbed(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing url parameter"})
		return
	}

	res, err := h.ex.Extract(r.Context(), raw)
	if err != nil {
		status := statusFor(err)
		msg := http.StatusText(status)
		if status < http.StatusInternalServerError {
			msg = err.Error()
		}
		writeJSON(w, status, errorBody{Error: msg})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age="+strconv.FormatUint(res.Expires, 10))
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps extraction errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extractor.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, extractor.ErrNoExtractor):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// Serve runs an HTTP server on addr until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
