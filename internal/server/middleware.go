package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/observability"
	"github.com/matzehuels/klumpen/pkg/report"
)

type ctxKey int

const analysisKey ctxKey = iota

// requestLogger logs one line per request and reports it to the HTTP hooks.
// The route label is the chi pattern so IDs do not explode metric cardinality.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			hooks := observability.HTTP()
			hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if id := middleware.GetReqID(r.Context()); id != "" {
				ww.Header().Set(middleware.RequestIDHeader, id)
			}
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := r.URL.Path
				if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				elapsed := time.Since(start)
				hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)

				logFn := logger.Info
				if status >= http.StatusInternalServerError {
					logFn = logger.Error
				}
				logFn("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", elapsed,
					"request_id", middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// loadAnalysis resolves {id} from the store and puts the analysis on the
// request context.
func (s *Server) loadAnalysis(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := errors.ValidateAnalysisID(id); err != nil {
			s.writeError(w, r, err)
			return
		}
		a, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), analysisKey, a)))
	})
}

func analysisFrom(ctx context.Context) *report.Analysis {
	a, _ := ctx.Value(analysisKey).(*report.Analysis)
	return a
}
