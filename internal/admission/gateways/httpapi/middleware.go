package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

type listKey struct{}

func withList(ctx context.Context, l domain.ListKind) context.Context {
	return context.WithValue(ctx, listKey{}, l)
}

func listFrom(ctx context.Context) domain.ListKind {
	l, _ := ctx.Value(listKey{}).(domain.ListKind)
	return l
}

// requestLogger logs one line per request through the shared logger.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := map[string]any{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start).String(),
			"remote":    r.RemoteAddr,
			"requestId": chimiddleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusInternalServerError {
			a.logger.Warn(fields, "http_request")
			return
		}
		a.logger.Debug(fields, "http_request")
	})
}

// recoverer turns a handler panic into a logged 500.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.Error(map[string]any{
					"panic":     rec,
					"path":      r.URL.Path,
					"requestId": chimiddleware.GetReqID(r.Context()),
					"stack":     string(debug.Stack()),
				}, "http_handler_panic")
				writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "internal error", r))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// listParam resolves {list} to a ListKind; anything else is a 404.
func (a *API) listParam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := domain.ParseListKind(chi.URLParam(r, "list"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", err.Error(), r))
			return
		}
		next.ServeHTTP(w, r.WithContext(withList(r.Context(), list)))
	})
}
