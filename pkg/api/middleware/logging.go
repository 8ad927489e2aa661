package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/internal/telemetry"
)

// RequestLogger logs request start at DEBUG and completion at INFO, with
// the request ID and trace identifiers attached through the log context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		lc := logger.FromContext(ctx)
		if lc == nil {
			lc = logger.NewLogContext(GetRequestID(ctx), r.Method, r.URL.Path, "")
		}
		lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		lc.ClientIP = clientIP(r)
		ctx = logger.WithContext(ctx, lc)
		r = r.WithContext(ctx)

		logger.DebugCtx(ctx, "API request started",
			logger.KeyPath, r.URL.Path,
			logger.KeyUserAgent, r.UserAgent(),
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.InfoCtx(ctx, "API request completed",
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, float64(time.Since(start).Microseconds())/1000.0,
		)
	})
}
