package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/api/response"
)

// Recoverer turns a handler panic into a 500 JSON envelope. Panics with
// http.ErrAbortHandler are re-raised so net/http can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			logger.ErrorCtx(r.Context(), "Handler panicked",
				logger.KeyPanic, fmt.Sprint(rvr),
				logger.KeyPath, r.URL.Path,
				logger.KeyStack, string(debug.Stack()),
			)
			if r.Header.Get("Connection") != "Upgrade" {
				response.InternalServerError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
