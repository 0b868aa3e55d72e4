package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/messaging"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Correlation copies the chi request id into the context so published
// events can be traced back to the request. Must run after RequestID.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chiMiddleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(messaging.WithCorrelationID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
