package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/saikhaykhunmong/strapi-nextts/internal/telemetry"
)

// RequestIDMiddleware tags each request with a unique id, honoring one the
// client already supplied. The id rides the context into every log record
// written with it.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := telemetry.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
