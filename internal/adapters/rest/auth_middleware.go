package rest

import (
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// AuthMiddleware доверяет X-User-ID от API Gateway: аутентификация выполнена до сервиса.
// Пользователь добавляется и в контекст, и в поля логгера запроса.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			WriteJSONError(w, http.StatusUnauthorized, "X-User-ID header is missing")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			contextkeys.LoggerFromContext(r.Context()).Warn("Rejected request with malformed user id", port.Fields{"x_user_id": raw})
			WriteJSONError(w, http.StatusUnauthorized, "Invalid X-User-ID header format")
			return
		}

		ctx := contextkeys.ContextWithUserID(r.Context(), userID)
		ctx = contextkeys.ContextWithLogger(ctx, contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
			"user_id": userID.String(),
		}))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
