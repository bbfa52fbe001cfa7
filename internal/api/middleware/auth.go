package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// Заголовки, которые проставляет API gateway после аутентификации
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	msgInvalidUserID   = "некорректный заголовок X-User-ID"
	msgInvalidUserRole = "некорректный заголовок X-User-Role"
	msgUnauthorized    = "требуется аутентификация"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "user_role"
)

// Auth требует аутентифицированного пользователя
func Auth(next http.Handler) http.Handler {
	return authenticate(next, true)
}

// OptionalAuth пропускает анонимные запросы с ролью guest
func OptionalAuth(next http.Handler) http.Handler {
	return authenticate(next, false)
}

func authenticate(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(HeaderUserID)
		if rawID == "" {
			if required {
				handlers.RespondUnauthorized(w, msgUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), roleKey, domain.RoleGuest)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w, msgInvalidUserID)
			return
		}

		role, err := domain.ParseRole(r.Header.Get(HeaderUserRole))
		// system зарезервирована для фоновых задач и извне не принимается
		if err != nil || role == domain.RoleSystem {
			handlers.RespondUnauthorized(w, msgInvalidUserRole)
			return
		}
		// пользователь с id без роли считается клиентом
		if role == domain.RoleGuest {
			role = domain.RoleClient
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает id пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetRole возвращает роль из контекста, guest если запрос анонимный
func GetRole(ctx context.Context) domain.Role {
	role, ok := ctx.Value(roleKey).(domain.Role)
	if !ok {
		return domain.RoleGuest
	}
	return role
}
