// Package middlewarectx HTTP middleware аутентификации и ограничения доступа.
//
// JWTMiddleware берёт токен из заголовка Authorization или из cookie сессии,
// проверяет его через Authenticator и кладёт пользователя в контекст запроса.
// При ошибке проверки отвечает 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/waste-collection/internal/http/response"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ текущего пользователя в контексте
const User Key = "user"

// Authenticator проверяет токен и возвращает его владельца.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// TokenSource достаёт токен из cookie сессии.
type TokenSource interface {
	Token(r *http.Request) (string, bool)
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// UserFrom текущий пользователь запроса.
func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(User).(models.User)
	return u, ok && u.ID != ""
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// JWTMiddleware аутентифицирует запрос по bearer-токену, а при его
// отсутствии по cookie сессии. sessions может быть nil.
func JWTMiddleware(auth Authenticator, sessions TokenSource, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearer(r)
			if !ok && sessions != nil {
				token, ok = sessions.Token(r)
			}
			if !ok {
				log.Warn("missing credentials")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			user, err := auth.ValidateToken(r.Context(), token)
			if err != nil || user == nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *user)))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
func RequireRole(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFrom(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("access denied", slog.String("user_id", u.ID), slog.String("role", string(u.Role)),
				slog.String("path", r.URL.Path))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		})
	}
}
