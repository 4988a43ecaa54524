// Package auth HTTP-обработчики /api/auth: регистрация в два шага, вход,
// выход, проверка сессии и изменение профиля.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/lib/validate"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Service бизнес-логика аутентификации
type Service interface {
	RegisterStep1(ctx context.Context, req models.RegisterIdentityRequest) (string, error)
	RegisterStep2(ctx context.Context, req models.RegisterCredentialsRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Check(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error)
}

// Sessions cookie-сессия браузерного клиента
type Sessions interface {
	Save(w http.ResponseWriter, r *http.Request, token string) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Handler обработчики /api/auth
type Handler struct {
	log      *slog.Logger
	service  Service
	sessions Sessions
	validate *validator.Validate
}

// New создаёт Handler
func New(log *slog.Logger, service Service, sessions Sessions) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
		validate: validate.New(),
	}
}

// Login godoc
// @Summary Вход
// @Description Проверяет имя и пароль, возвращает JWT и ставит cookie сессии.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log := handlers.Logger(h.log, r, op)

	var req models.LoginRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handlers.Fail(w, r, log, err, "login failed")
		return
	}
	if err := h.sessions.Save(w, r, token); err != nil {
		log.Warn("failed to save session cookie", sl.Err(err))
	}

	log.Info("login success", slog.String("username", user.Username))
	handlers.OK(w, r, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Logout удаляет cookie сессии. JWT без состояния, отзывать нечего.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Logout"
	log := handlers.Logger(h.log, r, op)
	if err := h.sessions.Clear(w, r); err != nil {
		log.Warn("failed to clear session cookie", sl.Err(err))
	}
	handlers.OK(w, r, map[string]any{"logged_out": true})
}

// Check текущий пользователь
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Check"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	user, err := h.service.Check(r.Context(), actor.ID)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to load user")
		return
	}
	handlers.OK(w, r, user)
}

// RegisterStep1 первый шаг регистрации: данные о личности.
func (h *Handler) RegisterStep1(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.RegisterStep1"
	log := handlers.Logger(h.log, r, op)

	var req models.RegisterIdentityRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	draftID, err := h.service.RegisterStep1(r.Context(), req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to save registration draft")
		return
	}
	handlers.OK(w, r, map[string]any{"draft_id": draftID})
}

// RegisterStep2 второй шаг регистрации: учётные данные.
func (h *Handler) RegisterStep2(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.RegisterStep2"
	log := handlers.Logger(h.log, r, op)

	var req models.RegisterCredentialsRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	user, err := h.service.RegisterStep2(r.Context(), req)
	if err != nil {
		handlers.Fail(w, r, log, err, "registration failed")
		return
	}
	log.Info("user registered", slog.String("user_id", user.ID))
	handlers.Created(w, r, user)
}

// UpdateProfile изменяет профиль текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.UpdateProfile"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.ProfileRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), actor.ID, req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to update profile")
		return
	}
	handlers.OK(w, r, user)
}
