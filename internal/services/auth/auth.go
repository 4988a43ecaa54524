// Package auth регистрация, вход и профиль пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/lib/jwt"
	"github.com/magabrotheeeer/waste-collection/internal/lib/password"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

const (
	// DraftTTL время жизни черновика между шагами регистрации
	DraftTTL   = 30 * time.Minute
	profileTTL = 10 * time.Minute
)

// UserRepository хранилище пользователей и их точек сбора
type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req models.ProfileRequest) (*models.User, error)
	CreateAccount(ctx context.Context, a models.WasteAccount) error
}

// Draft данные первого шага регистрации
type Draft struct {
	ID       string                         `json:"id"`
	Identity models.RegisterIdentityRequest `json:"identity"`
}

// Service сервис аутентификации
type Service struct {
	users    UserRepository
	cache    services.Cache
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создаёт сервис
func New(users UserRepository, cache services.Cache, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// RegisterStep1 сохраняет данные о личности и возвращает ID черновика.
func (s *Service) RegisterStep1(ctx context.Context, req models.RegisterIdentityRequest) (string, error) {
	const op = "services.auth.RegisterStep1"
	draft := Draft{ID: uuid.NewString(), Identity: req}
	draft.Identity.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.cache.Set(ctx, cache.DraftKey(draft.ID), draft, DraftTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return draft.ID, nil
}

// RegisterStep2 создаёт пользователя по черновику и его точку сбора.
func (s *Service) RegisterStep2(ctx context.Context, req models.RegisterCredentialsRequest) (*models.User, error) {
	const op = "services.auth.RegisterStep2"
	var draft Draft
	found, err := s.cache.Get(ctx, cache.DraftKey(req.DraftID), &draft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", op, services.ErrDraftExpired)
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         draft.Identity.Name,
		Email:        draft.Identity.Email,
		Phone:        draft.Identity.Phone,
		Address:      draft.Identity.Address,
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := models.WasteAccount{
		AccountID: uuid.NewString(),
		UserID:    user.ID,
		Holder:    user.Name,
		Address:   user.Address,
	}
	if err := s.users.CreateAccount(ctx, account); err != nil {
		s.log.Error("failed to create waste account", sl.Op(op), sl.Err(err), slog.String("user_id", user.ID))
	}

	if err := s.cache.Invalidate(ctx, cache.DraftKey(req.DraftID)); err != nil {
		s.log.Warn("failed to drop registration draft", sl.Op(op), sl.Err(err))
	}
	s.log.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return &user, nil
}

// Login проверяет пароль и выпускает токен.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken разбирает токен в пользователя с ID, именем и ролью.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	const op = "services.auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%s: unknown role %q", op, claims.Role)
	}
	return &models.User{ID: claims.UserID, Username: claims.Username, Role: role}, nil
}

// Check возвращает полный профиль пользователя, по возможности из кеша.
func (s *Service) Check(ctx context.Context, userID string) (*models.User, error) {
	const op = "services.auth.Check"
	key := profileKey(userID)
	var cached models.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("profile cache read failed", sl.Op(op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, user, profileTTL); err != nil {
		s.log.Warn("profile cache write failed", sl.Op(op), sl.Err(err))
	}
	return user, nil
}

// UpdateProfile меняет профиль и сбрасывает его кеш.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error) {
	const op = "services.auth.UpdateProfile"
	user, err := s.users.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(ctx, profileKey(userID)); err != nil {
		s.log.Warn("failed to drop cached profile", sl.Op(op), sl.Err(err))
	}
	return user, nil
}

func profileKey(userID string) string {
	return "user:" + userID
}
