// Package session хранит профиль текущего пользователя. Holder передаётся
// явно тем, кому нужен пользователь; записывается только при входе, выходе
// и изменении профиля.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// ErrNoSession возвращается, если пользователь не вошёл в систему.
var ErrNoSession = errors.New("no active session")

// Checker разрешает текущую сессию в пользователя; nil без ошибки означает
// отсутствие сессии.
type Checker interface {
	Check(ctx context.Context) (*models.User, error)
}

// Holder потокобезопасный контейнер профиля.
type Holder struct {
	mu     sync.RWMutex
	user   *models.User
	loaded bool
}

// NewHolder создаёт пустой Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load один раз запрашивает пользователя у Checker. Повторные вызовы после
// успешной загрузки возвращают сохранённое значение.
func (h *Holder) Load(ctx context.Context, c Checker) (*models.User, error) {
	const op = "session.Load"

	h.mu.RLock()
	if h.loaded {
		u := h.user
		h.mu.RUnlock()
		return copyUser(u), nil
	}
	h.mu.RUnlock()

	u, err := c.Check(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = copyUser(u)
	h.loaded = true
	return copyUser(h.user), nil
}

// User возвращает копию профиля или ErrNoSession.
func (h *Holder) User() (*models.User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.user == nil {
		return nil, ErrNoSession
	}
	return copyUser(h.user), nil
}

// HasRole сообщает, вошёл ли пользователь с одной из ролей.
func (h *Holder) HasRole(roles ...models.Role) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.user == nil {
		return false
	}
	for _, r := range roles {
		if h.user.Role == r {
			return true
		}
	}
	return false
}

// SignIn сохраняет профиль после входа или изменения профиля.
func (h *Holder) SignIn(u *models.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = copyUser(u)
	h.loaded = true
}

// SignOut очищает профиль.
func (h *Holder) SignOut() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = nil
	h.loaded = true
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
