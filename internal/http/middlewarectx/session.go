package middlewarectx

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/magabrotheeeer/waste-collection/internal/config"
)

const tokenKey = "token"

// SessionStore хранит JWT в подписанной cookie, чтобы браузерный клиент
// мог ходить с credentials: 'include' без заголовка Authorization.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionStore создаёт хранилище cookie-сессий.
func NewSessionStore(cfg config.Session) *SessionStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, name: cfg.CookieName}
}

// Save записывает токен в cookie ответа.
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, token string) error {
	sess, err := s.store.Get(r, s.name)
	if err != nil && sess == nil {
		return err
	}
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Token токен из cookie запроса.
func (s *SessionStore) Token(r *http.Request) (string, bool) {
	sess, err := s.store.Get(r, s.name)
	if err != nil || sess == nil {
		return "", false
	}
	token, ok := sess.Values[tokenKey].(string)
	return token, ok && token != ""
}

// Clear удаляет cookie сессии.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.store.Get(r, s.name)
	if sess == nil {
		return err
	}
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
