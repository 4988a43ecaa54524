// Package notify журналирует события смены статуса из collection.status и
// сообщает о них владельцу записи по почте.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/lib/smtp"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// UserRepository источник адресов получателей
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Mailer доставка одного письма.
type Mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

// Service отправитель уведомлений. mailer может быть nil, тогда события
// только журналируются.
type Service struct {
	users  UserRepository
	mailer Mailer
	log    *slog.Logger
}

// New создает сервис уведомлений.
func New(users UserRepository, mailer Mailer, log *slog.Logger) *Service {
	return &Service{users: users, mailer: mailer, log: log}
}

// HandleStatus обработчик очереди collection.status.
func (s *Service) HandleStatus(ctx context.Context, body []byte) error {
	const op = "services.notify.HandleStatus"
	var event models.StatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrMalformed, err)
	}
	if event.Kind == "" || event.ID == 0 {
		return fmt.Errorf("%s: %w: missing kind or id", op, rabbitmq.ErrMalformed)
	}

	s.log.Info("status changed",
		slog.String("kind", event.Kind),
		slog.Int64("id", event.ID),
		slog.String("user_id", event.UserID),
		slog.String("status", event.Status),
		slog.String("changed_by", event.ChangedBy),
		slog.Time("changed_at", event.ChangedAt),
	)
	if s.mailer == nil || event.UserID == "" {
		return nil
	}

	user, err := s.users.GetUser(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("recipient not found, skipping", sl.Op(op), slog.String("user_id", event.UserID))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Email == "" {
		return nil
	}

	subject, text := compose(user, event)
	msg := smtp.Message{To: []string{user.Email}, Subject: subject, Body: text}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func compose(user *models.User, e models.StatusEvent) (string, string) {
	what := fmt.Sprintf("заявки на вторсырьё №%d", e.ID)
	if e.Kind == "special" {
		what = fmt.Sprintf("специального вывоза №%d", e.ID)
	}
	name := user.Name
	if name == "" {
		name = user.Username
	}
	subject := fmt.Sprintf("Статус %s: %s", what, e.Status)
	text := fmt.Sprintf("Здравствуйте, %s!\n\nСтатус %s изменён на %q (%s).\n",
		name, what, e.Status, e.ChangedAt.Format("02.01.2006 15:04"))
	return subject, text
}
