package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/waste-collection/internal/lib/smtp"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg smtp.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const specialEvent = `{"kind":"special","id":12,"user_id":"u-1","status":"Collected","changed_by":"c-1","changed_at":"2030-03-10T09:00:00Z"}`

func TestService_HandleStatus(t *testing.T) {
	ownerMail := mock.MatchedBy(func(msg smtp.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "nimal@example.com" &&
			strings.Contains(msg.Subject, "специального вывоза №12") &&
			strings.Contains(msg.Body, "Здравствуйте, Nimal!")
	})

	tests := []struct {
		name       string
		body       string
		setupMocks func(*MockRepository, *MockMailer)
		wantErr    error
		wantAnyErr bool
	}{
		{
			name: "письмо владельцу",
			body: specialEvent,
			setupMocks: func(r *MockRepository, m *MockMailer) {
				r.On("GetUser", mock.Anything, "u-1").Return(&models.User{ID: "u-1", Name: "Nimal", Email: "nimal@example.com"}, nil).Once()
				m.On("Send", mock.Anything, ownerMail).Return(nil).Once()
			},
		},
		{
			name:       "битое сообщение",
			body:       "invalid json",
			setupMocks: func(*MockRepository, *MockMailer) {},
			wantErr:    rabbitmq.ErrMalformed,
		},
		{
			name:       "без идентификатора",
			body:       `{"kind":"waste"}`,
			setupMocks: func(*MockRepository, *MockMailer) {},
			wantErr:    rabbitmq.ErrMalformed,
		},
		{
			name: "получатель удалён",
			body: specialEvent,
			setupMocks: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", mock.Anything, "u-1").Return(nil, storage.ErrNotFound).Once()
			},
		},
		{
			name: "нет почты",
			body: specialEvent,
			setupMocks: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", mock.Anything, "u-1").Return(&models.User{ID: "u-1"}, nil).Once()
			},
		},
		{
			name: "ошибка базы",
			body: specialEvent,
			setupMocks: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", mock.Anything, "u-1").Return(nil, errors.New("db down")).Once()
			},
			wantAnyErr: true,
		},
		{
			name: "почтовый сервер недоступен",
			body: specialEvent,
			setupMocks: func(r *MockRepository, m *MockMailer) {
				r.On("GetUser", mock.Anything, "u-1").Return(&models.User{ID: "u-1", Email: "nimal@example.com"}, nil).Once()
				m.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			mailer := new(MockMailer)
			tt.setupMocks(repo, mailer)

			err := New(repo, mailer, newNoopLogger()).HandleStatus(context.Background(), []byte(tt.body))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, rabbitmq.ErrMalformed)
			default:
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			mailer.AssertExpectations(t)
		})
	}
}

func TestService_HandleStatus_WithoutMailer(t *testing.T) {
	repo := new(MockRepository)
	err := New(repo, nil, newNoopLogger()).HandleStatus(context.Background(), []byte(specialEvent))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}
