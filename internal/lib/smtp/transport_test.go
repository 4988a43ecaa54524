package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/config"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockConn) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockConn) Quit() error            { return m.Called().Error(0) }
func (m *MockConn) Close() error           { return m.Called().Error(0) }

func (m *MockConn) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferWriter struct {
	strings.Builder
	closed bool
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessage_Bytes(t *testing.T) {
	msg := Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Статус заявки №7",
		Body:    "строка 1\nстрока 2\n",
	}
	raw := string(msg.Bytes("noreply@waste.lk"))

	assert.True(t, strings.HasPrefix(raw, "From: noreply@waste.lk\r\n"))
	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.NotContains(t, raw, "Subject: Статус")
	assert.Contains(t, raw, "\r\n\r\nстрока 1\r\nстрока 2\r\n")
}

func TestDeliver(t *testing.T) {
	msg := Message{To: []string{"a@example.com", "b@example.com"}, Subject: "s", Body: "b"}
	tests := []struct {
		name        string
		setupMocks  func(*MockConn, *bufferWriter)
		expectedErr string
	}{
		{
			name: "письмо доставлено",
			setupMocks: func(c *MockConn, w *bufferWriter) {
				c.On("Mail", "noreply@waste.lk").Return(nil).Once()
				c.On("Rcpt", "a@example.com").Return(nil).Once()
				c.On("Rcpt", "b@example.com").Return(nil).Once()
				c.On("Data").Return(w, nil).Once()
				c.On("Quit").Return(nil).Once()
				c.On("Close").Return(nil).Once()
			},
		},
		{
			name: "получатель отклонён",
			setupMocks: func(c *MockConn, _ *bufferWriter) {
				c.On("Mail", "noreply@waste.lk").Return(nil).Once()
				c.On("Rcpt", "a@example.com").Return(errors.New("550 no such user")).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedErr: "rcpt to a@example.com",
		},
		{
			name: "сервер не принял данные",
			setupMocks: func(c *MockConn, _ *bufferWriter) {
				c.On("Mail", "noreply@waste.lk").Return(nil).Once()
				c.On("Rcpt", mock.Anything).Return(nil).Twice()
				c.On("Data").Return(nil, errors.New("451")).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedErr: "data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := new(MockConn)
			w := &bufferWriter{}
			tt.setupMocks(conn, w)

			err := deliver(conn, "noreply@waste.lk", msg)

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.True(t, w.closed)
				assert.Contains(t, w.String(), "To: a@example.com, b@example.com")
			}
			conn.AssertExpectations(t)
		})
	}
}

func TestTransport_From(t *testing.T) {
	tr := NewTransport(config.SMTP{SMTPUser: "noreply@waste.lk"}, newNoopLogger())
	assert.Equal(t, "noreply@waste.lk", tr.From())
}

func TestTransport_Send(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	tr := NewTransport(config.SMTP{SMTPHost: host, SMTPPort: port}, newNoopLogger())

	tests := []struct {
		name        string
		msg         Message
		expectedErr string
	}{
		{
			name:        "без получателей",
			msg:         Message{Subject: "s"},
			expectedErr: "smtp.Send: no recipients",
		},
		{
			name:        "сервер недоступен",
			msg:         Message{To: []string{"a@example.com"}},
			expectedErr: "smtp.Connect: dial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tr.Send(context.Background(), tt.msg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}
