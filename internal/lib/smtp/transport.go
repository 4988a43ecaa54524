package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Transport отправляет письма от имени SMTP-пользователя.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// mailConn часть *smtp.Client, нужная для передачи одного письма.
type mailConn interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// From адрес отправителя.
func (t *Transport) From() string {
	return t.cfg.SMTPUser
}

// Send открывает соединение, передаёт письмо и закрывает соединение.
func (t *Transport) Send(ctx context.Context, msg Message) error {
	const op = "smtp.Send"
	if len(msg.To) == 0 {
		return fmt.Errorf("%s: no recipients", op)
	}
	conn, err := t.connect(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := deliver(conn, t.From(), msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	t.log.Info("email sent successfully", slog.Any("to", msg.To))
	return nil
}

// connect устанавливает соединение с SMTP сервером, включает STARTTLS и
// проходит аутентификацию.
func (t *Transport) connect(ctx context.Context) (mailConn, error) {
	const op = "smtp.Connect"
	log := t.log.With(sl.Op(op), slog.String("host", t.cfg.SMTPHost))

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort))
	if err != nil {
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: new client: %w", op, err)
	}
	fail := func(step string, err error) (mailConn, error) {
		if closeErr := client.Close(); closeErr != nil {
			log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %s: %w", op, step, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fail("starttls", errors.New("not supported by server"))
	}
	if err = client.StartTLS(&tls.Config{ServerName: t.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
		return fail("starttls", err)
	}
	if err = client.Auth(smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)); err != nil {
		return fail("auth", err)
	}
	return client, nil
}

func deliver(c mailConn, from string, msg Message) error {
	defer c.Close()

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, addr := range msg.To {
		if err := c.Rcpt(addr); err != nil {
			return fmt.Errorf("rcpt to %s: %w", addr, err)
		}
	}
	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err = wc.Write(msg.Bytes(from)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	if err = c.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}
