// Package smtp отправка писем через SMTP со STARTTLS.
package smtp

import (
	"mime"
	"strings"
)

// Message письмо в кодировке UTF-8.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Bytes собирает письмо с заголовками. Тема кодируется по RFC 2047, строки
// тела переводятся в CRLF.
func (m Message) Bytes(from string) []byte {
	body := strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n")
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(m.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", m.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n"))
}
