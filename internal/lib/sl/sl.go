// Package sl содержит помощники для структурированных полей slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. Для nil возвращает пустую строку.
//
//	log.Error("failed to save submission", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Op атрибут с именем операции, тот же op, что оборачивает ошибки.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
