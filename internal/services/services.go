// Package services общие ошибки и контракты прикладных сервисов.
package services

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrForbidden действие не разрешено текущему пользователю
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput входные данные корректны по формату, но недопустимы
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials неверный логин или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDraftExpired черновик регистрации не найден или истёк
	ErrDraftExpired = errors.New("registration draft expired")
	// ErrPaymentFailed шлюз отклонил платёж
	ErrPaymentFailed = errors.New("payment failed")
)

// Cache JSON-кеш
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Publisher публикует события в брокер
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Clock источник текущего времени
type Clock func() time.Time
