// Package lookup связывает поиск записи по QR-коду или введённому вручную
// идентификатору с мастером: успешный поиск заполняет форму и переводит
// мастер на шаг проверенной записи, неудача переводит поток в состояние
// ошибки, из которого можно повторить сканирование или ввести код вручную.
//
// Результаты не кэшируются: каждая попытка заново обращается к Resolver.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/magabrotheeeer/waste-collection/internal/wizard"
)

var (
	// ErrNotFound оборачивается реализациями Resolver, если записи нет.
	ErrNotFound = errors.New("record not found")
	// ErrEmptyCode возвращается без обращения к Resolver.
	ErrEmptyCode = errors.New("empty identifier")
)

// Resolver находит запись по идентификатору.
type Resolver[R any] interface {
	Resolve(ctx context.Context, code string) (R, error)
}

// ResolverFunc позволяет использовать функцию как Resolver.
type ResolverFunc[R any] func(ctx context.Context, code string) (R, error)

// Resolve вызывает f(ctx, code).
func (f ResolverFunc[R]) Resolve(ctx context.Context, code string) (R, error) {
	return f(ctx, code)
}

// Source откуда получен идентификатор.
type Source string

const (
	SourceCamera Source = "camera"
	SourceManual Source = "manual"
)

// Error описывает неудачный поиск.
type Error struct {
	Code   string
	Source Source
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lookup %q (%s): %v", e.Code, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound сообщает, что запись не существует (в отличие от сетевой ошибки).
func (e *Error) NotFound() bool { return errors.Is(e.Err, ErrNotFound) }

// Phase состояние потока поиска.
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseError
	PhaseManual
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseError:
		return "error"
	case PhaseManual:
		return "manual"
	case PhaseVerified:
		return "verified"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ApplyFunc переносит найденную запись в состояние формы.
type ApplyFunc[S, R any] func(state S, record R) S

// Flow поток поиска, привязанный к мастеру.
type Flow[S, R any] struct {
	mu       sync.Mutex
	resolver Resolver[R]
	wizard   *wizard.Controller[S]
	apply    ApplyFunc[S, R]
	phase    Phase
	lastErr  error
}

// NewFlow создаёт поток в состоянии сканирования.
func NewFlow[S, R any](resolver Resolver[R], w *wizard.Controller[S], apply ApplyFunc[S, R]) *Flow[S, R] {
	return &Flow[S, R]{
		resolver: resolver,
		wizard:   w,
		apply:    apply,
		phase:    PhaseScanning,
	}
}

// Phase возвращает текущее состояние потока.
func (f *Flow[S, R]) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Err возвращает ошибку последней неудачной попытки.
func (f *Flow[S, R]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// RetryScan возвращает поток к сканированию после ошибки.
func (f *Flow[S, R]) RetryScan() {
	f.set(PhaseScanning, nil)
}

// EnterManual переводит поток к ручному вводу кода.
func (f *Flow[S, R]) EnterManual() {
	f.set(PhaseManual, nil)
}

// Scan обрабатывает код, распознанный камерой.
func (f *Flow[S, R]) Scan(ctx context.Context, state S, code string) (S, error) {
	return f.lookup(ctx, state, code, SourceCamera)
}

// Manual обрабатывает код, введённый вручную. Использует тот же поиск.
func (f *Flow[S, R]) Manual(ctx context.Context, state S, code string) (S, error) {
	return f.lookup(ctx, state, code, SourceManual)
}

func (f *Flow[S, R]) lookup(ctx context.Context, state S, code string, src Source) (S, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return state, &Error{Code: code, Source: src, Err: ErrEmptyCode}
	}

	rec, err := f.resolver.Resolve(ctx, code)
	if err != nil {
		lerr := &Error{Code: code, Source: src, Err: err}
		f.set(PhaseError, lerr)
		return state, lerr
	}

	next := f.apply(state, rec)
	if err := f.wizard.Next(ctx, next); err != nil {
		lerr := &Error{Code: code, Source: src, Err: err}
		f.set(PhaseError, lerr)
		return state, lerr
	}
	f.set(PhaseVerified, nil)
	return next, nil
}

func (f *Flow[S, R]) set(p Phase, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = p
	f.lastErr = err
}
