// Package wizard реализует пошаговый мастер: линейный список шагов, номер
// текущего шага в диапазоне [1, N] и предикаты, разрешающие переход вперёд.
//
// Один и тот же Controller используется для маршрута сбора, оформления
// специального вывоза и редактирования заявки; отличаются только список
// шагов, предикаты и политика завершения.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBlocked возвращается, когда предикат текущего шага не выполнен.
	ErrBlocked = errors.New("current step is not complete")
	// ErrSubmitting возвращается при повторном вызове Next во время отправки.
	ErrSubmitting = errors.New("submission already in progress")
)

// Step описывает один шаг мастера.
type Step struct {
	ID   string
	Name string
}

// Predicate решает, можно ли покинуть шаг при данном состоянии формы.
type Predicate[S any] func(state S) bool

// SubmitFunc выполняет отправку данных на завершающем шаге.
type SubmitFunc[S any] func(ctx context.Context, state S) error

// CompletionPolicy определяет, куда переходит мастер после успешной отправки.
type CompletionPolicy int

const (
	// ResetToStart возвращает мастер на первый шаг; отправка происходит
	// при вызове Next на последнем шаге.
	ResetToStart CompletionPolicy = iota
	// AdvanceToConfirmation переводит мастер на последний шаг подтверждения;
	// отправка происходит при вызове Next на предпоследнем шаге.
	AdvanceToConfirmation
)

func (p CompletionPolicy) String() string {
	switch p {
	case ResetToStart:
		return "reset-to-start"
	case AdvanceToConfirmation:
		return "advance-to-confirmation"
	}
	return fmt.Sprintf("CompletionPolicy(%d)", int(p))
}

// Config параметры экземпляра мастера.
type Config[S any] struct {
	Steps      []Step
	CanAdvance map[string]Predicate[S] // по Step.ID; отсутствие предиката разрешает переход
	Submit     SubmitFunc[S]
	Policy     CompletionPolicy
}

// Controller хранит номер текущего шага. Безопасен для конкурентного
// использования; отправка выполняется без удержания блокировки.
type Controller[S any] struct {
	mu         sync.Mutex
	steps      []Step
	canAdvance map[string]Predicate[S]
	submit     SubmitFunc[S]
	policy     CompletionPolicy
	current    int
	floor      int
	submitting bool
}

// New создаёт мастер, стоящий на первом шаге.
func New[S any](cfg Config[S]) (*Controller[S], error) {
	const op = "wizard.New"
	if len(cfg.Steps) == 0 {
		return nil, fmt.Errorf("%s: no steps", op)
	}
	if cfg.Policy == AdvanceToConfirmation && len(cfg.Steps) < 2 {
		return nil, fmt.Errorf("%s: confirmation policy needs at least two steps", op)
	}
	seen := make(map[string]struct{}, len(cfg.Steps))
	for _, s := range cfg.Steps {
		if _, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("%s: duplicate step id %q", op, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	for id := range cfg.CanAdvance {
		if _, ok := seen[id]; !ok {
			return nil, fmt.Errorf("%s: predicate for unknown step %q", op, id)
		}
	}
	return &Controller[S]{
		steps:      cfg.Steps,
		canAdvance: cfg.CanAdvance,
		submit:     cfg.Submit,
		policy:     cfg.Policy,
		current:    1,
		floor:      1,
	}, nil
}

// Len возвращает количество шагов N.
func (c *Controller[S]) Len() int {
	return len(c.steps)
}

// Current возвращает номер текущего шага, начиная с 1.
func (c *Controller[S]) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Step возвращает описание текущего шага.
func (c *Controller[S]) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.current-1]
}

// Steps возвращает копию списка шагов.
func (c *Controller[S]) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Policy возвращает политику завершения мастера.
func (c *Controller[S]) Policy() CompletionPolicy {
	return c.policy
}

// Floor возвращает минимальный шаг, до которого разрешён Prev.
func (c *Controller[S]) Floor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.floor
}

// SetFloor запрещает возврат ниже шага n. Значение ограничивается [1, N].
func (c *Controller[S]) SetFloor(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.floor = clamp(n, 1, len(c.steps))
}

// CanAdvance вычисляет предикат текущего шага.
func (c *Controller[S]) CanAdvance(state S) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowed(state)
}

func (c *Controller[S]) allowed(state S) bool {
	pred, ok := c.canAdvance[c.steps[c.current-1].ID]
	return !ok || pred(state)
}

// submitStep возвращает номер шага, на котором Next вызывает отправку.
func (c *Controller[S]) submitStep() int {
	if c.submit == nil {
		return 0
	}
	if c.policy == AdvanceToConfirmation {
		return len(c.steps) - 1
	}
	return len(c.steps)
}

// Next переходит на следующий шаг. Если предикат не выполнен, шаг не
// меняется и возвращается ErrBlocked. На шаге отправки вызывается Submit:
// при ошибке шаг не меняется и ошибка возвращается без повтора, при успехе
// применяется политика завершения. На последнем шаге без отправки Next
// ничего не делает.
func (c *Controller[S]) Next(ctx context.Context, state S) error {
	at, err := c.advance(state)
	if err != nil || at == 0 {
		return err
	}

	finished := false
	defer func() {
		if !finished {
			c.mu.Lock()
			c.submitting = false
			c.mu.Unlock()
		}
	}()
	err = c.submit(ctx, state)
	finished = true
	return c.complete(at, err)
}

// advance проверяет предикат и переходит вперёд. Возвращает номер шага,
// если нужно выполнить отправку, иначе 0.
func (c *Controller[S]) advance(state S) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return 0, ErrSubmitting
	}
	if !c.allowed(state) {
		return 0, ErrBlocked
	}
	if c.current != c.submitStep() {
		c.current = clamp(c.current+1, 1, len(c.steps))
		return 0, nil
	}
	c.submitting = true
	return c.current, nil
}

func (c *Controller[S]) complete(at int, err error) error {
	const op = "wizard.Next"
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if c.current != at {
		return nil
	}
	switch c.policy {
	case AdvanceToConfirmation:
		c.current = len(c.steps)
	default:
		c.current = 1
		c.floor = 1
	}
	return nil
}

// Prev возвращается на предыдущий шаг, но не ниже Floor. Возвращает true,
// если шаг изменился.
func (c *Controller[S]) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting || c.current <= c.floor {
		return false
	}
	c.current--
	return true
}

// Reset возвращает мастер на первый шаг и снимает ограничение Floor.
func (c *Controller[S]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 1
	c.floor = 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
