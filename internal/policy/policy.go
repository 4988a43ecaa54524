// Package policy определяет, какие действия доступны над заявками и вывозами.
// Решение зависит только от статуса и разницы между текущим временем и временем
// вывоза. Сервисы проверяют те же правила перед изменением данных.
package policy

import (
	"errors"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

const (
	// RescheduleWindow минимальный запас времени до вывоза для переноса.
	RescheduleWindow = 24 * time.Hour
	// CancelWindow минимальный запас времени до вывоза для отмены.
	CancelWindow = 8 * time.Hour
)

var (
	ErrNotEditable      = errors.New("submission is not pending")
	ErrRescheduleWindow = errors.New("reschedule is allowed only more than 24 hours before collection")
	ErrCancelWindow     = errors.New("cancel is allowed only more than 8 hours before collection")
	ErrNotScheduled     = errors.New("collection is not scheduled")
)

// Actions набор доступных действий для отображения в интерфейсе.
type Actions struct {
	Edit       bool `json:"edit"`
	Delete     bool `json:"delete"`
	Reschedule bool `json:"reschedule"`
	Cancel     bool `json:"cancel"`
	Pay        bool `json:"pay"`
}

// CanEdit возвращает true только для заявок в статусе Pending.
func CanEdit(sub models.WasteSubmission) bool {
	return sub.Status == models.WastePending
}

// CanReschedule возвращает true, если до вывоза осталось больше 24 часов.
func CanReschedule(c models.SpecialCollection, now time.Time) bool {
	return c.Status == models.SpecialScheduled && c.ScheduledAt.Sub(now) > RescheduleWindow
}

// CanCancel возвращает true, если до вывоза осталось больше 8 часов.
func CanCancel(c models.SpecialCollection, now time.Time) bool {
	return c.Status == models.SpecialScheduled && c.ScheduledAt.Sub(now) > CancelWindow
}

// SubmissionActions возвращает действия над заявкой на вторсырьё.
// Удаление доступно всегда, редактирование только в статусе Pending.
func SubmissionActions(sub models.WasteSubmission) Actions {
	return Actions{
		Edit:   CanEdit(sub),
		Delete: true,
	}
}

// CollectionActions возвращает действия над специальным вывозом.
func CollectionActions(c models.SpecialCollection, now time.Time) Actions {
	return Actions{
		Reschedule: CanReschedule(c, now),
		Cancel:     CanCancel(c, now),
		Pay:        c.Status == models.SpecialScheduled && c.PaymentStatus != models.PaymentPaid,
	}
}

// CheckEdit возвращает ErrNotEditable, если заявку нельзя изменять.
func CheckEdit(sub models.WasteSubmission) error {
	if !CanEdit(sub) {
		return ErrNotEditable
	}
	return nil
}

// CheckReschedule проверяет возможность переноса вывоза.
func CheckReschedule(c models.SpecialCollection, now time.Time) error {
	if c.Status != models.SpecialScheduled {
		return ErrNotScheduled
	}
	if !CanReschedule(c, now) {
		return ErrRescheduleWindow
	}
	return nil
}

// CheckCancel проверяет возможность отмены вывоза.
func CheckCancel(c models.SpecialCollection, now time.Time) error {
	if c.Status != models.SpecialScheduled {
		return ErrNotScheduled
	}
	if !CanCancel(c, now) {
		return ErrCancelWindow
	}
	return nil
}
