package wizard

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/waste-collection/internal/lib/validate"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

var check = validate.New()

// Идентификаторы шагов маршрута сбора.
const (
	StepRoute    = "route"
	StepScan     = "scan"
	StepVerified = "verified"
	StepWeight   = "weight"
	StepConfirm  = "confirm"
)

// CollectionState данные формы маршрута сбора.
type CollectionState struct {
	RouteStarted bool
	Code         string
	Account      *models.WasteAccount
	Weight       string
}

// NewCollectionRoute создаёт мастер подтверждения сбора. После успешной
// отправки мастер возвращается к началу маршрута.
func NewCollectionRoute(submit SubmitFunc[CollectionState]) (*Controller[CollectionState], error) {
	return New(Config[CollectionState]{
		Steps: []Step{
			{ID: StepRoute, Name: "Start route"},
			{ID: StepScan, Name: "Scan QR code"},
			{ID: StepVerified, Name: "Account verified"},
			{ID: StepWeight, Name: "Enter weight"},
			{ID: StepConfirm, Name: "Confirm collection"},
		},
		CanAdvance: map[string]Predicate[CollectionState]{
			StepRoute:  func(s CollectionState) bool { return s.RouteStarted },
			StepScan:   func(s CollectionState) bool { return s.Account != nil },
			StepWeight: func(s CollectionState) bool { return ValidWeight(s.Weight) },
			StepConfirm: func(s CollectionState) bool {
				return s.Account != nil && ValidWeight(s.Weight)
			},
		},
		Submit: submit,
		Policy: ResetToStart,
	})
}

// BeginRoute покидает первый шаг и запрещает возврат на него, пока
// маршрут не завершён.
func BeginRoute(ctx context.Context, c *Controller[CollectionState], state CollectionState) error {
	if err := c.Next(ctx, state); err != nil {
		return err
	}
	c.SetFloor(2)
	return nil
}

// Идентификаторы шагов оформления специального вывоза.
const (
	StepAddress      = "address"
	StepDetails      = "details"
	StepSchedule     = "schedule"
	StepReview       = "review"
	StepConfirmation = "confirmation"
)

// SpecialState данные формы специального вывоза.
type SpecialState struct {
	Address  string
	Category models.SpecialCategory
	Quantity int
	Date     string
	TimeSlot string
}

// NewSpecialScheduling создаёт мастер оформления специального вывоза.
// После успешной отправки показывается шаг подтверждения.
func NewSpecialScheduling(submit SubmitFunc[SpecialState]) (*Controller[SpecialState], error) {
	return New(Config[SpecialState]{
		Steps: []Step{
			{ID: StepAddress, Name: "Pickup address"},
			{ID: StepDetails, Name: "Waste details"},
			{ID: StepSchedule, Name: "Date and time"},
			{ID: StepReview, Name: "Review and pay"},
			{ID: StepConfirmation, Name: "Confirmation"},
		},
		CanAdvance: map[string]Predicate[SpecialState]{
			StepAddress: func(s SpecialState) bool {
				return check.Var(strings.TrimSpace(s.Address), "required") == nil
			},
			StepDetails: func(s SpecialState) bool {
				return s.Category != "" && s.Quantity > 0
			},
			StepSchedule: func(s SpecialState) bool {
				return check.Var(s.Date, "required,datetime=2006-01-02") == nil &&
					check.Var(s.TimeSlot, "required,datetime=15:04") == nil
			},
		},
		Submit: submit,
		Policy: AdvanceToConfirmation,
	})
}

// Идентификаторы шагов редактирования заявки.
const (
	StepCategory = "category"
	StepItems    = "items"
	StepMethod   = "method"
	StepDone     = "done"
)

// EditState данные формы редактирования заявки на вторсырьё.
type EditState struct {
	Category models.WasteCategory
	Items    []string
	Method   models.SubmissionMethod
	Weight   string
}

// NewSubmissionEdit создаёт мастер редактирования заявки.
func NewSubmissionEdit(submit SubmitFunc[EditState]) (*Controller[EditState], error) {
	return New(Config[EditState]{
		Steps: []Step{
			{ID: StepCategory, Name: "Category"},
			{ID: StepItems, Name: "Items"},
			{ID: StepMethod, Name: "Submission method"},
			{ID: StepWeight, Name: "Weight"},
			{ID: StepReview, Name: "Review"},
			{ID: StepDone, Name: "Saved"},
		},
		CanAdvance: map[string]Predicate[EditState]{
			StepCategory: func(s EditState) bool {
				return check.Var(string(s.Category), "required,oneof=plastic paper glass metal electronics organic") == nil
			},
			StepItems: func(s EditState) bool {
				for _, it := range s.Items {
					if strings.TrimSpace(it) != "" {
						return true
					}
				}
				return false
			},
			StepMethod: func(s EditState) bool {
				return s.Method == models.MethodPickup || s.Method == models.MethodDropOff
			},
			StepWeight: func(s EditState) bool { return ValidWeight(s.Weight) },
		},
		Submit: submit,
		Policy: AdvanceToConfirmation,
	})
}

// ValidWeight проверяет, что вес введён и положителен.
func ValidWeight(raw string) bool {
	w, err := ParseWeight(raw)
	return err == nil && w > 0 && !math.IsInf(w, 1)
}

// ParseWeight разбирает введённый вес, допуская запятую как разделитель.
func ParseWeight(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	return strconv.ParseFloat(raw, 64)
}
