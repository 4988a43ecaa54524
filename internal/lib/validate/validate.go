// Package validate общий экземпляр go-playground/validator с правилами,
// которых нет в v9.
package validate

import (
	"time"

	"github.com/go-playground/validator"
)

// New создаёт валидатор с тегом datetime=<layout>: строка должна
// разбираться time.Parse по указанному шаблону.
func New() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("datetime", isDateTime); err != nil {
		panic("validate: register datetime: " + err.Error())
	}
	return v
}

func isDateTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(fl.Param(), fl.Field().String())
	return err == nil
}
