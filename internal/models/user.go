// Package models содержит доменные структуры сервиса вывоза отходов:
// пользователей, заявки на вторсырьё, специальные вывозы, точки сбора
// и маркеры карты, а также DTO для приёма JSON-запросов.
package models

import "time"

// Role роль пользователя в системе.
type Role string

const (
	// RoleUser житель, оформляющий заявки.
	RoleUser Role = "USER"
	// RoleCollector сборщик, подтверждающий вывоз по QR-коду.
	RoleCollector Role = "COLLECTOR"
	// RoleAdmin администратор с доступом к сводной статистике.
	RoleAdmin Role = "ADMIN"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCollector, RoleAdmin:
		return true
	}
	return false
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegisterIdentityRequest первый шаг регистрации: данные о личности.
type RegisterIdentityRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,numeric"`
	Address string `json:"address"`
}

// RegisterCredentialsRequest второй шаг регистрации: учётные данные.
type RegisterCredentialsRequest struct {
	DraftID  string `json:"draft_id" validate:"required,uuid"`
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest данные для входа.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest изменяемые поля профиля.
type ProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty,numeric"`
	Address string `json:"address"`
}
