// Package jwt выпускает и проверяет JWT токены сервиса.
package jwt

import (
	"time"
)

// Maker выпускает и разбирает токены
type Maker interface {
	GenerateToken(userID, username, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl с ключом и временем жизни токена
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TTL время жизни выпускаемых токенов
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
