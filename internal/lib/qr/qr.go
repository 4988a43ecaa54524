// Package qr генерирует PNG с QR-кодом.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize сторона изображения в пикселях
const DefaultSize = 256

// PNG кодирует content в QR-код со средним уровнем коррекции ошибок.
func PNG(content string, size int) ([]byte, error) {
	const op = "qr.PNG"
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}
