package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	data, err := PNG("5f0c7c4e-2c1b-4b8e-9b7a-3f1f2f9d1a11", 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestPNG_EmptyContent(t *testing.T) {
	_, err := PNG("", 128)
	assert.Error(t, err)
}
