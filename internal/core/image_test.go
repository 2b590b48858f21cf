package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestValidateImage(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	assert.ErrorIs(t, ValidateImage(empty), ErrInvalidInput)

	gray := gocv.NewMatWithSize(10, 20, gocv.MatTypeCV8UC1)
	defer gray.Close()
	assert.NoError(t, ValidateImage(gray))
	assert.ErrorIs(t, ValidateColorImage(gray), ErrInvalidInput)

	rgba := gocv.NewMatWithSize(10, 20, gocv.MatTypeCV8UC4)
	defer rgba.Close()
	assert.ErrorIs(t, ValidateImage(rgba), ErrInvalidInput)

	color := gocv.NewMatWithSize(10, 20, gocv.MatTypeCV8UC3)
	defer color.Close()
	assert.NoError(t, ValidateColorImage(color))
	assert.Equal(t, "20x10x3", MetadataOf(color).String())
}

func TestEnsureGrayscale(t *testing.T) {
	color := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer color.Close()

	gray, err := EnsureGrayscale(color)
	require.NoError(t, err)
	defer gray.Close()
	assert.Equal(t, 1, gray.Channels())

	again, err := EnsureGrayscale(gray)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 1, again.Channels())
	assert.Equal(t, 8, again.Rows())
}
