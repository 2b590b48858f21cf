package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/logging"
)

func TestIsSupportedImageFormat(t *testing.T) {
	assert.True(t, IsSupportedImageFormat("plate.JPG"))
	assert.True(t, IsSupportedImageFormat("/tmp/a.b/plate.png"))
	assert.False(t, IsSupportedImageFormat("plate.gif"))
	assert.False(t, IsSupportedImageFormat("/tmp/a.png/plate"))
}

func TestRectifiedName(t *testing.T) {
	assert.Equal(t, "plate_rectified.jpg", RectifiedName("/data/in/plate.png"))
	assert.Equal(t, "car.1_rectified.jpg", RectifiedName("car.1.jpeg"))
}

func TestSaveLoadAndList(t *testing.T) {
	dir := t.TempDir()
	loader := NewImageLoader(logging.Discard())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 200, 30, 0), 20, 40, gocv.MatTypeCV8UC3)
	defer img.Close()

	require.NoError(t, loader.SaveImage(img, filepath.Join(dir, "b.png")))
	require.NoError(t, loader.SaveImage(img, filepath.Join(dir, "nested", "c.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, loader.SaveImage(img, filepath.Join(dir, "a.png")))

	paths, err := loader.ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, paths)

	single, err := loader.ListImages(paths[0])
	require.NoError(t, err)
	assert.Equal(t, paths[:1], single)

	loaded, err := loader.LoadImage(paths[1])
	require.NoError(t, err)
	defer loaded.Close()
	assert.Equal(t, 40, loaded.Cols())
	assert.Equal(t, 3, loaded.Channels())
	assert.Equal(t, uint8(200), loaded.GetVecbAt(5, 5)[1])
}

func TestNewImageLoaderNilLogger(t *testing.T) {
	var loader *ImageLoader
	require.NotPanics(t, func() { loader = NewImageLoader(nil) })

	_, err := loader.LoadImage("plate.gif")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	loader := NewImageLoader(logging.Discard())

	_, err := loader.LoadImage("plate.gif")
	assert.Error(t, err)

	_, err = loader.LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	empty := gocv.NewMat()
	defer empty.Close()
	assert.Error(t, loader.SaveImage(empty, filepath.Join(t.TempDir(), "x.png")))
}
