package preprocess

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

func TestPreprocessResizesToWorkingSize(t *testing.T) {
	p, err := New(nil, DefaultWorkingSize, nil)
	require.NoError(t, err)

	raw := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 75, 150, gocv.MatTypeCV8UC3)
	defer raw.Close()

	working, err := p.Preprocess(raw)
	require.NoError(t, err)
	defer working.Close()

	assert.Equal(t, 640, working.Cols())
	assert.Equal(t, 640, working.Rows())
	assert.Equal(t, 3, working.Channels())
	assert.Equal(t, 150, raw.Cols())
}

func TestPreprocessRejectsInvalidInput(t *testing.T) {
	p, err := New(nil, DefaultWorkingSize, nil)
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = p.Preprocess(empty)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	gray := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err = p.Preprocess(gray)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestPreprocessChecksUpscalerContract(t *testing.T) {
	raw := gocv.NewMatWithSize(20, 40, gocv.MatTypeCV8UC3)
	defer raw.Close()

	cases := map[string]Upscaler{
		"failure": UpscalerFunc(func(gocv.Mat) (gocv.Mat, error) {
			return gocv.NewMat(), errors.New("model unavailable")
		}),
		"empty": UpscalerFunc(func(gocv.Mat) (gocv.Mat, error) {
			return gocv.NewMat(), nil
		}),
		"shrinks": UpscalerFunc(func(src gocv.Mat) (gocv.Mat, error) {
			return gocv.NewMatWithSize(10, 20, gocv.MatTypeCV8UC3), nil
		}),
		"drops channels": UpscalerFunc(func(src gocv.Mat) (gocv.Mat, error) {
			return gocv.NewMatWithSize(40, 80, gocv.MatTypeCV8UC1), nil
		}),
	}
	for name, up := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := New(up, DefaultWorkingSize, nil)
			require.NoError(t, err)
			_, err = p.Preprocess(raw)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestResizeUpscaler(t *testing.T) {
	src := gocv.NewMatWithSize(10, 30, gocv.MatTypeCV8UC3)
	defer src.Close()

	out, err := NewResizeUpscaler(2).Upscale(src)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 60, out.Cols())
	assert.Equal(t, 20, out.Rows())

	same, err := NewResizeUpscaler(1).Upscale(src)
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, 30, same.Cols())

	_, err = NewResizeUpscaler(0.5).Upscale(src)
	assert.Error(t, err)
}

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(nil, image.Pt(0, 640), nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
