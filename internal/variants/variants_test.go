package variants

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// expectedCount is the closed-form variant count for a configuration.
func expectedCount(steps Step, level int, vignetteFits bool) int {
	vig := b2i(steps.Has(StepVignette) && vignetteFits)
	n := b2i(steps.Has(StepGrayscale)) +
		b2i(steps.Has(StepCLAHE)) +
		b2i(steps.Has(StepGamma)) +
		b2i(steps.Has(StepDarkenGray)) +
		vig +
		b2i(steps.Has(StepCanny)) +
		b2i(steps.Has(StepLaplacian))
	if steps.Has(StepBilateral) {
		n += (1 + vig) * (1 + len(Ladder(level)))
	}
	return n
}

func workingImage(t *testing.T, size int) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 60, 80, 0), size, size, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, image.Rect(size/4, size/4, 3*size/4, 3*size/4), color.RGBA{R: 230, G: 230, B: 230, A: 255}, -1)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestNewConfigRejectsNoSteps(t *testing.T) {
	_, err := NewConfig(WithSteps(0))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(WithPowerLevel(4))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewConfig(WithSteps(1 << 12))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	p := DefaultParams()
	p.CannyHigh = p.CannyLow - 1
	_, err = NewConfig(WithParams(p))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	cfg := DefaultConfig()
	assert.Equal(t, AllSteps, cfg.Steps())
	assert.Equal(t, MaxPowerLevel, cfg.PowerLevel())
}

func TestParseSteps(t *testing.T) {
	steps, err := ParseSteps("grayscale, CLAHE ,canny")
	require.NoError(t, err)
	assert.Equal(t, StepGrayscale|StepCLAHE|StepCanny, steps)
	assert.Equal(t, "grayscale,clahe,canny", steps.String())

	all, err := ParseSteps("all")
	require.NoError(t, err)
	assert.Equal(t, AllSteps, all)

	_, err = ParseSteps("grayscale,sharpen")
	assert.ErrorIs(t, err, core.ErrConfiguration)

	assert.Equal(t, "none", Step(0).String())
}

func TestLadders(t *testing.T) {
	sizes := []int{1, 3, 7, 13}
	for level, n := range sizes {
		ladder := Ladder(level)
		require.Len(t, ladder, n)
		for i := 1; i < len(ladder); i++ {
			assert.Less(t, ladder[i-1], ladder[i])
		}
	}
	assert.Nil(t, Ladder(-1))
	assert.Nil(t, Ladder(4))

	l := Ladder(0)
	l[0] = 1
	assert.Equal(t, 100, Ladder(0)[0])
}

func TestCountMatrix(t *testing.T) {
	size := image.Pt(640, 640)
	for steps := Step(1); steps <= AllSteps; steps++ {
		for level := 0; level <= MaxPowerLevel; level++ {
			cfg, err := NewConfig(WithSteps(steps), WithPowerLevel(level))
			require.NoError(t, err)
			assert.Equal(t, expectedCount(steps, level, true), Count(cfg, size), "steps=%s level=%d", steps, level)
			assert.Len(t, Labels(cfg, size), Count(cfg, size))
		}
	}
}

func TestCountSmallImageSkipsVignette(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, expectedCount(AllSteps, MaxPowerLevel, false), Count(cfg, image.Pt(48, 48)))
	assert.NotContains(t, Labels(cfg, image.Pt(48, 48)), "vignette")
}

func TestGrayscaleOnlyYieldsOneVariant(t *testing.T) {
	cfg, err := NewConfig(WithSteps(StepGrayscale))
	require.NoError(t, err)

	vs, err := NewGenerator(cfg, nil).Generate(workingImage(t, 96))
	require.NoError(t, err)
	defer closeAll(vs)

	require.Len(t, vs, 1)
	assert.Equal(t, "gray", vs[0].Label)
}

func TestAllStepsPowerLevelThree(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 35, Count(cfg, image.Pt(640, 640)))

	labels := Labels(cfg, image.Pt(640, 640))
	assert.Equal(t, []string{"gray", "clahe", "gamma", "darkened_gray", "vignette", "smoothed", "smoothed_vignette"}, labels[:7])
	assert.Equal(t, "smoothed_thresh_20", labels[7])
	assert.Equal(t, "smoothed_vignette_thresh_210", labels[32])
	assert.Equal(t, []string{"canny", "laplacian"}, labels[33:])
}

func TestGenerateMatchesCount(t *testing.T) {
	working := workingImage(t, 96)
	size := image.Pt(96, 96)

	for steps := Step(1); steps <= AllSteps; steps++ {
		cfg, err := NewConfig(WithSteps(steps), WithPowerLevel(1))
		require.NoError(t, err)

		vs, err := NewGenerator(cfg, nil).Generate(working)
		require.NoError(t, err)

		labels := Labels(cfg, size)
		require.Len(t, vs, len(labels), "steps=%s", steps)
		for i, v := range vs {
			assert.Equal(t, i, v.Index)
			assert.Equal(t, labels[i], v.Label)
			assert.Equal(t, 1, v.Image.Channels(), v.Label)
			assert.Equal(t, 96, v.Image.Rows(), v.Label)
			assert.Equal(t, 96, v.Image.Cols(), v.Label)
		}
		closeAll(vs)
	}
}

func TestEachStopsEarly(t *testing.T) {
	working := workingImage(t, 96)
	calls := 0
	err := NewGenerator(DefaultConfig(), nil).Each(working, func(v Variant) bool {
		defer v.Close()
		calls++
		return calls < 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGenerateLeavesInputUntouched(t *testing.T) {
	working := workingImage(t, 96)
	before := working.Clone()
	defer before.Close()

	vs, err := NewGenerator(DefaultConfig(), nil).Generate(working)
	require.NoError(t, err)
	closeAll(vs)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(working, before, &diff)
	gray := gocv.NewMat()
	defer gray.Close()
	require.NoError(t, gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray))
	assert.Zero(t, gocv.CountNonZero(gray))
}

func TestGenerateRejectsGrayInput(t *testing.T) {
	gray := gocv.NewMatWithSize(96, 96, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err := NewGenerator(DefaultConfig(), nil).Generate(gray)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func closeAll(vs []Variant) {
	for i := range vs {
		vs[i].Close()
	}
}
