package geometry

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

func TestComputeHomographyMapsCorners(t *testing.T) {
	src := core.Quad{core.Pt(112, 95), core.Pt(508, 140), core.Pt(495, 330), core.Pt(98, 290)}
	dst := DestinationQuad(DefaultOutputSize)

	h, err := ComputeHomography(src, dst)
	require.NoError(t, err)
	for i := range src {
		got := h.Apply(src[i])
		assert.InDelta(t, dst[i].X, got.X, 1e-6, "corner %d", i)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6, "corner %d", i)
	}

	inv, err := h.Inverse()
	require.NoError(t, err)
	back := inv.Apply(dst[2])
	assert.InDelta(t, src[2].X, back.X, 1e-6)
	assert.InDelta(t, src[2].Y, back.Y, 1e-6)
}

func TestComputeHomographyIdentity(t *testing.T) {
	q := DestinationQuad(image.Pt(200, 100))
	h, err := ComputeHomography(q, q)
	require.NoError(t, err)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.0
			if r == c {
				want = 1
			}
			assert.InDelta(t, want, h[r][c], 1e-9)
		}
	}
}

func TestComputeHomographyDegenerate(t *testing.T) {
	dst := DestinationQuad(DefaultOutputSize)
	cases := map[string]core.Quad{
		"three collinear": {core.Pt(0, 0), core.Pt(50, 50), core.Pt(100, 100), core.Pt(0, 100)},
		"all collinear":   {core.Pt(0, 0), core.Pt(10, 0), core.Pt(20, 0), core.Pt(30, 0)},
		"single point":    {core.Pt(5, 5), core.Pt(5, 5), core.Pt(5, 5), core.Pt(5, 5)},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeHomography(src, dst)
			assert.ErrorIs(t, err, core.ErrDegenerateHomography)
			assert.Equal(t, core.ReasonDegenerateGeometry, core.ReasonFor(err))
		})
	}
}

func TestRectifyAxisAlignedPlate(t *testing.T) {
	src := gocv.NewMatWithSize(300, 400, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(0, 0, 0, 0))
	gocv.Rectangle(&src, image.Rect(50, 50, 350, 200), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	ordered := core.Quad{core.Pt(50, 50), core.Pt(349, 50), core.Pt(349, 199), core.Pt(50, 199)}
	out, err := Rectify(src, ordered, DefaultOutputSize)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, DefaultOutputSize.X, out.Cols())
	assert.Equal(t, DefaultOutputSize.Y, out.Rows())
	assert.Equal(t, 3, out.Channels())

	mean := out.Mean()
	assert.Greater(t, mean.Val1, 240.0)
}

func TestRectifyDegenerateQuad(t *testing.T) {
	src := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer src.Close()

	line := core.Quad{core.Pt(0, 0), core.Pt(10, 10), core.Pt(20, 20), core.Pt(30, 30)}
	out, err := Rectify(src, line, DefaultOutputSize)
	defer out.Close()
	assert.ErrorIs(t, err, core.ErrDegenerateHomography)
	assert.True(t, out.Empty())
}

func TestNewRectifierRejectsBadSize(t *testing.T) {
	_, err := NewRectifier(image.Pt(0, 400), nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
