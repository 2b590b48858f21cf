package geometry

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"plate-rectification/internal/core"
)

const (
	// CollinearityEps is the relative triangle area below which three corners
	// count as collinear.
	CollinearityEps = 1e-3

	// maxCondition rejects numerically singular systems.
	maxCondition = 1e12
)

// Homography is a 3x3 projective transform in row-major order.
type Homography [3][3]float64

// Apply maps p through the homography.
func (h Homography) Apply(p core.Point2D) core.Point2D {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	return core.Point2D{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", core.ErrDegenerateHomography, err)
	}
	return fromDense(&inv), nil
}

// Mat returns the homography as a 3x3 CV64F Mat owned by the caller.
func (h Homography) Mat() gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, h[r][c])
		}
	}
	return m
}

func (h Homography) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
}

func fromDense(m mat.Matrix) Homography {
	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r][c] = m.At(r, c)
		}
	}
	if s := h[2][2]; s != 0 && !math.IsNaN(s) {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h[r][c] /= s
			}
		}
	}
	return h
}

// ComputeHomography solves the exact four-point correspondence src[i] ->
// dst[i] with a normalized direct linear transform (h33 fixed to 1).
// Collinear or numerically singular input fails with
// core.ErrDegenerateHomography.
func ComputeHomography(src, dst core.Quad) (Homography, error) {
	if src.Collinear(CollinearityEps) {
		return Homography{}, fmt.Errorf("%w: source corners %v are collinear", core.ErrDegenerateHomography, src)
	}
	if dst.Collinear(CollinearityEps) {
		return Homography{}, fmt.Errorf("%w: destination corners %v are collinear", core.ErrDegenerateHomography, dst)
	}

	srcT, srcN := normalize(src)
	dstT, dstN := normalize(dst)

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCondition {
		return Homography{}, fmt.Errorf("%w: ill-conditioned system (cond %.3g)", core.ErrDegenerateHomography, cond)
	}

	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", core.ErrDegenerateHomography, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		sol.AtVec(6), sol.AtVec(7), 1,
	})

	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", core.ErrDegenerateHomography, err)
	}

	var tmp, full mat.Dense
	tmp.Mul(hn, srcT)
	full.Mul(&dstInv, &tmp)

	h := fromDense(&full)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if math.IsNaN(h[r][c]) || math.IsInf(h[r][c], 0) {
				return Homography{}, fmt.Errorf("%w: non-finite solution", core.ErrDegenerateHomography)
			}
		}
	}
	return h, nil
}

// normalize translates the points to their centroid and scales them to a mean
// distance of sqrt(2), returning the similarity transform and the result.
func normalize(q core.Quad) (*mat.Dense, core.Quad) {
	cx, cy := 0.0, 0.0
	for _, p := range q {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	dist := 0.0
	for _, p := range q {
		dist += math.Hypot(p.X-cx, p.Y-cy)
	}
	dist /= 4

	s := 1.0
	if dist > 0 {
		s = math.Sqrt2 / dist
	}

	var out core.Quad
	for i, p := range q {
		out[i] = core.Point2D{X: (p.X - cx) * s, Y: (p.Y - cy) * s}
	}
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	})
	return t, out
}
