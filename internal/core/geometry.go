package core

import (
	"fmt"
	"image"
	"math"
)

// Point2D is a real-valued image coordinate.
type Point2D struct {
	X, Y float64
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// PointFrom converts an integer pixel position.
func PointFrom(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Quad is a four-point polygon. Point order is arbitrary until the quad has
// been passed through the corner orderer, after which it is
// [top-left, top-right, bottom-right, bottom-left].
type Quad [4]Point2D

// QuadFromPoints builds a Quad from exactly four points.
func QuadFromPoints(pts []image.Point) (Quad, error) {
	var q Quad
	if len(pts) != 4 {
		return q, fmt.Errorf("quad needs 4 points, got %d", len(pts))
	}
	for i, p := range pts {
		q[i] = PointFrom(p)
	}
	return q, nil
}

// Area returns the enclosed area (shoelace formula, absolute value).
func (q Quad) Area() float64 {
	sum := 0.0
	for i := range q {
		j := (i + 1) % len(q)
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// Collinear reports whether any three of the four points are collinear within
// eps, measured as twice the triangle area relative to the squared extent of
// the quad.
func (q Quad) Collinear(eps float64) bool {
	scale := q.extent()
	if scale == 0 {
		return true
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(cross(q[i], q[j], q[k])) <= eps*scale*scale {
					return true
				}
			}
		}
	}
	return false
}

// Contains reports whether p is one of the quad's points.
func (q Quad) Contains(p Point2D) bool {
	for _, c := range q {
		if c == p {
			return true
		}
	}
	return false
}

// ImagePoints rounds the quad to integer pixel positions.
func (q Quad) ImagePoints() []image.Point {
	pts := make([]image.Point, len(q))
	for i, p := range q {
		pts[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	return pts
}

func (q Quad) extent() float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return math.Max(maxX-minX, maxY-minY)
}

func cross(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
