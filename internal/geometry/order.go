// Package geometry orders plate corners and maps them onto the canonical
// output rectangle.
package geometry

import "plate-rectification/internal/core"

// OrderCorners returns q's points as [top-left, top-right, bottom-right,
// bottom-left]: the top-left corner has the smallest x+y and the bottom-right
// the largest; the top-right corner has the smallest y-x and the bottom-left
// the largest. Ties resolve to the earliest point in q.
//
// The heuristic assumes a convex, roughly axis-aligned quad. Self-intersecting
// or heavily skewed input can map two roles onto the same point.
func OrderCorners(q core.Quad) core.Quad {
	tl, br, tr, bl := 0, 0, 0, 0
	for i := 1; i < len(q); i++ {
		sum, diff := q[i].X+q[i].Y, q[i].Y-q[i].X
		if sum < q[tl].X+q[tl].Y {
			tl = i
		}
		if sum > q[br].X+q[br].Y {
			br = i
		}
		if diff < q[tr].Y-q[tr].X {
			tr = i
		}
		if diff > q[bl].Y-q[bl].X {
			bl = i
		}
	}
	return core.Quad{q[tl], q[tr], q[br], q[bl]}
}

// IsPermutation reports whether ordered holds exactly the points of q.
func IsPermutation(q, ordered core.Quad) bool {
	used := [4]bool{}
	for _, p := range ordered {
		found := false
		for i, c := range q {
			if !used[i] && c == p {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
