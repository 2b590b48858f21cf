// Package contour finds the quadrilateral outline of a plate in a variant image.
package contour

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/logging"
)

const (
	// DefaultMaxContours caps how many of the largest contours are examined.
	DefaultMaxContours = 30

	// DefaultEpsilonFactor scales the contour perimeter into the polygon
	// approximation tolerance.
	DefaultEpsilonFactor = 0.02

	// DefaultAreaFraction accepts plates covering 20%..80% of the frame.
	DefaultAreaFraction = 0.8
)

// Detector searches a binary or edge image for a plate quad.
type Detector struct {
	MaxContours   int
	EpsilonFactor float64
	logger        logrus.FieldLogger
}

// NewDetector returns a detector with the default contour cap and epsilon.
func NewDetector(logger logrus.FieldLogger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{
		MaxContours:   DefaultMaxContours,
		EpsilonFactor: DefaultEpsilonFactor,
		logger:        logger.WithField("component", "contour"),
	}
}

// FindPlateQuad runs a default detector without logging.
func FindPlateQuad(variant gocv.Mat, expectedTotalArea, areaFraction float64) (core.Quad, bool) {
	return NewDetector(nil).FindPlateQuad(variant, expectedTotalArea, areaFraction)
}

// Ranked is a contour index with its enclosed area and rank.
type Ranked struct {
	Index int
	Area  float64
	Rank  int
}

// FindPlateQuad treats every non-zero pixel of variant as foreground, extracts
// a flat list of contours, and walks the largest MaxContours of them in
// descending area. The first contour whose polygon approximation has exactly
// four vertices and an area strictly inside
// ((1-areaFraction)*expectedTotalArea, areaFraction*expectedTotalArea) wins.
//
// Equal-area contours keep the order in which OpenCV's border following
// reported them.
func (d *Detector) FindPlateQuad(variant gocv.Mat, expectedTotalArea, areaFraction float64) (core.Quad, bool) {
	if variant.Empty() || variant.Channels() != 1 {
		return core.Quad{}, false
	}

	lower := (1 - areaFraction) * expectedTotalArea
	upper := areaFraction * expectedTotalArea
	if upper <= lower {
		return core.Quad{}, false
	}

	contours := gocv.FindContours(variant, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	ranked := RankByArea(contours, d.MaxContours)
	for _, c := range ranked {
		contour := contours.At(c.Index)
		perimeter := gocv.ArcLength(contour, true)
		if perimeter <= 0 {
			continue
		}

		approx := gocv.ApproxPolyDP(contour, d.EpsilonFactor*perimeter, true)
		vertices := approx.Size()
		if vertices != 4 {
			approx.Close()
			continue
		}
		quad, err := core.QuadFromPoints(approx.ToPoints())
		approx.Close()
		if err != nil {
			continue
		}

		area := quad.Area()
		if area <= lower || area >= upper {
			continue
		}

		d.logger.WithFields(logrus.Fields{
			"contour_rank": c.Rank,
			"area":         area,
			"lower":        lower,
			"upper":        upper,
		}).Debug("Plate quad accepted")
		return quad, true
	}

	return core.Quad{}, false
}

// RankByArea returns up to limit contour indices sorted by descending enclosed
// area. The sort is stable, so ties keep extraction order.
func RankByArea(contours gocv.PointsVector, limit int) []Ranked {
	ranked := make([]Ranked, contours.Size())
	for i := range ranked {
		ranked[i] = Ranked{Index: i, Area: gocv.ContourArea(contours.At(i))}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Area > ranked[b].Area
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}
