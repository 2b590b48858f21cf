package core

import "errors"

var (
	// ErrInvalidInput reports a malformed or empty source image.
	ErrInvalidInput = errors.New("invalid input image")

	// ErrNoPlateBoundaryFound reports that no variant produced an acceptable quad.
	ErrNoPlateBoundaryFound = errors.New("no plate boundary found")

	// ErrDegenerateHomography reports collinear or near-collinear source corners.
	ErrDegenerateHomography = errors.New("degenerate homography")

	// ErrConfiguration reports an unusable variant configuration.
	ErrConfiguration = errors.New("invalid configuration")
)

// FailureReason tags a failed rectification.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonInvalidInput         FailureReason = "invalid_input"
	ReasonNoPlateBoundaryFound FailureReason = "no_plate_boundary_found"
	ReasonDegenerateGeometry   FailureReason = "degenerate_geometry"
	ReasonInternal             FailureReason = "internal"
)

// Recoverable reports whether the caller may fall back to the unrectified crop.
func (r FailureReason) Recoverable() bool {
	return r == ReasonNoPlateBoundaryFound || r == ReasonDegenerateGeometry
}

// ReasonFor maps an error onto its failure reason. Errors outside the known
// sentinels, such as a failed OpenCV call, map to ReasonInternal.
func ReasonFor(err error) FailureReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrNoPlateBoundaryFound):
		return ReasonNoPlateBoundaryFound
	case errors.Is(err, ErrDegenerateHomography):
		return ReasonDegenerateGeometry
	default:
		return ReasonInternal
	}
}
