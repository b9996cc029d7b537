package alignment

import "errors"

var (
	// ErrInsufficientData indicates a contour is empty or has no voiced frames.
	ErrInsufficientData = errors.New("alignment: insufficient voiced data")

	// ErrInvalidNoteBoundaries indicates the note list is empty, unsorted,
	// malformed, or outside the reference contour's span.
	ErrInvalidNoteBoundaries = errors.New("alignment: invalid note boundaries")

	// ErrInvalidContour indicates a contour whose timestamps decrease or are not finite.
	ErrInvalidContour = errors.New("alignment: invalid pitch contour")

	// ErrInvalidConfig indicates out-of-range configuration values.
	ErrInvalidConfig = errors.New("alignment: invalid config")

	// ErrCancelled is returned when the caller's context ends during the matrix fill.
	ErrCancelled = errors.New("alignment: cancelled")
)
