// Package imaging implements the building blocks of the transformation engine:
// decoding sources, planning geometry, compositing pixels and writing results.
//
// An operation composes them in order: Source decodes, the geometry
// functions plan, the compositor builds a destination buffer, Writer
// persists it.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner.
// X grows rightward and Y grows downward. A Rect is (X, Y, Width, Height) and
// covers [X, X+Width) by [Y, Y+Height).
//
// # Geometry
//
// The planning functions are pure and do no I/O:
//   - FitScale: aspect-preserving fit inside a bounding box, never upscaling
//   - ZoomCropRect: the aspect-matching rectangle a zoom crop extracts
//   - ValidateCrop: bounds check for an explicit crop rectangle
//   - FitMark: two-pass (width, then height) shrinking of a watermark
//   - Anchor: one of nine placements on a 3x3 grid
//
// Rounding is half away from zero throughout.
//
// # Compositing
//
// Resample extracts and then scales. Extract copies pixels 1:1. Overlay
// alpha-blends a mark onto a copy of the base and never touches pixels
// outside the mark's footprint. All of them return a fresh *image.NRGBA.
//
// # Output
//
// Results are always encoded in the single format configured on the Writer,
// even though the output filename keeps the source's extension. Writes go to
// a temporary file that is renamed into place.
//
// # Error Handling
//
// Every failure surfaces as an *Error of one of three kinds:
//   - KindUnsupportedFormat: a source or watermark is missing or undecodable
//   - KindOutOfRange: a requested rectangle or size does not fit
//   - KindWriteFailure: encoding, writing or confirming the output failed
//
// Use errors.Is with ErrUnsupportedFormat, ErrOutOfRange or ErrWriteFailure,
// or KindOf for switch-style handling.
//
// # Thread Safety
//
// Source, Writer and the geometry and compositing functions hold no mutable
// state and may be used concurrently. HandleCache is internally synchronized.
package imaging
