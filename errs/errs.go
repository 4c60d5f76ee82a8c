// Package errs defines the sentinel errors shared by the deepzoom packages.
//
// Callers should compare with errors.Is, since most errors are wrapped with
// additional context before they reach the public API.
package errs

import "errors"

// Build lifecycle errors.
var (
	// ErrTerminated is returned instead of a reference or table when the render
	// state requested an interrupt during the build. It is not a failure: the
	// caller may simply retry.
	ErrTerminated = errors.New("process terminated")

	// ErrUnresolvableIndex is returned when a finished table entry cannot be mapped
	// to a storage slot. The table built so far is partial and must be discarded.
	ErrUnresolvableIndex = errors.New("table index is not resolvable")

	// ErrTableBusy is returned when a table cache is already held by another build.
	ErrTableBusy = errors.New("table cache is in use by another build")

	// ErrNoReference is returned when a table build is requested without a reference.
	ErrNoReference = errors.New("reference is not available")

	// ErrEngineClosed is returned by Recompute after Close.
	ErrEngineClosed = errors.New("engine is closed")
)

// Configuration errors.
var (
	ErrInvalidCenter          = errors.New("invalid center coordinate")
	ErrInvalidMaxIteration    = errors.New("max iteration must be positive")
	ErrInvalidBailout         = errors.New("bailout must be greater than zero")
	ErrInvalidExp10           = errors.New("exp10 must be positive")
	ErrInvalidCompression     = errors.New("invalid reference compression settings")
	ErrInvalidMPASettings     = errors.New("invalid MPA settings")
	ErrInvalidCompressionType = errors.New("invalid compression type")
	ErrInvalidEncodingType    = errors.New("invalid encoding type")
)

// Interval set errors.
var (
	ErrIntervalOrder  = errors.New("interval starts before the end of the previous interval")
	ErrIntervalRebase = errors.New("interval rebase must precede its start")
	ErrIntervalEmpty  = errors.New("interval end precedes its start")
)

// Archive errors.
var (
	ErrInvalidMagicNumber = errors.New("invalid archive magic number")
	ErrInvalidVersion     = errors.New("unsupported archive version")
	ErrInvalidArchive     = errors.New("archive is truncated or malformed")
	ErrChecksumMismatch   = errors.New("archive checksum mismatch")
)
