package models

import "errors"

// Error kinds reported by the processing pipeline. All of them abort the run.
var (
	ErrMalformedFilename    = errors.New("malformed measurement filename")
	ErrMalformedRow         = errors.New("malformed measurement row")
	ErrNoMeasurements       = errors.New("no measurement files found")
	ErrBackgroundMismatch   = errors.New("background measurement does not match main measurement")
	ErrEmptyBand            = errors.New("no samples inside frequency band")
	ErrInsufficientGrid     = errors.New("insufficient scan grid for bicubic interpolation")
	ErrDirectoryUnavailable = errors.New("output directory unavailable")
)
