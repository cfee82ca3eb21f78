package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for record file and store errors.
var (
	ErrDataFormat         = errors.New("record file data format")
	ErrMissingColumn      = fmt.Errorf("%w: missing column", ErrDataFormat)
	ErrMalformedRow       = fmt.Errorf("%w: malformed row", ErrDataFormat)
	ErrRecordFileNotFound = errors.New("record file not found")
	ErrIndexOutOfRange    = errors.New("event index out of range")
	ErrEventNotFound      = errors.New("event not found")
	ErrUnknownMergeMode   = errors.New("unknown merge mode")
)
