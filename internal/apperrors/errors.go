// Package apperrors defines the failure kinds surfaced by the
// identification pipeline. Every component wraps its failures in an
// *Error so callers can branch on the kind with errors.Is or KindOf,
// no matter how many fmt.Errorf("...: %w") layers sit on top.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind categorizes pipeline failures.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in the pipeline.
	KindUnknown Kind = iota
	// KindInvalidArgument means a precondition on the inputs was violated.
	KindInvalidArgument
	// KindDeviceUnavailable means the audio input device could not be opened.
	KindDeviceUnavailable
	// KindCaptureInterrupted means a recording failed after the device was open.
	KindCaptureInterrupted
	// KindUnreadableAudio means a waveform file could not be decoded.
	KindUnreadableAudio
	// KindEmptyClip means nothing was left to classify after trimming and filtering.
	KindEmptyClip
	// KindModelLoadError means a speaker model artifact could not be loaded.
	KindModelLoadError
	// KindDimensionMismatch means a feature vector does not fit a model.
	KindDimensionMismatch
	// KindEmptyMatrix means the classifier was handed zero rows.
	KindEmptyMatrix
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindDeviceUnavailable:
		return "DeviceUnavailable"
	case KindCaptureInterrupted:
		return "CaptureInterrupted"
	case KindUnreadableAudio:
		return "UnreadableAudio"
	case KindEmptyClip:
		return "EmptyClip"
	case KindModelLoadError:
		return "ModelLoadError"
	case KindDimensionMismatch:
		return "DimensionMismatch"
	case KindEmptyMatrix:
		return "EmptyMatrix"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrDeviceUnavailable  = &Error{Kind: KindDeviceUnavailable}
	ErrCaptureInterrupted = &Error{Kind: KindCaptureInterrupted}
	ErrUnreadableAudio    = &Error{Kind: KindUnreadableAudio}
	ErrEmptyClip          = &Error{Kind: KindEmptyClip}
	ErrModelLoad          = &Error{Kind: KindModelLoadError}
	ErrDimensionMismatch  = &Error{Kind: KindDimensionMismatch}
	ErrEmptyMatrix        = &Error{Kind: KindEmptyMatrix}
)

// Error is a pipeline failure of a given kind.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "record"
	Path string // file involved, if any
	Err  error  // underlying cause
}

// New creates an Error of the given kind.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf creates an Error whose cause is a formatted message.
func Newf(kind Kind, op, path, format string, args ...any) *Error {
	return New(kind, op, path, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
