package speechtotext

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-interview/core/audio"
)

// Error is a recognizer failure tagged with its [ErrorCode].
type Error struct {
	Code ErrorCode
	Err  error
}

func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("speech recognition failed: %s", e.Code)
	}
	return fmt.Sprintf("speech recognition failed: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf classifies err. Device errors from the audio package map onto
// permission-denied and audio-capture, anything unrecognised is other.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var recognitionErr *Error
	switch {
	case errors.As(err, &recognitionErr):
		return recognitionErr.Code
	case errors.Is(err, audio.ErrPermissionDenied):
		return ErrorPermissionDenied
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return ErrorAudioCapture
	default:
		return ErrorOther
	}
}
