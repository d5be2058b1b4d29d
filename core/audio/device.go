package audio

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrDeviceUnavailable reports that no usable capture or playback device
	// could be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrPermissionDenied reports that the operating system refused access to
	// the device.
	ErrPermissionDenied = errors.New("audio device permission denied")
)

// Source is a microphone-like device producing raw audio frames.
type Source interface {
	EncodingInfo() EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Sink is a speaker-like device consuming raw audio frames.
//
// Mark registers callback to be called once all audio sent before the mark
// has been played.
type Sink interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(name string, callback func(string)) error
}

// ClassifyDeviceError maps backend specific device failures onto
// [ErrPermissionDenied] or [ErrDeviceUnavailable]. Errors already wrapping
// one of them are returned unchanged.
func ClassifyDeviceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"), strings.Contains(msg, "not allowed"):
		return errors.Join(ErrPermissionDenied, err)
	default:
		return errors.Join(ErrDeviceUnavailable, err)
	}
}
