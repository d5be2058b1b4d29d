package interview

import "errors"

var (
	ErrCapturePermissionDenied  = errors.New("microphone permission denied")
	ErrCaptureNetworkFailure    = errors.New("speech recognition network failure")
	ErrCaptureDeviceUnavailable = errors.New("audio capture device unavailable")
	// ErrCaptureNoSpeech is informational, listening continues.
	ErrCaptureNoSpeech = errors.New("no speech detected")

	ErrSynthesisFailure    = errors.New("speech synthesis failed")
	ErrUtteranceSuperseded = errors.New("utterance superseded by a newer one")
	ErrUtteranceCancelled  = errors.New("utterance cancelled")

	ErrRemoteCallFailure = errors.New("remote call failed")

	ErrIllegalTransition = errors.New("illegal state transition")
	ErrEmptyAnswer       = errors.New("answer is empty")
	ErrSessionClosed     = errors.New("session closed")
	ErrNoQuestion        = errors.New("no current question")
)

// ErrOperationInFlight is returned when a question fetch or answer submit
// is requested while another one has not resolved yet.
var ErrOperationInFlight = errors.New("another session operation is in flight")
