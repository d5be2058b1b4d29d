package interview

import (
	"context"
	"time"

	"github.com/koscakluka/ema-interview/core/speechtotext"
	"github.com/koscakluka/ema-interview/core/texttospeech"
)

const (
	DefaultSessionDuration = 1800 * time.Second
	DefaultRestartDelay    = 100 * time.Millisecond
	DefaultQuestionDelay   = time.Second
	DefaultFetchAttempts   = 3
	DefaultFetchRetryDelay = time.Second
)

// SessionClient is the remote side of the interview protocol.
type SessionClient interface {
	StartInterview(ctx context.Context, resumeID string) (sessionID string, err error)
	GetNextQuestion(ctx context.Context, sessionID string) (*Question, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID, answer string) (*SubmitResult, error)
	EndInterview(ctx context.Context, sessionID string) error
	GetInterviewReport(ctx context.Context, sessionID string) (*Report, error)
	ListResumes(ctx context.Context) ([]Resume, error)
}

// Recognizer is a continuous speech recognition capability. Every
// successful Start is followed by exactly one end callback.
type Recognizer interface {
	Start(ctx context.Context, opts ...speechtotext.RecognitionOption) error
	Stop() error
}

// Synthesizer speaks a single utterance at a time. A returned error from
// Speak means none of the utterance callbacks will be called.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts ...texttospeech.UtteranceOption) error
	Cancel() error
}

// PermissionRequester asks the platform for microphone access ahead of the
// first question.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) error
}

type ControllerOption func(*Controller)

func WithRecognizer(recognizer Recognizer) ControllerOption {
	return func(c *Controller) { c.capture.recognizer = recognizer }
}

func WithRecognitionOptions(opts ...speechtotext.RecognitionOption) ControllerOption {
	return func(c *Controller) {
		c.capture.recognitionOptions = append(c.capture.recognitionOptions, opts...)
	}
}

func WithSynthesizer(synthesizer Synthesizer) ControllerOption {
	return func(c *Controller) { c.synthesis.synthesizer = synthesizer }
}

func WithUtteranceOptions(opts ...texttospeech.UtteranceOption) ControllerOption {
	return func(c *Controller) {
		c.synthesis.utteranceOptions = append(c.synthesis.utteranceOptions, opts...)
	}
}

func WithPermissionRequester(requester PermissionRequester) ControllerOption {
	return func(c *Controller) { c.permissions = requester }
}

func WithEventHandler(handler EventHandler) ControllerOption {
	return func(c *Controller) {
		if handler != nil {
			c.eventHandlers = append(c.eventHandlers, handler)
		}
	}
}

func WithSessionDuration(duration time.Duration) ControllerOption {
	return func(c *Controller) {
		if duration > 0 {
			c.sessionDuration = duration
		}
	}
}

// WithRestartDelay sets the pause before a recognition stream that ended on
// its own is reopened.
func WithRestartDelay(delay time.Duration) ControllerOption {
	return func(c *Controller) {
		if delay >= 0 {
			c.capture.restartDelay = delay
		}
	}
}

// WithMaxConsecutiveRestarts bounds how many times in a row a recognition
// stream may be reopened without producing any result. Zero means no bound.
func WithMaxConsecutiveRestarts(limit int) ControllerOption {
	return func(c *Controller) {
		if limit >= 0 {
			c.capture.maxRestarts = limit
		}
	}
}

// WithQuestionDelay sets the pause between a submitted answer and the next
// question.
func WithQuestionDelay(delay time.Duration) ControllerOption {
	return func(c *Controller) {
		if delay >= 0 {
			c.questionDelay = delay
		}
	}
}

// WithFetchRetry bounds how often a failed question fetch is attempted and
// sets the base pause between attempts. The pause grows with each attempt.
func WithFetchRetry(attempts int, delay time.Duration) ControllerOption {
	return func(c *Controller) {
		if attempts > 0 {
			c.fetchAttempts = attempts
		}
		if delay >= 0 {
			c.fetchRetryDelay = delay
		}
	}
}

// WithTickSource replaces the one second ticker driving the session timer.
func WithTickSource(newTicks func() TickSource) ControllerOption {
	return func(c *Controller) { c.timer.newTicks = newTicks }
}
