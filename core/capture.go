package interview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-interview/core/events"
	"github.com/koscakluka/ema-interview/core/speechtotext"
)

// capturePolicy is the reaction to a recognition error code.
type capturePolicy struct {
	err                error
	degrade            bool
	disableRecognition bool
	notice             string
	persistent         bool
}

var capturePolicies = map[speechtotext.ErrorCode]capturePolicy{
	speechtotext.ErrorPermissionDenied: {
		err:        ErrCapturePermissionDenied,
		degrade:    true,
		notice:     "Microphone access denied. Type your answer instead.",
		persistent: true,
	},
	speechtotext.ErrorNetwork: {
		err:                ErrCaptureNetworkFailure,
		degrade:            true,
		disableRecognition: true,
		notice:             "Speech recognition lost its connection. Type your answer instead.",
		persistent:         true,
	},
	speechtotext.ErrorNoSpeech: {
		err:    ErrCaptureNoSpeech,
		notice: "No speech detected. Keep talking.",
	},
	speechtotext.ErrorAudioCapture: {
		err:        ErrCaptureDeviceUnavailable,
		degrade:    true,
		notice:     "Microphone not found. Type your answer instead.",
		persistent: true,
	},
	speechtotext.ErrorAborted: {},
	speechtotext.ErrorOther: {
		notice: "Speech recognition hiccup, still listening.",
	},
}

const (
	noticeUnavailable  = "Voice input unavailable. Type your answer instead."
	noticeRestartLimit = "Speech recognition keeps stopping. Type your answer instead."
)

type captureOutcome struct {
	stopStream bool
	degraded   error
	notice     string
	persistent bool
}

// captureManager keeps a continuous recognition stream alive while
// listening and accumulates its final results.
type captureManager struct {
	recognizer         Recognizer
	recognitionOptions []speechtotext.RecognitionOption
	restartDelay       time.Duration
	maxRestarts        int
	emit               eventEmitter

	mu    sync.Mutex
	ctx   context.Context
	state CaptureState
	// generation identifies the current stream. Callbacks carrying an
	// older generation are ignored.
	generation          int
	streaming           bool
	stopRequested       bool
	recognitionDisabled bool
	degradedReported    bool
	degradedErr         error
	restartTimer        *time.Timer
	consecutiveRestarts int
	// finalized holds result indexes of the current stream already
	// appended to the accumulator.
	finalized   map[int]struct{}
	accumulated []string
	interim     string
}

func newCaptureManager() *captureManager {
	return &captureManager{
		restartDelay: DefaultRestartDelay,
		emit:         noopEventEmitter,
		ctx:          context.Background(),
		state:        CaptureIdle,
		finalized:    map[int]struct{}{},
	}
}

// Start begins listening. It is a no-op while already listening or while
// degraded.
func (c *captureManager) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.recognizer == nil {
		outcome := c.degradeLocked(ErrCaptureDeviceUnavailable, noticeUnavailable, true)
		c.mu.Unlock()
		c.publish(outcome)
		return nil
	}
	if c.state != CaptureIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = CaptureListening
	c.stopRequested = false
	c.consecutiveRestarts = 0
	c.ctx = ctx
	generation := c.generation
	c.mu.Unlock()

	return c.open(generation)
}

// open starts a new stream when expected is still the current generation
// and capture is listening without a stream. A Stop or degrade in between
// bumps the generation and turns open into a no-op.
func (c *captureManager) open(expected int) error {
	c.mu.Lock()
	if expected != c.generation || c.state != CaptureListening || c.stopRequested || c.streaming {
		c.mu.Unlock()
		return nil
	}
	c.restartTimer = nil
	c.generation++
	generation := c.generation
	c.streaming = true
	c.finalized = map[int]struct{}{}
	ctx := c.ctx
	opts := append(slices.Clone(c.recognitionOptions),
		speechtotext.WithStartCallback(func() { c.onStart(generation) }),
		speechtotext.WithResultCallback(func(resultIndex int, results []speechtotext.Result) {
			c.onResult(generation, resultIndex, results)
		}),
		speechtotext.WithErrorCallback(func(code speechtotext.ErrorCode, err error) {
			c.onError(generation, code, err)
		}),
		speechtotext.WithEndCallback(func() { c.onEnd(generation) }),
	)
	c.mu.Unlock()

	if err := c.recognizer.Start(ctx, opts...); err != nil {
		c.mu.Lock()
		current := generation == c.generation
		if current {
			c.streaming = false
		}
		c.mu.Unlock()
		if !current {
			return nil
		}

		c.onError(generation, speechtotext.CodeOf(err), err)
		// A stream that never opened is treated like one that ended on its
		// own, so non-degrading failures go through the restart policy.
		c.onEnd(generation)
		return fmt.Errorf("failed to start speech recognition: %w", err)
	}

	c.mu.Lock()
	orphaned := generation != c.generation
	c.mu.Unlock()
	if orphaned {
		// Stopped while the stream was opening. Its callbacks are already
		// ignored, only the engine side is left to close.
		if err := c.recognizer.Stop(); err != nil {
			logger.Debug("failed to stop orphaned recognition stream", "error", err)
		}
	}
	return nil
}

func (c *captureManager) onStart(generation int) {
	c.mu.Lock()
	current := generation == c.generation
	c.mu.Unlock()
	if current {
		c.emit(events.NewCaptureStarted())
	}
}

func (c *captureManager) onResult(generation, resultIndex int, results []speechtotext.Result) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}

	var segments, interim []string
	hasInterim, hasFinal := false, false
	for i, result := range results {
		text := strings.TrimSpace(result.Transcript)
		if !result.IsFinal {
			hasInterim = true
			if text != "" {
				interim = append(interim, text)
			}
			continue
		}

		hasFinal = true
		index := resultIndex + i
		if _, ok := c.finalized[index]; ok {
			continue
		}
		c.finalized[index] = struct{}{}
		if text != "" {
			c.accumulated = append(c.accumulated, text)
			segments = append(segments, text)
		}
	}
	if hasInterim {
		c.interim = strings.Join(interim, " ")
	} else if hasFinal {
		c.interim = ""
	}
	c.consecutiveRestarts = 0
	answer := c.answerLocked()
	c.mu.Unlock()

	for _, segment := range segments {
		c.emit(events.NewCaptureSegment(segment))
	}
	c.emit(events.NewCaptureAnswerUpdated(answer))
}

func (c *captureManager) onError(generation int, code speechtotext.ErrorCode, err error) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	outcome := c.applyPolicyLocked(code, err)
	c.mu.Unlock()

	c.publish(outcome)
}

// Fail applies the error policy for code outside of any stream, for
// example when the platform refuses microphone access up front.
func (c *captureManager) Fail(code speechtotext.ErrorCode, err error) {
	c.mu.Lock()
	outcome := c.applyPolicyLocked(code, err)
	c.mu.Unlock()

	c.publish(outcome)
}

func (c *captureManager) applyPolicyLocked(code speechtotext.ErrorCode, err error) captureOutcome {
	policy, ok := capturePolicies[code]
	if !ok {
		policy = capturePolicies[speechtotext.ErrorOther]
	}

	if !policy.degrade {
		if policy.notice != "" {
			logger.Info("speech capture notice", "code", string(code), "error", err)
		}
		return captureOutcome{notice: policy.notice, persistent: policy.persistent}
	}

	if policy.disableRecognition {
		c.recognitionDisabled = true
	}
	return c.degradeLocked(fmt.Errorf("%w: %w", policy.err, err), policy.notice, policy.persistent)
}

// degradeLocked switches to text-only mode. The degraded notice is reported
// once until capture is retried.
func (c *captureManager) degradeLocked(err error, notice string, persistent bool) captureOutcome {
	outcome := captureOutcome{stopStream: c.streaming}
	c.state = CaptureDegraded
	c.streaming = false
	c.generation++
	c.stopRestartLocked()

	if !c.degradedReported {
		c.degradedReported = true
		c.degradedErr = err
		outcome.degraded = err
		outcome.notice = notice
		outcome.persistent = persistent
	}
	return outcome
}

func (c *captureManager) onEnd(generation int) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.streaming = false
	if c.state != CaptureListening || c.stopRequested {
		c.mu.Unlock()
		return
	}

	c.consecutiveRestarts++
	if c.maxRestarts > 0 && c.consecutiveRestarts > c.maxRestarts {
		err := fmt.Errorf("%w: recognition ended %d times without results", ErrCaptureDeviceUnavailable, c.maxRestarts)
		outcome := c.degradeLocked(err, noticeRestartLimit, true)
		c.mu.Unlock()
		c.publish(outcome)
		return
	}

	ctx := c.ctx
	c.restartTimer = time.AfterFunc(c.restartDelay, func() { c.restart(generation) })
	c.mu.Unlock()

	captureRestarts.Add(ctx, 1)
}

func (c *captureManager) restart(generation int) {
	logger.Debug("restarting speech recognition after the stream ended")
	if err := c.open(generation); err != nil {
		logger.Warn("failed to restart speech recognition", "error", err)
	}
}

// Stop ends listening and suppresses any pending restart. Repeated calls
// have no further effect.
func (c *captureManager) Stop() error {
	c.mu.Lock()
	if c.state != CaptureListening {
		c.mu.Unlock()
		return nil
	}
	c.state = CaptureIdle
	c.stopRequested = true
	c.stopRestartLocked()
	streaming := c.streaming
	c.streaming = false
	c.generation++
	c.mu.Unlock()

	c.emit(events.NewCaptureStopped())
	if !streaming {
		return nil
	}
	if err := c.recognizer.Stop(); err != nil {
		return fmt.Errorf("failed to stop speech recognition: %w", err)
	}
	return nil
}

func (c *captureManager) stopRestartLocked() {
	if c.restartTimer != nil {
		c.restartTimer.Stop()
		c.restartTimer = nil
	}
}

// Retry leaves degraded mode unless recognition was disabled for the
// session. The caller starts listening again.
func (c *captureManager) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureDegraded || c.recognitionDisabled || c.recognizer == nil {
		return false
	}
	c.state = CaptureIdle
	c.degradedReported = false
	c.degradedErr = nil
	c.consecutiveRestarts = 0
	return true
}

// Clear resets the accumulated and interim text.
func (c *captureManager) Clear() {
	c.mu.Lock()
	c.accumulated = nil
	c.interim = ""
	c.mu.Unlock()

	c.emit(events.NewCaptureAnswerUpdated(""))
}

func (c *captureManager) publish(outcome captureOutcome) {
	if outcome.stopStream && c.recognizer != nil {
		if err := c.recognizer.Stop(); err != nil {
			logger.Debug("failed to stop speech recognition after capture degraded", "error", err)
		}
	}
	if outcome.degraded != nil {
		logger.Warn("speech capture degraded, accepting typed answers only", "error", outcome.degraded)
		c.emit(events.NewCaptureDegraded(outcome.degraded))
	}
	if outcome.notice != "" {
		c.emit(events.NewCaptureNotice(outcome.notice, outcome.persistent))
	}
}

// Answer is the accumulated final text followed by the current interim.
func (c *captureManager) Answer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answerLocked()
}

func (c *captureManager) answerLocked() string {
	parts := slices.Clone(c.accumulated)
	if c.interim != "" {
		parts = append(parts, c.interim)
	}
	return strings.Join(parts, " ")
}

// FinalAnswer is the accumulated final text only.
func (c *captureManager) FinalAnswer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.accumulated, " ")
}

func (c *captureManager) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *captureManager) DegradedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degradedErr
}
