package interview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-interview/core/events"
	"github.com/koscakluka/ema-interview/core/texttospeech"
)

const (
	guardBase    = 5 * time.Second
	guardPerRune = 100 * time.Millisecond
)

// Utterance is a single-shot completion signal for spoken text.
type Utterance struct {
	ID   string
	Text string

	once sync.Once
	done chan struct{}
	err  error
}

func newUtterance(text string) *Utterance {
	return &Utterance{ID: uuid.NewString(), Text: text, done: make(chan struct{})}
}

// Done is closed once the utterance finished, failed or was cancelled.
func (u *Utterance) Done() <-chan struct{} { return u.done }

// Err reports why the utterance did not play through. It is only
// meaningful after Done is closed.
func (u *Utterance) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

// Wait blocks until the utterance resolves or ctx is done.
func (u *Utterance) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *Utterance) resolve(err error) bool {
	resolved := false
	u.once.Do(func() {
		u.err = err
		resolved = true
		close(u.done)
	})
	return resolved
}

// synthesisManager keeps at most one utterance in flight.
type synthesisManager struct {
	synthesizer      Synthesizer
	utteranceOptions []texttospeech.UtteranceOption
	emit             eventEmitter
	guardTimeout     func(text string) time.Duration

	mu      sync.Mutex
	current *Utterance
	guard   *time.Timer
}

func newSynthesisManager() *synthesisManager {
	return &synthesisManager{
		emit:         noopEventEmitter,
		guardTimeout: defaultGuardTimeout,
	}
}

func defaultGuardTimeout(text string) time.Duration {
	return guardBase + time.Duration(utf8.RuneCountInString(text))*guardPerRune
}

// Speak supersedes any utterance in flight and starts speaking text.
func (s *synthesisManager) Speak(ctx context.Context, text string) *Utterance {
	utterance := newUtterance(text)

	s.mu.Lock()
	previous := s.current
	s.current = utterance
	s.stopGuardLocked()
	s.mu.Unlock()

	if previous != nil && previous.resolve(ErrUtteranceSuperseded) {
		s.emit(events.NewPlaybackEnded(previous.ID, ErrUtteranceSuperseded))
		if s.synthesizer != nil {
			if err := s.synthesizer.Cancel(); err != nil {
				logger.Debug("failed to cancel superseded utterance", "error", err)
			}
		}
	}

	if s.synthesizer == nil || strings.TrimSpace(text) == "" {
		s.finish(utterance, nil)
		return utterance
	}

	s.emit(events.NewPlaybackStarted(utterance.ID, text))
	opts := append(slices.Clone(s.utteranceOptions),
		texttospeech.WithEndCallback(func() { s.finish(utterance, nil) }),
		texttospeech.WithErrorCallback(func(err error) {
			s.finish(utterance, fmt.Errorf("%w: %w", ErrSynthesisFailure, err))
		}),
	)
	if err := s.synthesizer.Speak(ctx, text, opts...); err != nil {
		s.finish(utterance, fmt.Errorf("%w: %w", ErrSynthesisFailure, err))
		return utterance
	}

	s.mu.Lock()
	if s.current == utterance {
		timeout := s.guardTimeout(text)
		s.guard = time.AfterFunc(timeout, func() { s.expire(utterance, timeout) })
	}
	s.mu.Unlock()

	return utterance
}

func (s *synthesisManager) expire(utterance *Utterance, timeout time.Duration) {
	s.mu.Lock()
	current := s.current == utterance
	s.mu.Unlock()
	if !current {
		return
	}

	if err := s.synthesizer.Cancel(); err != nil {
		logger.Debug("failed to cancel stalled utterance", "error", err)
	}
	s.finish(utterance, fmt.Errorf("%w: no completion within %s", ErrSynthesisFailure, timeout))
}

// finish resolves the utterance. Playback is idle before the signal fires.
func (s *synthesisManager) finish(utterance *Utterance, err error) {
	s.mu.Lock()
	if s.current == utterance {
		s.current = nil
		s.stopGuardLocked()
	}
	s.mu.Unlock()

	if !utterance.resolve(err) {
		return
	}
	if err != nil {
		logger.Warn("speech synthesis failed, continuing", "error", err)
	}
	s.emit(events.NewPlaybackEnded(utterance.ID, err))
}

// Cancel stops the utterance in flight, resolving it with
// [ErrUtteranceCancelled].
func (s *synthesisManager) Cancel() error {
	return s.cancel(nil)
}

// CancelUtterance cancels utterance if it is still the one in flight.
func (s *synthesisManager) CancelUtterance(utterance *Utterance) error {
	return s.cancel(utterance)
}

func (s *synthesisManager) cancel(only *Utterance) error {
	s.mu.Lock()
	current := s.current
	if current == nil || (only != nil && current != only) {
		s.mu.Unlock()
		return nil
	}
	s.current = nil
	s.stopGuardLocked()
	s.mu.Unlock()

	if current.resolve(ErrUtteranceCancelled) {
		s.emit(events.NewPlaybackEnded(current.ID, ErrUtteranceCancelled))
	}
	if s.synthesizer == nil {
		return nil
	}
	if err := s.synthesizer.Cancel(); err != nil {
		return fmt.Errorf("failed to cancel speech synthesis: %w", err)
	}
	return nil
}

func (s *synthesisManager) stopGuardLocked() {
	if s.guard != nil {
		s.guard.Stop()
		s.guard = nil
	}
}

func (s *synthesisManager) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return PlaybackSpeaking
	}
	return PlaybackIdle
}
