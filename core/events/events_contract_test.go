package events

import (
	"errors"
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session started", event: NewSessionStarted("s1"), expected: KindSessionStarted},
		{name: "session state changed", event: NewSessionStateChanged("listening", "submitting"), expected: KindSessionStateChanged},
		{name: "session failed", event: NewSessionFailed("submit", errors.New("boom")), expected: KindSessionFailed},
		{name: "session report ready", event: NewSessionReportReady(80, 5, 12), expected: KindSessionReportReady},
		{name: "session completed", event: NewSessionCompleted("timeout"), expected: KindSessionCompleted},
		{name: "question received", event: NewQuestionReceived("q1", "Tell me about yourself", "BASIC", 1, 5), expected: KindQuestionReceived},
		{name: "transcript appended", event: NewTranscriptAppended("AI", "text", 0), expected: KindTranscriptAppended},
		{name: "capture started", event: NewCaptureStarted(), expected: KindCaptureStarted},
		{name: "capture stopped", event: NewCaptureStopped(), expected: KindCaptureStopped},
		{name: "capture answer updated", event: NewCaptureAnswerUpdated("I have"), expected: KindCaptureAnswerUpdated},
		{name: "capture segment", event: NewCaptureSegment("I have"), expected: KindCaptureSegment},
		{name: "capture degraded", event: NewCaptureDegraded(errors.New("denied")), expected: KindCaptureDegraded},
		{name: "capture notice", event: NewCaptureNotice("no speech", false), expected: KindCaptureNotice},
		{name: "playback started", event: NewPlaybackStarted("u1", "hello"), expected: KindPlaybackStarted},
		{name: "playback ended", event: NewPlaybackEnded("u1", nil), expected: KindPlaybackEnded},
		{name: "timer ticked", event: NewTimerTicked(time.Minute), expected: KindTimerTicked},
		{name: "timer threshold crossed", event: NewTimerThresholdCrossed(TimerLevelWarning, 10*time.Minute), expected: KindTimerThresholdCrossed},
		{name: "timer expired", event: NewTimerExpired(), expected: KindTimerExpired},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestCaptureStartedAndStoppedKindsAreDistinct(t *testing.T) {
	started := NewCaptureStarted()
	stopped := NewCaptureStopped()

	if started.Kind() == stopped.Kind() {
		t.Fatalf("expected capture started and stopped kinds to differ, both were %q", started.Kind())
	}
}

func TestKindCategory(t *testing.T) {
	testCases := map[Kind]string{
		KindTimerTicked:        "timer",
		KindTranscriptAppended: "question",
		KindSessionCompleted:   "session",
		Kind("bare"):           "bare",
	}

	for kind, expected := range testCases {
		if got := kind.Category(); got != expected {
			t.Fatalf("expected category %q for %q, got %q", expected, kind, got)
		}
	}
}
