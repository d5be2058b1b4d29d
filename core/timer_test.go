package interview

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-interview/core/events"
)

func newManualTimer(recorder *eventRecorder, expirations *atomic.Int32) *sessionTimer {
	timer := newSessionTimer()
	timer.newTicks = nil
	timer.emit = recorder.handle
	timer.onExpire = func() { expirations.Add(1) }
	return timer
}

func TestTimerExpiresOnceAfterFullBudget(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)
	timer.Start(DefaultSessionDuration)

	for i := 0; i < 1800; i++ {
		timer.tick()
		if timer.Remaining() < 0 {
			t.Fatalf("expected remaining time to never be negative, got %s", timer.Remaining())
		}
	}
	if count := expirations.Load(); count != 1 {
		t.Fatalf("expected exactly one expiration after 1800 ticks, got %d", count)
	}
	if !timer.Expired() {
		t.Fatalf("expected timer to report expired")
	}

	for i := 0; i < 10; i++ {
		if timer.tick() {
			t.Fatalf("expected ticks after expiry to be rejected")
		}
	}
	if count := expirations.Load(); count != 1 {
		t.Fatalf("expected no further expirations after extra ticks, got %d", count)
	}
	if timer.Remaining() != 0 {
		t.Fatalf("expected remaining time of 0, got %s", timer.Remaining())
	}
	if timer.Elapsed() != DefaultSessionDuration {
		t.Fatalf("expected elapsed time of %s, got %s", DefaultSessionDuration, timer.Elapsed())
	}
	if count := recorder.count(events.KindTimerExpired); count != 1 {
		t.Fatalf("expected one timer expired event, got %d", count)
	}
}

func TestTimerCrossesEachThresholdOnce(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)
	timer.Start(DefaultSessionDuration)

	for i := 0; i < 1800; i++ {
		timer.tick()
	}

	var levels []events.TimerLevel
	for _, event := range recorder.events {
		if crossed, ok := event.(events.TimerThresholdCrossed); ok {
			levels = append(levels, crossed.Level)
			switch crossed.Level {
			case events.TimerLevelWarning:
				if crossed.Remaining != 600*time.Second {
					t.Fatalf("expected warning at 600s remaining, got %s", crossed.Remaining)
				}
			case events.TimerLevelDanger:
				if crossed.Remaining != 300*time.Second {
					t.Fatalf("expected danger at 300s remaining, got %s", crossed.Remaining)
				}
			}
		}
	}
	if len(levels) != 2 || levels[0] != events.TimerLevelWarning || levels[1] != events.TimerLevelDanger {
		t.Fatalf("expected warning then danger exactly once, got %v", levels)
	}
	if count := recorder.count(events.KindTimerTicked); count != 1800 {
		t.Fatalf("expected 1800 tick events, got %d", count)
	}
}

func TestTimerStartingInsideDangerSkipsWarning(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)
	timer.Start(200 * time.Second)

	timer.tick()

	var levels []events.TimerLevel
	for _, event := range recorder.events {
		if crossed, ok := event.(events.TimerThresholdCrossed); ok {
			levels = append(levels, crossed.Level)
		}
	}
	if len(levels) != 1 || levels[0] != events.TimerLevelDanger {
		t.Fatalf("expected only the danger threshold, got %v", levels)
	}
}

func TestTimerStopIsIdempotent(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)
	timer.Start(10 * time.Second)
	timer.tick()

	timer.Stop()
	timer.Stop()

	if timer.tick() {
		t.Fatalf("expected ticks after stop to be rejected")
	}
	if timer.Remaining() != 9*time.Second {
		t.Fatalf("expected remaining time to freeze at 9s, got %s", timer.Remaining())
	}
	if expirations.Load() != 0 {
		t.Fatalf("expected no expiration after stop")
	}
}

func TestTimerRestartResetsThresholds(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)

	timer.Start(301 * time.Second)
	timer.tick()
	timer.Start(301 * time.Second)
	timer.tick()

	if count := recorder.count(events.KindTimerThresholdCrossed); count != 2 {
		t.Fatalf("expected the danger threshold once per run, got %d", count)
	}
}

func TestTimerRunsFromTickSource(t *testing.T) {
	recorder := &eventRecorder{}
	var expirations atomic.Int32
	timer := newManualTimer(recorder, &expirations)
	ticks := newManualTicks()
	timer.newTicks = func() TickSource { return ticks }

	timer.Start(3 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case ticks.ch <- time.Now():
		case <-time.After(time.Second):
			t.Fatalf("timed out delivering tick %d", i+1)
		}
	}

	waitFor(t, "timer expiration", func() bool { return expirations.Load() == 1 })
	waitFor(t, "tick source stop", ticks.stopped.Load)
}
