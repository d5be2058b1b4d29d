package interview

import (
	"sync"
	"time"

	"github.com/koscakluka/ema-interview/core/events"
)

const (
	warningThreshold = 600
	dangerThreshold  = 300
)

// TickSource delivers one tick per elapsed second.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type tickerSource struct{ ticker *time.Ticker }

func newTickerSource() TickSource {
	return tickerSource{ticker: time.NewTicker(time.Second)}
}

func (t tickerSource) C() <-chan time.Time { return t.ticker.C }
func (t tickerSource) Stop()               { t.ticker.Stop() }

// sessionTimer counts the session budget down in whole seconds.
type sessionTimer struct {
	newTicks func() TickSource
	emit     eventEmitter
	onExpire func()

	mu         sync.Mutex
	budget     int
	remaining  int
	running    bool
	expired    bool
	warned     bool
	endangered bool
	// stopCh identifies the current run. Ticks from older runs are ignored.
	stopCh chan struct{}
}

func newSessionTimer() *sessionTimer {
	return &sessionTimer{
		newTicks: newTickerSource,
		emit:     noopEventEmitter,
		onExpire: func() {},
	}
}

// Start begins counting down from duration, resetting any previous run.
func (t *sessionTimer) Start(duration time.Duration) {
	budget := int(duration / time.Second)
	if budget < 0 {
		budget = 0
	}

	t.mu.Lock()
	if t.running {
		close(t.stopCh)
	}
	t.budget = budget
	t.remaining = budget
	t.running = true
	t.expired = false
	t.warned = false
	t.endangered = false
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	t.mu.Unlock()

	if t.newTicks == nil {
		return
	}
	source := t.newTicks()
	go t.run(source, stopCh)
}

func (t *sessionTimer) run(source TickSource, stopCh chan struct{}) {
	defer source.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-source.C():
			if !t.advance(stopCh) {
				return
			}
		}
	}
}

func (t *sessionTimer) tick() bool {
	t.mu.Lock()
	stopCh := t.stopCh
	t.mu.Unlock()
	return t.advance(stopCh)
}

// advance applies a single tick and reports whether the run continues.
func (t *sessionTimer) advance(stopCh chan struct{}) bool {
	t.mu.Lock()
	if !t.running || t.stopCh != stopCh {
		t.mu.Unlock()
		return false
	}

	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining

	var crossed events.TimerLevel
	switch {
	case remaining <= dangerThreshold && !t.endangered:
		t.endangered = true
		t.warned = true
		crossed = events.TimerLevelDanger
	case remaining <= warningThreshold && !t.warned:
		t.warned = true
		crossed = events.TimerLevelWarning
	}

	expired := false
	if remaining == 0 && !t.expired {
		t.expired = true
		t.running = false
		close(t.stopCh)
		expired = true
	}
	t.mu.Unlock()

	remainingDuration := time.Duration(remaining) * time.Second
	t.emit(events.NewTimerTicked(remainingDuration))
	if crossed != "" {
		t.emit(events.NewTimerThresholdCrossed(crossed, remainingDuration))
	}
	if expired {
		t.emit(events.NewTimerExpired())
		t.onExpire()
		return false
	}
	return true
}

// Stop halts the countdown. It is safe to call repeatedly.
func (t *sessionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stopCh)
}

func (t *sessionTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.remaining) * time.Second
}

func (t *sessionTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.budget-t.remaining) * time.Second
}

func (t *sessionTimer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}
