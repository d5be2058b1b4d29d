package events

import "time"

const (
	KindTimerTicked           Kind = "timer.ticked"
	KindTimerThresholdCrossed Kind = "timer.threshold_crossed"
	KindTimerExpired          Kind = "timer.expired"
)

type TimerLevel string

const (
	TimerLevelWarning TimerLevel = "warning"
	TimerLevelDanger  TimerLevel = "danger"
)

type TimerTicked struct {
	Base
	Remaining time.Duration
}

func NewTimerTicked(remaining time.Duration) TimerTicked {
	return TimerTicked{Base: NewBase(KindTimerTicked), Remaining: remaining}
}

type TimerThresholdCrossed struct {
	Base
	Level     TimerLevel
	Remaining time.Duration
}

func NewTimerThresholdCrossed(level TimerLevel, remaining time.Duration) TimerThresholdCrossed {
	return TimerThresholdCrossed{Base: NewBase(KindTimerThresholdCrossed), Level: level, Remaining: remaining}
}

type TimerExpired struct{ Base }

func NewTimerExpired() TimerExpired {
	return TimerExpired{Base: NewBase(KindTimerExpired)}
}
