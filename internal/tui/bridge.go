package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-interview/core/events"
)

const DefaultBridgeBuffer = 256

// EventBridge hands controller events over to the bubbletea loop. Handle
// never blocks, events are dropped when the buffer is full.
type EventBridge struct {
	ch      chan events.Event
	dropped atomic.Int64
}

func NewEventBridge(buffer int) *EventBridge {
	if buffer <= 0 {
		buffer = DefaultBridgeBuffer
	}
	return &EventBridge{ch: make(chan events.Event, buffer)}
}

func (b *EventBridge) Handle(event events.Event) {
	select {
	case b.ch <- event:
	default:
		if dropped := b.dropped.Add(1); dropped == 1 || dropped%100 == 0 {
			logger.Warn("dropping interview events, the view is not keeping up", "dropped", dropped, "category", event.Kind().Category(), "kind", string(event.Kind()))
		}
	}
}

func (b *EventBridge) Dropped() int64 { return b.dropped.Load() }

type eventMsg struct{ event events.Event }

func (b *EventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-b.ch}
	}
}
