package interview

import "github.com/koscakluka/ema-interview/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// EventHandler receives session events. It is called synchronously from
// whichever goroutine produced the event and must not block.
type EventHandler func(events.Event)

func newEventEmitter(handlers []EventHandler) eventEmitter {
	if len(handlers) == 0 {
		return noopEventEmitter
	}
	return func(event events.Event) {
		for _, handler := range handlers {
			handler(event)
		}
	}
}
