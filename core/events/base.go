package events

import (
	"strings"
	"time"
)

// Kind names an event as "<category>.<name>", for example "timer.ticked".
type Kind string

// Category is the part of the kind before the first dot.
func (k Kind) Category() string {
	category, _, _ := strings.Cut(string(k), ".")
	return category
}

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base is embedded by every event to carry its kind and emission time.
type Base struct {
	kind Kind
	at   time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, at: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.at }
