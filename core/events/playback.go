package events

const (
	KindPlaybackStarted Kind = "playback.started"
	KindPlaybackEnded   Kind = "playback.ended"
)

type PlaybackStarted struct {
	Base
	UtteranceID string
	Text        string
}

func NewPlaybackStarted(utteranceID, text string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), UtteranceID: utteranceID, Text: text}
}

// PlaybackEnded marks the end of an utterance. Err is nil when it played
// through.
type PlaybackEnded struct {
	Base
	UtteranceID string
	Err         error
}

func NewPlaybackEnded(utteranceID string, err error) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), UtteranceID: utteranceID, Err: err}
}
