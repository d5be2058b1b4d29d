// Package texttospeech holds the contract between the interview session and
// speech synthesizers.
package texttospeech

import (
	"errors"

	"github.com/koscakluka/ema-interview/core/audio"
)

const (
	DefaultRate   = 0.95
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

type UtteranceOptions struct {
	// Voice selects a synthesizer specific voice. Empty keeps the default.
	Voice    string
	Language string

	Rate   float64
	Pitch  float64
	Volume float64

	// StartCallback is called when audio for the utterance starts playing.
	StartCallback func()
	// EndCallback is called once all audio for the utterance has been played.
	// It is called at most once and never after ErrorCallback.
	EndCallback func()
	// ErrorCallback is called when synthesis fails or the utterance is
	// cancelled. It is called at most once and never after EndCallback.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type UtteranceOption func(*UtteranceOptions)

func NewUtteranceOptions(opts ...UtteranceOption) UtteranceOptions {
	options := UtteranceOptions{
		Language:      "en-US",
		Rate:          DefaultRate,
		Pitch:         DefaultPitch,
		Volume:        DefaultVolume,
		StartCallback: func() {},
		EndCallback:   func() {},
		ErrorCallback: func(error) {},
		EncodingInfo:  audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithVoice(voice string) UtteranceOption {
	return func(o *UtteranceOptions) {
		if voice != "" {
			o.Voice = voice
		}
	}
}

func WithLanguage(language string) UtteranceOption {
	return func(o *UtteranceOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

// WithProsody sets rate, pitch and volume. Non-positive values are ignored.
func WithProsody(rate, pitch, volume float64) UtteranceOption {
	return func(o *UtteranceOptions) {
		if rate > 0 {
			o.Rate = rate
		}
		if pitch > 0 {
			o.Pitch = pitch
		}
		if volume > 0 {
			o.Volume = volume
		}
	}
}

func WithStartCallback(callback func()) UtteranceOption {
	return func(o *UtteranceOptions) {
		if callback != nil {
			o.StartCallback = callback
		}
	}
}

func WithEndCallback(callback func()) UtteranceOption {
	return func(o *UtteranceOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) UtteranceOption {
	return func(o *UtteranceOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) UtteranceOption {
	return func(o *UtteranceOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

// ErrCancelled is reported through ErrorCallback when an utterance is cut
// short by Cancel or by a newer utterance.
var ErrCancelled = errors.New("utterance cancelled")
