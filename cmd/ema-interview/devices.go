package main

import (
	"context"
	"fmt"

	interview "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/audio"
	"github.com/koscakluka/ema-interview/core/audio/miniaudio"
	"github.com/koscakluka/ema-interview/core/audio/portaudio"
	"github.com/koscakluka/ema-interview/core/speechtotext"
	sttdeepgram "github.com/koscakluka/ema-interview/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-interview/core/texttospeech"
	ttsdeepgram "github.com/koscakluka/ema-interview/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-interview/internal/config"
)

const portaudioFramesPerBuffer = 1024

type device interface {
	audio.Source
	audio.Sink
	Close()
}

// devicePermission reports the outcome of opening the audio device as the
// microphone permission.
type devicePermission struct {
	err error
}

func (p devicePermission) RequestPermission(context.Context) error { return p.err }

func openDevice(backend string) (device, error) {
	switch backend {
	case config.BackendMiniaudio:
		return miniaudio.NewClient()
	case config.BackendPortaudio:
		return portaudio.NewClient(portaudioFramesPerBuffer)
	default:
		return nil, fmt.Errorf("%w: audio backend %q", audio.ErrDeviceUnavailable, backend)
	}
}

// speechOptions wires Deepgram recognition and synthesis over the configured
// audio device. When speech cannot be set up the returned options leave the
// controller without capabilities and it falls back to typed answers.
func speechOptions(cfg *config.Config) ([]interview.ControllerOption, func()) {
	opts := []interview.ControllerOption{
		interview.WithRecognitionOptions(speechtotext.WithLanguage(cfg.Speech.Language)),
		interview.WithUtteranceOptions(
			texttospeech.WithVoice(cfg.Speech.Voice),
			texttospeech.WithLanguage(cfg.Speech.Language),
		),
	}
	if !cfg.Speech.Enabled || cfg.Audio.Backend == config.BackendNone {
		return opts, func() {}
	}
	if cfg.Speech.DeepgramAPIKey == "" {
		logger.Warn("no Deepgram API key configured, answers must be typed", "env", config.EnvDeepgramKey)
		return opts, func() {}
	}

	dev, err := openDevice(cfg.Audio.Backend)
	if err != nil {
		logger.Warn("audio device unavailable, answers must be typed", "backend", cfg.Audio.Backend, "error", err)
		return append(opts, interview.WithPermissionRequester(devicePermission{err: err})), func() {}
	}

	opts = append(opts,
		interview.WithPermissionRequester(devicePermission{}),
		interview.WithRecognizer(sttdeepgram.NewRecognizer(dev, sttdeepgram.WithAPIKey(cfg.Speech.DeepgramAPIKey))),
	)

	synthesizer, err := ttsdeepgram.NewSynthesizer(dev,
		ttsdeepgram.WithAPIKey(cfg.Speech.DeepgramAPIKey),
		ttsdeepgram.WithVoice(ttsdeepgram.Voice(cfg.Speech.Voice)),
	)
	if err != nil {
		logger.Warn("speech synthesis unavailable, questions are shown only", "error", err)
	} else {
		opts = append(opts, interview.WithSynthesizer(synthesizer))
	}

	return opts, func() {
		if synthesizer != nil {
			_ = synthesizer.Close()
		}
		dev.Close()
	}
}
