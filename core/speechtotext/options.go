package speechtotext

import "github.com/koscakluka/ema-interview/core/audio"

// ErrorCode is the closed set of failures a recognizer reports.
type ErrorCode string

const (
	ErrorPermissionDenied ErrorCode = "permission-denied"
	ErrorNetwork          ErrorCode = "network"
	ErrorNoSpeech         ErrorCode = "no-speech"
	ErrorAudioCapture     ErrorCode = "audio-capture"
	ErrorAborted          ErrorCode = "aborted"
	ErrorOther            ErrorCode = "other"
)

// Result is one recognition hypothesis. Final results are settled and will
// not be revised, interim ones may be replaced by later deliveries.
type Result struct {
	Transcript string
	IsFinal    bool
}

type RecognitionOptions struct {
	Language       string
	Continuous     bool
	InterimResults bool

	// ResultCallback receives results starting at resultIndex within the
	// current stream. A recognizer may redeliver an index it already
	// reported, including ones already marked final.
	ResultCallback func(resultIndex int, results []Result)
	// ErrorCallback is called for every recognizer failure. An error does
	// not end the stream by itself, EndCallback is always called when the
	// stream ends.
	ErrorCallback func(code ErrorCode, err error)
	StartCallback func()
	// EndCallback is called exactly once per started stream.
	EndCallback func()
	// SpeechEndedCallback is called when the recognizer detects the end of
	// an utterance while the stream keeps running.
	SpeechEndedCallback func()

	EncodingInfo audio.EncodingInfo
}

type RecognitionOption func(*RecognitionOptions)

func NewRecognitionOptions(opts ...RecognitionOption) RecognitionOptions {
	options := RecognitionOptions{
		Language:            "en-US",
		Continuous:          true,
		InterimResults:      true,
		ResultCallback:      func(int, []Result) {},
		ErrorCallback:       func(ErrorCode, error) {},
		StartCallback:       func() {},
		EndCallback:         func() {},
		SpeechEndedCallback: func() {},
		EncodingInfo:        audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLanguage(language string) RecognitionOption {
	return func(o *RecognitionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

func WithContinuous(continuous bool) RecognitionOption {
	return func(o *RecognitionOptions) { o.Continuous = continuous }
}

func WithInterimResults(interimResults bool) RecognitionOption {
	return func(o *RecognitionOptions) { o.InterimResults = interimResults }
}

func WithResultCallback(callback func(resultIndex int, results []Result)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ResultCallback = callback
		}
	}
}

func WithErrorCallback(callback func(code ErrorCode, err error)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithStartCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.StartCallback = callback
		}
	}
}

func WithEndCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithSpeechEndedCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.SpeechEndedCallback = callback
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) RecognitionOption {
	return func(o *RecognitionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}
