package deepgram

import (
	"net/url"
	"testing"

	"github.com/koscakluka/ema-interview/core/audio"
)

func TestCheckEncoding(t *testing.T) {
	testCases := []struct {
		name     string
		encoding audio.EncodingInfo
		valid    bool
	}{
		{name: "default", encoding: audio.GetDefaultEncodingInfo(), valid: true},
		{name: "linear16 48k", encoding: audio.EncodingInfo{SampleRate: 48000, Format: audio.EncodingLinear16}, valid: true},
		{name: "mulaw 8k", encoding: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}, valid: true},
		{name: "mulaw 16k", encoding: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw}},
		{name: "odd rate", encoding: audio.EncodingInfo{SampleRate: 22050, Format: audio.EncodingLinear16}},
		{name: "zero", encoding: audio.EncodingInfo{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := checkEncoding(testCase.encoding)
			if testCase.valid && err != nil {
				t.Fatalf("expected %+v to be accepted, got %v", testCase.encoding, err)
			}
			if !testCase.valid && err == nil {
				t.Fatalf("expected %+v to be rejected", testCase.encoding)
			}
		})
	}
}

func TestSetEncodingParams(t *testing.T) {
	params := url.Values{}
	setEncodingParams(params, audio.GetDefaultEncodingInfo())

	if params.Get("encoding") != "linear16" || params.Get("sample_rate") != "16000" || params.Get("channels") != "1" {
		t.Fatalf("unexpected params %v", params)
	}
}
