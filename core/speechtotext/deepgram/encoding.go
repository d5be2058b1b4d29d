package deepgram

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/koscakluka/ema-interview/core/audio"
)

// listenSampleRates lists the sample rates the listen endpoint accepts for
// each raw encoding.
var listenSampleRates = map[string][]int{
	audio.EncodingLinear16.Name(): {8000, 16000, 24000, 32000, 48000},
	audio.EncodingMulaw.Name():    {8000},
	audio.EncodingALaw.Name():     {8000},
}

func checkEncoding(encoding audio.EncodingInfo) error {
	name := encoding.Format.Name()
	rates, ok := listenSampleRates[name]
	if !ok {
		return fmt.Errorf("unsupported encoding %q", name)
	}
	if !slices.Contains(rates, encoding.SampleRate) {
		return fmt.Errorf("unsupported sample rate %d for %s", encoding.SampleRate, name)
	}
	return nil
}

// setEncodingParams describes a mono stream in encoding to the listen
// endpoint.
func setEncodingParams(params url.Values, encoding audio.EncodingInfo) {
	params.Set("encoding", encoding.Format.Name())
	params.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	params.Set("channels", "1")
}
