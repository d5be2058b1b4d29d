package audio

// DefaultSampleRate is the rate both capture and playback devices run at.
const DefaultSampleRate = 16000

const (
	EncodingLinear16 encodingFormat = "linear16"
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
)

type encodingFormat string

// sampleSizes is the byte size of one mono sample per format.
var sampleSizes = map[encodingFormat]int{
	EncodingLinear16: 2,
	EncodingMulaw:    1,
	EncodingALaw:     1,
}

func (f encodingFormat) Name() string { return string(f) }

// ByteSize is the size of one sample, or -1 for an unknown format.
func (f encodingFormat) ByteSize() int {
	if size, ok := sampleSizes[f]; ok {
		return size
	}
	return -1
}

// EncodingInfo describes the raw mono audio exchanged between devices and
// speech engines.
type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format == ""
}

// BytesPerSecond is 0 when the format is unknown.
func (e EncodingInfo) BytesPerSecond() int {
	size := e.Format.ByteSize()
	if size < 0 {
		return 0
	}
	return e.SampleRate * size
}
