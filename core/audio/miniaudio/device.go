package miniaudio

import (
	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-interview/core/audio"
)

const (
	channels      = 1
	sampleFormat  = malgo.FormatS16
	capturePeriod = 480 // 30ms at 16kHz
)

var bytesPerFrame = malgo.SampleSizeInBytes(sampleFormat) * channels

// newDeviceConfig is the mono 16-bit configuration shared by capture and
// playback.
func newDeviceConfig(deviceType malgo.DeviceType) malgo.DeviceConfig {
	config := malgo.DefaultDeviceConfig(deviceType)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Alsa.NoMMap = 1

	switch deviceType {
	case malgo.Capture:
		config.Capture.Format = sampleFormat
		config.Capture.Channels = channels
		config.PerformanceProfile = malgo.LowLatency
		config.PeriodSizeInFrames = capturePeriod
		config.Periods = 3
	case malgo.Playback:
		config.Playback.Format = sampleFormat
		config.Playback.Channels = channels
		config.PeriodSizeInFrames = config.SampleRate / 10
		config.Periods = 4
	}
	return config
}
