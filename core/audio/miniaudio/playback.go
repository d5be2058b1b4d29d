package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-interview/core/audio"
)

type playbackClient struct {
	device *malgo.Device
	config malgo.DeviceConfig

	pending []byte
	marks   []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = newDeviceConfig(malgo.Playback)

	var err error
	if c.device, err = malgo.InitDevice(
		audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("playback device not initialized: %w", audio.ErrDeviceUnavailable)
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) SendAudio(chunk []byte) error {
	c.mu.Lock()
	started := c.device != nil && c.device.IsStarted()
	c.mu.Unlock()
	if !started {
		return fmt.Errorf("playback device not started: %w", audio.ErrDeviceUnavailable)
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = append(c.pending, chunk...)
	return nil
}

// ClearBuffer drops queued audio. Pending marks fire immediately so that
// nobody keeps waiting on audio that will never play.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	c.pending = nil
	marks := c.marks
	c.marks = nil
	c.audioMu.Unlock()

	fireMarks(marks)
}

func (c *playbackClient) Mark(name string, callback func(string)) error {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     name,
		position: len(c.pending),
		callback: callback,
	})
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		n := copy(pOutput[:min(need, len(pOutput))], c.pending)
		c.pending = c.pending[n:]
		passed := c.takePassedMarks(n)
		c.audioMu.Unlock()

		if len(passed) > 0 {
			go fireMarks(passed)
		}
	}
}

// takePassedMarks must be called with audioMu held.
func (c *playbackClient) takePassedMarks(played int) []playbackMark {
	passed := 0
	for i := range c.marks {
		if c.marks[i].position <= played {
			passed++
			continue
		}
		c.marks[i].position -= played
	}
	if passed == 0 {
		return nil
	}

	toCall := c.marks[:passed:passed]
	c.marks = c.marks[passed:]
	return toCall
}

func fireMarks(marks []playbackMark) {
	for _, mark := range marks {
		if mark.callback != nil {
			mark.callback(mark.name)
		}
	}
}
