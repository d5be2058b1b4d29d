package miniaudio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-interview/core/audio"
)

type audioHandler func(audio []byte)

// captureClient forwards microphone frames to the handler installed by
// Start. The device callback never blocks on mu.
type captureClient struct {
	mu      sync.Mutex
	device  *malgo.Device
	handler atomic.Pointer[audioHandler]
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	device, err := malgo.InitDevice(audioContext.Context, newDeviceConfig(malgo.Capture), malgo.DeviceCallbacks{
		Data: c.onFrames,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	c.device = device
	return nil
}

func (c *captureClient) onFrames(_, input []byte, frameCount uint32) {
	size := int(frameCount) * bytesPerFrame
	if size == 0 || len(input) < size {
		return
	}
	if handler := c.handler.Load(); handler != nil {
		(*handler)(input[:size])
	}
}

func (c *captureClient) Start(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("capture device not initialized: %w", audio.ErrDeviceUnavailable)
	}

	handler := audioHandler(onAudio)
	c.handler.Store(&handler)
	if c.device.IsStarted() {
		return nil
	}
	if err := c.device.Start(); err != nil {
		c.handler.Store(nil)
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

// Stop is a no-op when capture is not running.
func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.Store(nil)
	if c.device == nil || !c.device.IsStarted() {
		return nil
	}
	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.Store(nil)
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}
