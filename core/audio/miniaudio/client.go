// Package miniaudio provides microphone capture and speaker playback backed
// by miniaudio through malgo.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-interview/core/audio"
)

var (
	_ audio.Source = (*Client)(nil)
	_ audio.Sink   = (*Client)(nil)
)

// Client owns one malgo context with a playback and a capture device on it.
type Client struct {
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

// NewClient opens the default playback and capture devices. Failures are
// classified with [audio.ClassifyDeviceError] so callers can degrade to
// text input instead of aborting.
func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, audio.ClassifyDeviceError(fmt.Errorf("malgo context init failed: %w", err))
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to initialize playback client: %w", err))
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to start playback device: %w", err))
	}

	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to initialize capture client: %w", err))
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	if err := c.captureClient.Start(onAudio); err != nil {
		return audio.ClassifyDeviceError(err)
	}
	return nil
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Mark(name string, callback func(string)) error {
	return c.playbackClient.Mark(name, callback)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
