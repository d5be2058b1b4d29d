// Package portaudio provides a blocking-stream capture and playback device
// backed by PortAudio.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-interview/core/audio"
)

var (
	_ audio.Source = (*Client)(nil)
	_ audio.Sink   = (*Client)(nil)
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	capturing atomic.Bool
	stopCh    chan struct{}

	writeMu sync.Mutex
	pending []byte
}

// NewClient opens a duplex default stream with the given frames per buffer.
func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to initialize portaudio: %w", err))
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to open portaudio stream: %w", err))
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, audio.ClassifyDeviceError(fmt.Errorf("failed to start portaudio stream: %w", err))
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if !c.capturing.CompareAndSwap(false, true) {
		return nil
	}

	stopCh := make(chan struct{})
	c.stopCh = stopCh
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.capturing.Store(false)
				return
			case <-stopCh:
				return
			default:
				if err := c.stream.Read(); err != nil {
					logger.Warn("portaudio read failed", "error", err)
					continue
				}

				audioBuffer := bytes.Buffer{}
				_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()
	return nil
}

func (c *Client) StopCapture() error {
	if c.capturing.CompareAndSwap(true, false) && c.stopCh != nil {
		close(c.stopCh)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	_ = c.stream.Stop()
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

// SendAudio writes whole buffers synchronously and keeps the remainder for
// the next call.
func (c *Client) SendAudio(chunk []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	bufferBytes := c.bufferSize * 2
	c.pending = append(c.pending, chunk...)
	for len(c.pending) >= bufferBytes {
		if err := binary.Read(bytes.NewReader(c.pending[:bufferBytes]), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to decode playback buffer: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write playback buffer: %w", err)
		}
		c.pending = c.pending[bufferBytes:]
	}

	return nil
}

func (c *Client) ClearBuffer() {
	c.writeMu.Lock()
	c.pending = nil
	c.writeMu.Unlock()
}

// Mark flushes the remainder padded with silence. Writes are blocking, so
// once the flush returns the audio before the mark has been handed to the
// device.
func (c *Client) Mark(name string, callback func(string)) error {
	c.writeMu.Lock()
	if rest := len(c.pending); rest > 0 {
		padded := make([]byte, c.bufferSize*2)
		copy(padded, c.pending)
		c.pending = nil
		if err := binary.Read(bytes.NewReader(padded), binary.LittleEndian, c.out); err == nil {
			if err := c.stream.Write(); err != nil {
				logger.Warn("portaudio flush failed", "error", err)
			}
		}
	}
	c.writeMu.Unlock()

	if callback != nil {
		callback(name)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
