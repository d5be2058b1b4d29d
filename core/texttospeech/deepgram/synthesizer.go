// Package deepgram implements a speech synthesizer on top of the Deepgram
// streaming speak websocket.
package deepgram

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-interview/core/audio"
	"github.com/koscakluka/ema-interview/core/texttospeech"
)

const (
	defaultSpeakURL = "wss://api.deepgram.com/v1/speak"
	utteranceMark   = "utterance"
)

type SynthesizerOption func(*Synthesizer)

// WithAPIKey sets the Deepgram API key. DEEPGRAM_API_KEY is used otherwise.
func WithAPIKey(apiKey string) SynthesizerOption {
	return func(s *Synthesizer) { s.apiKey = apiKey }
}

func WithSpeakURL(speakURL string) SynthesizerOption {
	return func(s *Synthesizer) { s.speakURL = speakURL }
}

func WithVoice(voice Voice) SynthesizerOption {
	return func(s *Synthesizer) { s.voice = voice }
}

// Synthesizer turns text into audio and plays it through an [audio.Sink].
// A single utterance is active at a time, speaking again cancels the
// previous one.
//
// Deepgram has no notion of rate or pitch, those utterance options are
// ignored. Volume is applied to linear16 audio before it reaches the sink.
type Synthesizer struct {
	sink     audio.Sink
	apiKey   string
	speakURL string
	voice    Voice
	dialer   *websocket.Dialer

	mu      sync.Mutex
	current *speakStream
}

func NewSynthesizer(sink audio.Sink, opts ...SynthesizerOption) (*Synthesizer, error) {
	s := &Synthesizer{
		sink:     sink,
		speakURL: defaultSpeakURL,
		voice:    defaultVoice,
		dialer:   websocket.DefaultDialer,
	}
	if apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		s.apiKey = apiKey
	}
	for _, opt := range opts {
		opt(s)
	}

	if !IsAvailableVoice(s.voice) {
		return nil, fmt.Errorf("invalid voice %q", s.voice)
	}
	return s, nil
}

type speakStream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	options texttospeech.UtteranceOptions

	startOnce sync.Once
	flushed   atomic.Bool
	cancelled atomic.Bool
	resolved  atomic.Bool
}

// Speak starts speaking text. Callbacks from opts report when playback
// starts, ends or fails. A returned error means no callback will follow.
func (s *Synthesizer) Speak(ctx context.Context, text string, opts ...texttospeech.UtteranceOption) error {
	encodingOpts := []texttospeech.UtteranceOption{}
	if s.sink != nil {
		encodingOpts = append(encodingOpts, texttospeech.WithEncodingInfo(s.sink.EncodingInfo()))
	}
	options := texttospeech.NewUtteranceOptions(append(encodingOpts, opts...)...)

	if err := s.Cancel(); err != nil {
		logger.Debug("failed to cancel previous utterance", "error", err)
	}

	if strings.TrimSpace(text) == "" {
		options.EndCallback()
		return nil
	}

	voice := s.voice
	if options.Voice != "" {
		if !IsAvailableVoice(Voice(options.Voice)) {
			return fmt.Errorf("invalid voice %q", options.Voice)
		}
		voice = Voice(options.Voice)
	}

	conn, err := s.connectWebsocket(ctx, voice, options.EncodingInfo)
	if err != nil {
		return err
	}

	stream := &speakStream{conn: conn, options: options}
	s.mu.Lock()
	s.current = stream
	s.mu.Unlock()

	go s.readAndProcessMessages(stream)

	if err := stream.writeJSON(speakMessage{Type: "Speak", Text: text}); err != nil {
		stream.abandon()
		return err
	}
	if err := stream.writeJSON(controlMessage{Type: "Flush"}); err != nil {
		stream.abandon()
		return err
	}
	return nil
}

// Cancel stops the active utterance and drops its queued audio. The
// utterance reports [texttospeech.ErrCancelled].
func (s *Synthesizer) Cancel() error {
	s.mu.Lock()
	stream := s.current
	s.current = nil
	s.mu.Unlock()
	if stream == nil || !stream.cancelled.CompareAndSwap(false, true) {
		return nil
	}

	stream.resolve(texttospeech.ErrCancelled)

	var errs error
	if err := stream.writeJSON(controlMessage{Type: "Clear"}); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := stream.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = errors.Join(errs, fmt.Errorf("failed to close deepgram websocket: %w", err))
	}
	if s.sink != nil {
		s.sink.ClearBuffer()
	}
	return errs
}

func (s *Synthesizer) Close() error {
	return s.Cancel()
}

func (s *Synthesizer) connectWebsocket(ctx context.Context, voice Voice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	speakURL, err := url.Parse(s.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	queryParams := speakURL.Query()
	queryParams.Set("encoding", encodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	queryParams.Set("model", string(voice))
	queryParams.Set("container", "none")
	speakURL.RawQuery = queryParams.Encode()

	conn, _, err := s.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (s *Synthesizer) readAndProcessMessages(stream *speakStream) {
	defer stream.conn.Close()
	for {
		msgType, msg, err := stream.conn.ReadMessage()
		if err != nil {
			if !stream.flushed.Load() && !stream.cancelled.Load() {
				stream.resolve(fmt.Errorf("speech stream closed before completion: %w", err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if stream.cancelled.Load() || len(msg) == 0 {
				continue
			}
			stream.startOnce.Do(stream.options.StartCallback)
			if s.sink == nil {
				continue
			}
			chunk := applyVolume(msg, stream.options.Volume, stream.options.EncodingInfo)
			if err := s.sink.SendAudio(chunk); err != nil {
				logger.Debug("failed to send speech audio to sink", "error", err)
			}

		case websocket.TextMessage:
			s.processMessage(stream, msg)
		}
	}
}

func (s *Synthesizer) processMessage(stream *speakStream, msg []byte) {
	var parsedMsg struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		WarnMsg     string `json:"warn_msg"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Debug("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case "Flushed":
		if stream.cancelled.Load() || !stream.flushed.CompareAndSwap(false, true) {
			return
		}
		if s.sink == nil {
			stream.resolve(nil)
		} else if err := s.sink.Mark(utteranceMark, func(string) { stream.resolve(nil) }); err != nil {
			logger.Debug("failed to mark end of utterance", "error", err)
			stream.resolve(nil)
		}
		if err := stream.writeJSON(controlMessage{Type: "Close"}); err != nil {
			logger.Debug("failed to close deepgram speak stream", "error", err)
		}

	case "Warning":
		logger.Warn("deepgram speak warning", "message", parsedMsg.WarnMsg)

	case "Error":
		stream.resolve(fmt.Errorf("deepgram speak error: %s", parsedMsg.Description))
		_ = stream.conn.Close()
	}
}

type controlMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *speakStream) writeJSON(msg any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to deepgram websocket: %w", err)
	}
	return nil
}

// resolve reports the outcome of the utterance. Only the first call has an
// effect.
func (s *speakStream) resolve(err error) {
	if !s.resolved.CompareAndSwap(false, true) {
		return
	}
	if err != nil {
		s.options.ErrorCallback(err)
		return
	}
	s.options.EndCallback()
}

// abandon silences the stream without reporting an outcome.
func (s *speakStream) abandon() {
	s.resolved.Store(true)
	s.cancelled.Store(true)
	_ = s.conn.Close()
}

func applyVolume(chunk []byte, volume float64, encodingInfo audio.EncodingInfo) []byte {
	if volume == 1 || encodingInfo.Format != audio.EncodingLinear16 {
		return chunk
	}

	scaled := make([]byte, len(chunk))
	copy(scaled, chunk)
	for i := 0; i+1 < len(scaled); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(scaled[i:])))
		sample = math.Max(math.MinInt16, math.Min(math.MaxInt16, sample*volume))
		binary.LittleEndian.PutUint16(scaled[i:], uint16(int16(sample)))
	}
	return scaled
}
