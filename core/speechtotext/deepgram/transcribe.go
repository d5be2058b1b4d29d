// Package deepgram implements a continuous speech recognizer on top of the
// Deepgram live transcription websocket.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-interview/core/audio"
	"github.com/koscakluka/ema-interview/core/speechtotext"
)

const (
	defaultListenURL  = "wss://api.deepgram.com/v1/listen"
	keepAliveInterval = 5 * time.Second
)

type RecognizerOption func(*Recognizer)

// WithAPIKey sets the Deepgram API key. DEEPGRAM_API_KEY is used otherwise.
func WithAPIKey(apiKey string) RecognizerOption {
	return func(r *Recognizer) { r.apiKey = apiKey }
}

func WithListenURL(listenURL string) RecognizerOption {
	return func(r *Recognizer) { r.listenURL = listenURL }
}

func WithModel(model string) RecognizerOption {
	return func(r *Recognizer) { r.model = model }
}

// Recognizer streams audio from an [audio.Source] to Deepgram and reports
// results through [speechtotext.RecognitionOptions] callbacks. At most one
// stream is open at a time.
type Recognizer struct {
	source    audio.Source
	apiKey    string
	listenURL string
	model     string
	dialer    *websocket.Dialer

	mu     sync.Mutex
	stream *listenStream
}

func NewRecognizer(source audio.Source, opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		source:    source,
		listenURL: defaultListenURL,
		model:     "nova-3",
		dialer:    websocket.DefaultDialer,
	}
	if apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		r.apiKey = apiKey
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type listenStream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	options speechtotext.RecognitionOptions

	// resultIndex is the index the next final result will take.
	resultIndex   int
	stopRequested atomic.Bool
	lastAudioAt   atomic.Int64
	endOnce       sync.Once
}

// Start opens a new listening stream. Calling Start while a stream is open
// is a no-op. A stream that is already closing after Stop is left to finish
// on its own.
func (r *Recognizer) Start(ctx context.Context, opts ...speechtotext.RecognitionOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil && !r.stream.stopRequested.Load() {
		return nil
	}

	stream, err := r.open(ctx, opts...)
	if err != nil {
		return err
	}
	r.stream = stream

	go func() {
		stream.options.StartCallback()
		r.readAndProcessMessages(stream)
	}()
	go stream.keepAlive(ctx)

	return nil
}

func (r *Recognizer) open(ctx context.Context, opts ...speechtotext.RecognitionOption) (*listenStream, error) {
	if r.source == nil {
		return nil, speechtotext.NewError(speechtotext.ErrorAudioCapture, audio.ErrDeviceUnavailable)
	}

	options := speechtotext.NewRecognitionOptions(
		append([]speechtotext.RecognitionOption{speechtotext.WithEncodingInfo(r.source.EncodingInfo())}, opts...)...,
	)

	if err := checkEncoding(options.EncodingInfo); err != nil {
		return nil, speechtotext.NewError(speechtotext.ErrorAudioCapture, fmt.Errorf("invalid encoding: %w", err))
	}

	conn, err := r.connectWebsocket(ctx, connectionOptions{
		encoding:       options.EncodingInfo,
		language:       options.Language,
		interimResults: options.InterimResults,
	})
	if err != nil {
		return nil, speechtotext.NewError(speechtotext.ErrorNetwork, err)
	}

	stream := &listenStream{conn: conn, options: options}
	stream.lastAudioAt.Store(time.Now().UnixNano())
	if err := r.source.StartCapture(ctx, stream.sendAudio); err != nil {
		_ = conn.Close()
		return nil, speechtotext.NewError(speechtotext.CodeOf(audio.ClassifyDeviceError(err)), err)
	}

	return stream, nil
}

// Stop asks Deepgram to close the stream. EndCallback follows once the
// server acknowledges by closing the socket.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	stream := r.stream
	r.mu.Unlock()
	if stream == nil {
		return nil
	}

	if !stream.stopRequested.CompareAndSwap(false, true) {
		return nil
	}

	var errs error
	if err := r.source.StopCapture(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to stop audio capture: %w", err))
	}
	if err := stream.writeJSON(controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		errs = errors.Join(errs, err)
		_ = stream.conn.Close()
	}
	return errs
}

type connectionOptions struct {
	encoding       audio.EncodingInfo
	language       string
	interimResults bool
}

func (r *Recognizer) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	setEncodingParams(queryParams, options.encoding)
	queryParams.Set("model", r.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", strconv.FormatBool(options.interimResults))
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type controlMessage struct {
	Type string `json:"type"`
}

func (s *listenStream) writeJSON(msg any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to deepgram websocket: %w", err)
	}
	return nil
}

func (s *listenStream) sendAudio(chunk []byte) {
	if s.stopRequested.Load() {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.lastAudioAt.Store(time.Now().UnixNano())
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		logger.Debug("failed to send audio to deepgram", "error", err)
	}
}

func (s *listenStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.stopRequested.Load() {
				return
			}
			if time.Since(time.Unix(0, s.lastAudioAt.Load())) < keepAliveInterval {
				continue
			}
			if err := s.writeJSON(controlMessage{Type: "KeepAlive"}); err != nil {
				return
			}
		}
	}
}

func (r *Recognizer) readAndProcessMessages(stream *listenStream) {
	for {
		msgType, msg, err := stream.conn.ReadMessage()
		if err != nil {
			if !stream.stopRequested.Load() && !isBenignClose(err) {
				stream.options.ErrorCallback(speechtotext.ErrorNetwork, err)
			}
			r.finish(stream)
			return
		}
		if msgType == websocket.TextMessage {
			stream.processMessage(msg)
		}
	}
}

func (r *Recognizer) finish(stream *listenStream) {
	stream.endOnce.Do(func() {
		if !stream.stopRequested.Load() {
			_ = r.source.StopCapture()
		}
		_ = stream.conn.Close()

		r.mu.Lock()
		if r.stream == stream {
			r.stream = nil
		}
		r.mu.Unlock()

		stream.options.EndCallback()
	})
}

// isBenignClose reports socket closures that mean the service ended the
// stream on its own, either normally or because of its idle timeout.
func isBenignClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && strings.Contains(closeErr.Text, "NET-0001") {
		return true
	}
	return false
}

func (s *listenStream) processMessage(msg []byte) {
	var parsedMsg struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Debug("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Debug("failed to unmarshal deepgram transcript", "error", err)
			return
		}

		transcript := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}
		if transcript != "" {
			s.options.ResultCallback(s.resultIndex, []speechtotext.Result{{Transcript: transcript, IsFinal: msgResp.IsFinal}})
		}
		if msgResp.IsFinal && transcript != "" {
			s.resultIndex++
		}
		if msgResp.SpeechFinal {
			s.options.SpeechEndedCallback()
		}

	case api.TypeUtteranceEndResponse:
		s.options.SpeechEndedCallback()

	case api.TypeSpeechStartedResponse:

	default:
		if parsedMsg.Type == "Error" {
			s.options.ErrorCallback(speechtotext.ErrorOther, errors.New(parsedMsg.Description))
		}
	}
}
