package deepgram

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-interview/core/audio"
	"github.com/koscakluka/ema-interview/core/texttospeech"
)

type testSink struct {
	mu      sync.Mutex
	audio   [][]byte
	cleared atomic.Int32
}

func (s *testSink) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (s *testSink) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, chunk)
	return nil
}

func (s *testSink) ClearBuffer() { s.cleared.Add(1) }

func (s *testSink) Mark(name string, callback func(string)) error {
	go callback(name)
	return nil
}

func (s *testSink) chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}

type utteranceRecorder struct {
	started atomic.Int32
	ended   atomic.Int32
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

func newUtteranceRecorder() *utteranceRecorder {
	return &utteranceRecorder{errs: make(chan error, 4), done: make(chan struct{})}
}

func (r *utteranceRecorder) options() []texttospeech.UtteranceOption {
	return []texttospeech.UtteranceOption{
		texttospeech.WithStartCallback(func() { r.started.Add(1) }),
		texttospeech.WithEndCallback(func() {
			r.ended.Add(1)
			r.once.Do(func() { close(r.done) })
		}),
		texttospeech.WithErrorCallback(func(err error) {
			r.errs <- err
			r.once.Do(func() { close(r.done) })
		}),
	}
}

func (r *utteranceRecorder) await(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for utterance to resolve")
	}
}

func newSpeakServer(t *testing.T, handle func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("model"); got != string(defaultVoice) {
			t.Errorf("expected default voice model, got %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	return server, "ws" + strings.TrimPrefix(server.URL, "http")
}

func readUntil(conn *websocket.Conn, msgType string) bool {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return false
		}
		if strings.Contains(string(msg), `"type":"`+msgType+`"`) {
			return true
		}
	}
}

func TestSynthesizerPlaysUtteranceUntilFlushed(t *testing.T) {
	server, speakURL := newSpeakServer(t, func(conn *websocket.Conn) {
		if !readUntil(conn, "Flush") {
			return
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 0, 2, 0})
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{3, 0, 4, 0})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Flushed","sequence_id":0}`))
		if readUntil(conn, "Close") {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}
	})
	defer server.Close()

	sink := &testSink{}
	synthesizer, err := NewSynthesizer(sink, WithAPIKey("test-key"), WithSpeakURL(speakURL))
	if err != nil {
		t.Fatalf("expected synthesizer to be created, got %v", err)
	}

	recorder := newUtteranceRecorder()
	if err := synthesizer.Speak(context.Background(), "Tell me about yourself.", recorder.options()...); err != nil {
		t.Fatalf("expected speak to succeed, got %v", err)
	}
	recorder.await(t)

	select {
	case err := <-recorder.errs:
		t.Fatalf("expected no error, got %v", err)
	default:
	}
	if got := recorder.ended.Load(); got != 1 {
		t.Fatalf("expected one end callback, got %d", got)
	}
	if got := recorder.started.Load(); got != 1 {
		t.Fatalf("expected one start callback, got %d", got)
	}
	if got := sink.chunks(); got != 2 {
		t.Fatalf("expected two audio chunks in sink, got %d", got)
	}
}

func TestSynthesizerCancelReportsCancelled(t *testing.T) {
	release := make(chan struct{})
	server, speakURL := newSpeakServer(t, func(conn *websocket.Conn) {
		if !readUntil(conn, "Flush") {
			return
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 0})
		<-release
	})
	defer server.Close()
	defer close(release)

	sink := &testSink{}
	synthesizer, err := NewSynthesizer(sink, WithAPIKey("test-key"), WithSpeakURL(speakURL))
	if err != nil {
		t.Fatalf("expected synthesizer to be created, got %v", err)
	}

	recorder := newUtteranceRecorder()
	if err := synthesizer.Speak(context.Background(), "A long question", recorder.options()...); err != nil {
		t.Fatalf("expected speak to succeed, got %v", err)
	}
	_ = synthesizer.Cancel()
	_ = synthesizer.Cancel()
	recorder.await(t)

	select {
	case err := <-recorder.errs:
		if !errors.Is(err, texttospeech.ErrCancelled) {
			t.Fatalf("expected cancelled error, got %v", err)
		}
	default:
		t.Fatalf("expected error callback on cancel")
	}
	if got := recorder.ended.Load(); got != 0 {
		t.Fatalf("expected no end callback after cancel, got %d", got)
	}
	if got := sink.cleared.Load(); got != 1 {
		t.Fatalf("expected sink buffer to be cleared once, got %d", got)
	}
}

func TestSynthesizerReportsServiceError(t *testing.T) {
	server, speakURL := newSpeakServer(t, func(conn *websocket.Conn) {
		if !readUntil(conn, "Flush") {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Error","description":"bad text"}`))
		_, _, _ = conn.ReadMessage()
	})
	defer server.Close()

	synthesizer, err := NewSynthesizer(&testSink{}, WithAPIKey("test-key"), WithSpeakURL(speakURL))
	if err != nil {
		t.Fatalf("expected synthesizer to be created, got %v", err)
	}

	recorder := newUtteranceRecorder()
	if err := synthesizer.Speak(context.Background(), "Hello", recorder.options()...); err != nil {
		t.Fatalf("expected speak to succeed, got %v", err)
	}
	recorder.await(t)

	select {
	case err := <-recorder.errs:
		if !strings.Contains(err.Error(), "bad text") {
			t.Fatalf("expected service error description, got %v", err)
		}
	default:
		t.Fatalf("expected error callback")
	}
}

func TestSynthesizerEmptyTextEndsImmediately(t *testing.T) {
	synthesizer, err := NewSynthesizer(&testSink{}, WithAPIKey("test-key"), WithSpeakURL("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("expected synthesizer to be created, got %v", err)
	}

	recorder := newUtteranceRecorder()
	if err := synthesizer.Speak(context.Background(), "   ", recorder.options()...); err != nil {
		t.Fatalf("expected empty speak to succeed, got %v", err)
	}
	if got := recorder.ended.Load(); got != 1 {
		t.Fatalf("expected immediate end callback, got %d", got)
	}
}

func TestNewSynthesizerRejectsUnknownVoice(t *testing.T) {
	if _, err := NewSynthesizer(&testSink{}, WithVoice("robot")); err == nil {
		t.Fatalf("expected unknown voice to be rejected")
	}
}

func TestApplyVolumeScalesLinear16(t *testing.T) {
	chunk := make([]byte, 4)
	binary.LittleEndian.PutUint16(chunk[0:], uint16(int16(1000)))
	negative := int16(-1000)
	binary.LittleEndian.PutUint16(chunk[2:], uint16(negative))

	scaled := applyVolume(chunk, 0.5, audio.GetDefaultEncodingInfo())

	if got := int16(binary.LittleEndian.Uint16(scaled[0:])); got != 500 {
		t.Fatalf("expected first sample to be 500, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(scaled[2:])); got != -500 {
		t.Fatalf("expected second sample to be -500, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(chunk[0:])); got != 1000 {
		t.Fatalf("expected original chunk to be untouched, got %d", got)
	}
	if same := applyVolume(chunk, 1, audio.GetDefaultEncodingInfo()); &same[0] != &chunk[0] {
		t.Fatalf("expected unit volume to return the chunk as is")
	}
}
