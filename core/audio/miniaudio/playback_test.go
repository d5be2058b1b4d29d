package miniaudio

import (
	"testing"
	"time"
)

func TestPlaybackMarkFiresAfterQueuedAudioIsPlayed(t *testing.T) {
	player := &playbackClient{pending: make([]byte, 8)}
	fired := make(chan string, 1)
	if err := player.Mark("utterance-1", func(name string) { fired <- name }); err != nil {
		t.Fatalf("expected mark to register, got %v", err)
	}

	process := player.processAudio(2)
	out := make([]byte, 4)

	process(out, nil, 2)
	select {
	case name := <-fired:
		t.Fatalf("expected mark to wait for remaining audio, fired %q", name)
	case <-time.After(20 * time.Millisecond):
	}

	process(out, nil, 2)
	select {
	case name := <-fired:
		if name != "utterance-1" {
			t.Fatalf("expected mark %q, got %q", "utterance-1", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for mark")
	}
}

func TestPlaybackClearBufferReleasesMarks(t *testing.T) {
	player := &playbackClient{pending: make([]byte, 1024)}
	fired := 0
	_ = player.Mark("a", func(string) { fired++ })
	_ = player.Mark("b", func(string) { fired++ })

	player.ClearBuffer()

	if fired != 2 {
		t.Fatalf("expected 2 marks released on clear, got %d", fired)
	}
	if len(player.pending) != 0 {
		t.Fatalf("expected pending audio to be dropped, got %d bytes", len(player.pending))
	}
}
