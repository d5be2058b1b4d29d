package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	interview "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/internal/config"
)

type stubExportSource struct {
	transcript []interview.TranscriptEntry
	report     *interview.Report
}

func (s stubExportSource) Session() interview.Session { return interview.Session{ID: "s-9"} }

func (s stubExportSource) Transcript() []interview.TranscriptEntry { return s.transcript }

func (s stubExportSource) Report() (interview.Report, bool) {
	if s.report == nil {
		return interview.Report{}, false
	}
	return *s.report, true
}

func TestTranscriptExportRoundTrip(t *testing.T) {
	source := stubExportSource{
		transcript: []interview.TranscriptEntry{
			{Speaker: interview.SpeakerAI, Text: "Why Go?", Sequence: 0, At: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
			{Speaker: interview.SpeakerUser, Text: "Simplicity.", Sequence: 1, At: time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC)},
		},
		report: &interview.Report{TotalScore: 71, TotalQuestionsAsked: 1, DurationMinutes: 2},
	}
	export := newTranscriptExport(source)
	if _, err := uuid.Parse(export.ID); err != nil {
		t.Fatalf("expected a uuid export id, got %q", export.ID)
	}

	path := filepath.Join(t.TempDir(), "transcript.json")
	if err := writeExport(path, export); err != nil {
		t.Fatalf("expected export to be written, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected export to be readable, got %v", err)
	}

	var decoded transcriptExport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if decoded.SessionID != "s-9" || len(decoded.Entries) != 2 || decoded.Entries[1].Text != "Simplicity." {
		t.Fatalf("unexpected export %+v", decoded)
	}
	if decoded.Report == nil || decoded.Report.TotalScore != 71 {
		t.Fatalf("expected the report to be exported, got %+v", decoded.Report)
	}
}

func TestTranscriptExportWithoutReport(t *testing.T) {
	export := newTranscriptExport(stubExportSource{})

	data, err := json.Marshal(export)
	if err != nil {
		t.Fatalf("expected export to encode, got %v", err)
	}
	if !strings.Contains(string(data), `"entries":[]`) || strings.Contains(string(data), `"report"`) {
		t.Fatalf("expected empty entries and no report, got %s", data)
	}
}

func TestExportSchemaDescribesTranscript(t *testing.T) {
	data, err := exportSchema()
	if err != nil {
		t.Fatalf("expected schema to build, got %v", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("expected schema to be JSON, got %v", err)
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected schema properties, got %v", schema)
	}
	for _, name := range []string{"id", "sessionId", "exportedAt", "entries", "report"} {
		if _, ok := properties[name]; !ok {
			t.Fatalf("expected property %q in schema", name)
		}
	}
	if !strings.Contains(string(data), `"USER"`) {
		t.Fatalf("expected speaker values in schema, got %s", data)
	}
}

func TestSpeechOptionsWithoutSpeech(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*config.Config)
	}{
		{name: "disabled", modify: func(cfg *config.Config) { cfg.Speech.Enabled = false }},
		{name: "no backend", modify: func(cfg *config.Config) { cfg.Audio.Backend = config.BackendNone }},
		{name: "no key", modify: func(cfg *config.Config) { cfg.Speech.DeepgramAPIKey = "" }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Speech.DeepgramAPIKey = "key"
			testCase.modify(cfg)

			opts, closeSpeech := speechOptions(cfg)
			defer closeSpeech()
			if len(opts) != 2 {
				t.Fatalf("expected only language and voice options, got %d", len(opts))
			}
		})
	}
}
