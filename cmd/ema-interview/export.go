package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	interview "github.com/koscakluka/ema-interview/core"
)

// transcriptExport is the JSON document written by run --export.
type transcriptExport struct {
	ID         string                      `json:"id" jsonschema:"format=uuid"`
	SessionID  string                      `json:"sessionId"`
	ExportedAt time.Time                   `json:"exportedAt"`
	Entries    []interview.TranscriptEntry `json:"entries"`
	Report     *interview.Report           `json:"report,omitempty"`
}

type exportSource interface {
	Session() interview.Session
	Transcript() []interview.TranscriptEntry
	Report() (interview.Report, bool)
}

func newTranscriptExport(source exportSource) transcriptExport {
	export := transcriptExport{
		ID:         uuid.NewString(),
		SessionID:  source.Session().ID,
		ExportedAt: time.Now().UTC(),
		Entries:    source.Transcript(),
	}
	if export.Entries == nil {
		export.Entries = []interview.TranscriptEntry{}
	}
	if report, ok := source.Report(); ok {
		export.Report = &report
	}
	return export
}

func writeExport(path string, export transcriptExport) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
