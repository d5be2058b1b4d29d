package interview

import (
	"strings"
	"time"
)

type Speaker string

const (
	SpeakerAI   Speaker = "AI"
	SpeakerUser Speaker = "USER"
)

// Session is the client side view of a running interview.
type Session struct {
	ID     string
	Status State
	// QuestionIndex counts the questions already answered.
	QuestionIndex    int
	TotalQuestions   int
	RemainingSeconds int
}

type Question struct {
	ID         string
	Prompt     string
	Difficulty string
	// Number is 1-based.
	Number         int
	TotalQuestions int
	IsCompleted    bool
	JobRole        string
}

type TranscriptEntry struct {
	Speaker  Speaker   `json:"speaker" jsonschema:"enum=AI,enum=USER"`
	Text     string    `json:"text"`
	Sequence int       `json:"sequence"`
	At       time.Time `json:"at"`
}

type Report struct {
	TotalScore          int      `json:"totalScore"`
	TotalQuestionsAsked int      `json:"totalQuestionsAsked"`
	DurationMinutes     int      `json:"durationMinutes"`
	OverallFeedback     string   `json:"overallFeedback,omitempty"`
	PerformanceTier     string   `json:"performanceTier,omitempty"`
	StrengthAreas       []string `json:"strengthAreas,omitempty"`
	ImprovementAreas    []string `json:"improvementAreas,omitempty"`
}

type Resume struct {
	ID        string
	JobRole   string
	FileName  string
	CreatedAt time.Time
}

type SubmitResult struct {
	// Feedback is spoken before the next question when not empty.
	Feedback string
}

type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureListening CaptureState = "listening"
	// CaptureDegraded accepts typed answers only.
	CaptureDegraded CaptureState = "degraded"
)

type PlaybackState string

const (
	PlaybackIdle     PlaybackState = "idle"
	PlaybackSpeaking PlaybackState = "speaking"
)

type CompletionReason string

const (
	ReasonTimeout CompletionReason = "timeout"
	ReasonUser    CompletionReason = "user"
)

type transcript struct {
	entries []TranscriptEntry
}

func (t *transcript) append(speaker Speaker, text string) TranscriptEntry {
	entry := TranscriptEntry{
		Speaker:  speaker,
		Text:     strings.TrimSpace(text),
		Sequence: len(t.entries),
		At:       time.Now(),
	}
	t.entries = append(t.entries, entry)
	return entry
}

func (t *transcript) snapshot() []TranscriptEntry {
	entries := make([]TranscriptEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}
