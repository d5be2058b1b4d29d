package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// flexID accepts both numeric and string identifiers and sends numeric
// ones back as JSON numbers.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier is neither a string nor a number: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type startRequest struct {
	ResumeID flexID `json:"resumeId"`
}

type startResponse struct {
	SessionID flexID `json:"sessionId"`
	Message   string `json:"message"`
}

// interviewResponse is returned both for question fetches and answer
// submits. Field names follow the domain types so they can be copied over.
type interviewResponse struct {
	SessionID      flexID `json:"sessionId"`
	ID             flexID `json:"questionId"`
	Prompt         string `json:"currentQuestion"`
	JobRole        string `json:"jobRole"`
	Number         int    `json:"questionNumber"`
	TotalQuestions int    `json:"totalQuestions"`
	IsCompleted    bool   `json:"isCompleted"`
	Difficulty     string `json:"difficultyLevel"`
	Feedback       string `json:"feedback"`
}

type submitRequest struct {
	SessionID  flexID `json:"sessionId"`
	QuestionID flexID `json:"questionId"`
	Answer     string `json:"answer"`
}

type reportResponse struct {
	TotalScore          int      `json:"totalScore"`
	TotalQuestionsAsked int      `json:"totalQuestionsAsked"`
	DurationMinutes     int      `json:"durationMinutes"`
	OverallFeedback     string   `json:"overallFeedback"`
	PerformanceTier     string   `json:"performanceTier"`
	StrengthAreas       []string `json:"strengthAreas"`
	ImprovementAreas    []string `json:"improvementAreas"`
}

type resumeResponse struct {
	ID       flexID `json:"id"`
	JobRole  string `json:"jobRole"`
	FileName string `json:"fileName"`
	Uploaded string `json:"createdAt"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp reads server timestamps with or without a zone. Zoneless
// values are taken as UTC.
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
