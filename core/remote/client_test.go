package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	interview "github.com/koscakluka/ema-interview/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/", WithToken("secret"), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}
	return client
}

func TestStartInterviewSendsResumeAndReadsNumericSessionID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/interview/start" {
			t.Errorf("expected POST /api/interview/start, got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"resumeId":42}` {
			t.Errorf("expected numeric resume id, got %s", body)
		}
		_, _ = io.WriteString(w, `{"sessionId": 7, "message": "Interview started successfully"}`)
	})

	sessionID, err := client.StartInterview(context.Background(), "42")
	if err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if sessionID != "7" {
		t.Fatalf("expected session id 7, got %q", sessionID)
	}
}

func TestGetNextQuestionMapsResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/interview/s-1/question" {
			t.Errorf("expected question path, got %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{
			"sessionId": "s-1",
			"questionId": 11,
			"currentQuestion": "How do you handle backpressure?",
			"jobRole": "Backend Engineer",
			"questionNumber": 2,
			"totalQuestions": 5,
			"isCompleted": false,
			"difficultyLevel": "INTERMEDIATE"
		}`)
	})

	question, err := client.GetNextQuestion(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("expected fetch to succeed, got %v", err)
	}
	expected := interview.Question{
		ID:             "11",
		Prompt:         "How do you handle backpressure?",
		Difficulty:     "INTERMEDIATE",
		Number:         2,
		TotalQuestions: 5,
		JobRole:        "Backend Engineer",
	}
	if *question != expected {
		t.Fatalf("expected %+v, got %+v", expected, *question)
	}
}

func TestGetNextQuestionReportsCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sessionId": 1, "isCompleted": true, "totalQuestions": 5, "questionNumber": 5}`)
	})

	question, err := client.GetNextQuestion(context.Background(), "1")
	if err != nil {
		t.Fatalf("expected fetch to succeed, got %v", err)
	}
	if !question.IsCompleted {
		t.Fatalf("expected the interview to be reported completed")
	}
}

func TestGetNextQuestionRejectsMissingPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sessionId": 1, "questionId": 3, "isCompleted": false}`)
	})

	if _, err := client.GetNextQuestion(context.Background(), "1"); err == nil {
		t.Fatalf("expected a question without text to be rejected")
	}
}

func TestSubmitAnswerReturnsFeedback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/interview/submit-answer" {
			t.Errorf("expected POST /api/interview/submit-answer, got %s %s", r.Method, r.URL.Path)
		}
		var request map[string]any
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("expected JSON body, got %v", err)
		}
		if request["sessionId"] != float64(7) || request["questionId"] != "q-abc" || request["answer"] != "Queues and retries" {
			t.Errorf("unexpected submit body %v", request)
		}
		_, _ = io.WriteString(w, `{"sessionId": 7, "feedback": "Good structure."}`)
	})

	result, err := client.SubmitAnswer(context.Background(), "7", "q-abc", "Queues and retries")
	if err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}
	if result.Feedback != "Good structure." {
		t.Fatalf("expected feedback, got %q", result.Feedback)
	}
}

func TestNonSuccessStatusIsRemoteCallFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message": "Error ending interview: session not found"}`)
	})

	err := client.EndInterview(context.Background(), "9")

	if !errors.Is(err, interview.ErrRemoteCallFailure) {
		t.Fatalf("expected ErrRemoteCallFailure, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a status error, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Message != "Error ending interview: session not found" {
		t.Fatalf("expected status and server message, got %+v", statusErr)
	}
}

func TestNonJSONErrorBodyIsKept(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.GetInterviewReport(context.Background(), "9")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "upstream down" {
		t.Fatalf("expected the raw body as message, got %v", err)
	}
}

func TestGetInterviewReportMapsResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/interview/3/report" {
			t.Errorf("expected report path, got %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{
			"sessionId": 3,
			"totalScore": 78,
			"durationMinutes": 0,
			"totalQuestionsAsked": 5,
			"overallFeedback": "Solid fundamentals.",
			"performanceTier": "GOOD",
			"strengthAreas": ["Go", "Testing"],
			"improvementAreas": ["System design"]
		}`)
	})

	report, err := client.GetInterviewReport(context.Background(), "3")
	if err != nil {
		t.Fatalf("expected report fetch to succeed, got %v", err)
	}
	if report.TotalScore != 78 || report.TotalQuestionsAsked != 5 || report.DurationMinutes != 0 {
		t.Fatalf("unexpected report totals %+v", report)
	}
	if report.PerformanceTier != "GOOD" || len(report.StrengthAreas) != 2 || report.ImprovementAreas[0] != "System design" {
		t.Fatalf("unexpected report details %+v", report)
	}
}

func TestListResumes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/resume/user" {
			t.Errorf("expected resume path, got %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[
			{"id": 1, "jobRole": "SRE", "fileName": "cv.pdf", "createdAt": "2025-03-02T10:15:30"},
			{"id": "r-2", "jobRole": "Backend Engineer", "fileName": "resume.pdf"}
		]`)
	})

	resumes, err := client.ListResumes(context.Background())
	if err != nil {
		t.Fatalf("expected resumes to be listed, got %v", err)
	}
	if len(resumes) != 2 {
		t.Fatalf("expected two resumes, got %d", len(resumes))
	}
	if resumes[0].ID != "1" || resumes[0].JobRole != "SRE" || resumes[0].FileName != "cv.pdf" {
		t.Fatalf("unexpected first resume %+v", resumes[0])
	}
	if expected := time.Date(2025, 3, 2, 10, 15, 30, 0, time.UTC); !resumes[0].CreatedAt.Equal(expected) {
		t.Fatalf("expected upload time %s, got %s", expected, resumes[0].CreatedAt)
	}
	if resumes[1].ID != "r-2" || !resumes[1].CreatedAt.IsZero() {
		t.Fatalf("unexpected second resume %+v", resumes[1])
	}
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	for _, baseURL := range []string{"", "ftp://example.com", "://broken"} {
		if _, err := NewClient(baseURL); err == nil {
			t.Fatalf("expected %q to be rejected", baseURL)
		}
	}
}

func TestFlexIDRoundTrip(t *testing.T) {
	testCases := []struct {
		input    string
		expected flexID
		encoded  string
	}{
		{input: `12`, expected: "12", encoded: `12`},
		{input: `"12"`, expected: "12", encoded: `12`},
		{input: `"abc"`, expected: "abc", encoded: `"abc"`},
		{input: `null`, expected: "", encoded: `""`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			var id flexID
			if err := json.Unmarshal([]byte(testCase.input), &id); err != nil {
				t.Fatalf("expected %s to decode, got %v", testCase.input, err)
			}
			if id != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, id)
			}
			encoded, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("expected %q to encode, got %v", id, err)
			}
			if string(encoded) != testCase.encoded {
				t.Fatalf("expected %s, got %s", testCase.encoded, encoded)
			}
		})
	}
}
