package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-interview/core/events"
	"github.com/koscakluka/ema-interview/core/speechtotext"
	"github.com/koscakluka/ema-interview/core/texttospeech"
)

type stubClient struct {
	mu            sync.Mutex
	sessionID     string
	questions     []Question
	nextQuestion  int
	resumes       []Resume
	report        *Report
	startResumeID string
	submitted     []string

	startErr  error
	fetchErr  error
	submitErr error
	// fetchFailures fails that many fetches before fetchErr is consulted.
	fetchFailures int

	// submitGate blocks SubmitAnswer until closed when set.
	submitGate    chan struct{}
	submitStarted chan struct{}

	fetches atomic.Int32
	submits atomic.Int32
	ends    atomic.Int32
	reports atomic.Int32
}

func newStubClient(totalQuestions int) *stubClient {
	client := &stubClient{
		sessionID: "s1",
		report:    &Report{TotalScore: 80, TotalQuestionsAsked: totalQuestions, DurationMinutes: 12},
	}
	for i := 1; i <= totalQuestions; i++ {
		client.questions = append(client.questions, Question{
			ID:             fmt.Sprintf("q%d", i),
			Prompt:         fmt.Sprintf("Question number %d?", i),
			Difficulty:     "BASIC",
			Number:         i,
			TotalQuestions: totalQuestions,
		})
	}
	return client
}

func (s *stubClient) StartInterview(_ context.Context, resumeID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startResumeID = resumeID
	if s.startErr != nil {
		return "", s.startErr
	}
	return s.sessionID, nil
}

func (s *stubClient) GetNextQuestion(ctx context.Context, _ string) (*Question, error) {
	s.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchFailures > 0 {
		s.fetchFailures--
		return nil, errors.New("question service unavailable")
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.nextQuestion >= len(s.questions) {
		return &Question{IsCompleted: true, TotalQuestions: len(s.questions), Number: len(s.questions)}, nil
	}
	question := s.questions[s.nextQuestion]
	s.nextQuestion++
	return &question, nil
}

func (s *stubClient) SubmitAnswer(_ context.Context, _, _, answer string) (*SubmitResult, error) {
	s.submits.Add(1)
	s.mu.Lock()
	gate, started := s.submitGate, s.submitStarted
	s.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, answer)
	return &SubmitResult{}, nil
}

func (s *stubClient) EndInterview(context.Context, string) error {
	s.ends.Add(1)
	return nil
}

func (s *stubClient) GetInterviewReport(context.Context, string) (*Report, error) {
	s.reports.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil, errors.New("no report")
	}
	report := *s.report
	return &report, nil
}

func (s *stubClient) ListResumes(context.Context) ([]Resume, error) {
	return s.resumes, nil
}

func (s *stubClient) submittedAnswers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.submitted...)
}

// stubRecognizer hands control of the recognition callbacks to the test.
type stubRecognizer struct {
	mu       sync.Mutex
	options  []speechtotext.RecognitionOptions
	startErr error
	// beforeStart runs at the top of Start, outside the stub lock.
	beforeStart func()

	starts atomic.Int32
	stops  atomic.Int32
}

func (r *stubRecognizer) Start(_ context.Context, opts ...speechtotext.RecognitionOption) error {
	if r.beforeStart != nil {
		r.beforeStart()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.starts.Add(1)
	if r.startErr != nil {
		return r.startErr
	}
	r.options = append(r.options, speechtotext.NewRecognitionOptions(opts...))
	return nil
}

func (r *stubRecognizer) Stop() error {
	r.stops.Add(1)
	if options, ok := r.latest(); ok {
		go options.EndCallback()
	}
	return nil
}

func (r *stubRecognizer) latest() (speechtotext.RecognitionOptions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.options) == 0 {
		return speechtotext.RecognitionOptions{}, false
	}
	return r.options[len(r.options)-1], true
}

func (r *stubRecognizer) stream(t *testing.T) speechtotext.RecognitionOptions {
	t.Helper()
	options, ok := r.latest()
	if !ok {
		t.Fatalf("expected a recognition stream to be open")
	}
	return options
}

// stubSynthesizer records utterances. Unless hold is set it completes each
// utterance right away.
type stubSynthesizer struct {
	hold bool

	mu      sync.Mutex
	spoken  []string
	pending []texttospeech.UtteranceOptions

	cancels atomic.Int32
}

func (s *stubSynthesizer) Speak(_ context.Context, text string, opts ...texttospeech.UtteranceOption) error {
	options := texttospeech.NewUtteranceOptions(opts...)
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	if s.hold {
		s.pending = append(s.pending, options)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	options.StartCallback()
	options.EndCallback()
	return nil
}

func (s *stubSynthesizer) Cancel() error {
	s.cancels.Add(1)
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, options := range pending {
		options.ErrorCallback(texttospeech.ErrCancelled)
	}
	return nil
}

// finishAll completes every held utterance.
func (s *stubSynthesizer) finishAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, options := range pending {
		options.EndCallback()
	}
}

func (s *stubSynthesizer) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type manualTicks struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicks() *manualTicks {
	return &manualTicks{ch: make(chan time.Time)}
}

func (m *manualTicks) C() <-chan time.Time { return m.ch }
func (m *manualTicks) Stop()               { m.stopped.Store(true) }

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Kind() == kind {
			count++
		}
	}
	return count
}

func (r *eventRecorder) stateChanges() []events.SessionStateChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changes []events.SessionStateChanged
	for _, event := range r.events {
		if change, ok := event.(events.SessionStateChanged); ok {
			changes = append(changes, change)
		}
	}
	return changes
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !condition() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", description)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
