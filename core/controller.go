// Package interview drives a spoken mock interview: it asks questions through
// a speech synthesizer, listens for answers through a speech recognizer and
// talks to the remote session service, while a session timer can end the
// interview at any point.
package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-interview/core/events"
	"github.com/koscakluka/ema-interview/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	welcomeLine = "Welcome to your AI interview session. I will ask you questions based on your resume and the role you're applying for. Let's begin."
	// completedLine is spoken once every question has been answered and
	// after the time up line.
	completedLine = "Congratulations! You have completed all the interview questions. Let me prepare your detailed performance report."
	// endedLine is spoken when the interview is ended early.
	endedLine  = "Thank you for completing the interview. Let me prepare your performance report."
	timeUpLine = "Time is up. The interview session has ended."
)

// Controller owns a single interview session from resume selection to the
// final report.
type Controller struct {
	client      SessionClient
	permissions PermissionRequester
	capture     *captureManager
	synthesis   *synthesisManager
	timer       *sessionTimer

	eventHandlers   []EventHandler
	emit            eventEmitter
	sessionDuration time.Duration
	questionDelay   time.Duration
	fetchAttempts   int
	fetchRetryDelay time.Duration

	// opMu admits a single question fetch or answer submit at a time.
	opMu sync.Mutex
	// deviceMu makes stopping capture and starting playback, or checking
	// playback and starting capture, a single step.
	deviceMu sync.Mutex

	mu               sync.Mutex
	state            State
	session          Session
	question         *Question
	questionConsumed bool
	manualAnswer     string
	transcript       transcript
	report           *Report
	// finishing is set once a completion sequence owns the session.
	finishing bool
	// submitDone is closed when the in-flight answer submit resolves.
	submitDone chan struct{}

	// flow is cancelled when the question loop must stop, either because the
	// session is being force completed or closed.
	flow       context.Context
	cancelFlow context.CancelFunc
	closeOnce  sync.Once
	closed     chan struct{}
}

func NewController(client SessionClient, opts ...ControllerOption) *Controller {
	flow, cancelFlow := context.WithCancel(context.Background())
	c := &Controller{
		client:          client,
		capture:         newCaptureManager(),
		synthesis:       newSynthesisManager(),
		timer:           newSessionTimer(),
		sessionDuration: DefaultSessionDuration,
		questionDelay:   DefaultQuestionDelay,
		fetchAttempts:   DefaultFetchAttempts,
		fetchRetryDelay: DefaultFetchRetryDelay,
		state:           StateInit,
		flow:            flow,
		cancelFlow:      cancelFlow,
		closed:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.emit = newEventEmitter(c.eventHandlers)
	c.capture.emit = c.emit
	c.synthesis.emit = c.emit
	c.timer.emit = c.emit
	c.timer.onExpire = func() {
		go func() {
			if err := c.ForceComplete(context.Background(), ReasonTimeout); err != nil {
				logger.Warn("failed to complete interview after time ran out", "error", err)
			}
		}()
	}
	c.timer.remaining = int(c.sessionDuration / time.Second)
	c.session = Session{Status: StateInit, RemainingSeconds: c.timer.remaining}

	return c
}

// Start begins the interview for resumeID. Without a resume the controller
// moves to resume selection and returns the resumes to pick from.
func (c *Controller) Start(ctx context.Context, resumeID string) ([]Resume, error) {
	ctx, span := tracer.Start(ctx, "start interview")
	defer span.End()

	if c.isClosed() {
		return nil, ErrSessionClosed
	}
	if c.client == nil {
		err := fmt.Errorf("%w: no session client configured", ErrRemoteCallFailure)
		if transitionErr := c.transition(StateError); transitionErr != nil {
			err = errors.Join(err, transitionErr)
		}
		return nil, recordError(span, err)
	}

	if strings.TrimSpace(resumeID) == "" {
		return c.selectResume(ctx, span)
	}
	span.SetAttributes(attribute.String("interview.resume_id", resumeID))

	c.mu.Lock()
	err := checkTransition(c.state, StatePreparing)
	c.mu.Unlock()
	if err != nil {
		return nil, recordError(span, err)
	}

	c.requestPermission(ctx)

	sessionID, err := c.client.StartInterview(ctx, resumeID)
	if err != nil {
		return nil, c.remoteFailure(ctx, span, "start_interview", fmt.Errorf("failed to start interview: %w", err))
	}
	span.SetAttributes(attribute.String("interview.session_id", sessionID))

	c.mu.Lock()
	c.session.ID = sessionID
	c.mu.Unlock()
	if err := c.transition(StatePreparing); err != nil {
		return nil, recordError(span, err)
	}
	c.emit(events.NewSessionStarted(sessionID))

	flowCtx, cancel := c.flowContext(ctx)
	defer cancel()

	c.speak(flowCtx, welcomeLine)
	c.mu.Lock()
	if !c.finishing {
		c.timer.Start(c.sessionDuration)
	}
	c.mu.Unlock()
	if c.interrupted() {
		return nil, nil
	}

	if err := c.RequestNextQuestion(flowCtx); err != nil {
		return nil, recordError(span, err)
	}
	return nil, nil
}

func (c *Controller) selectResume(ctx context.Context, span trace.Span) ([]Resume, error) {
	if err := c.transition(StateResumeSelection); err != nil {
		return nil, recordError(span, err)
	}

	resumes, err := c.client.ListResumes(ctx)
	if err != nil {
		return nil, c.remoteFailure(ctx, span, "list_resumes", fmt.Errorf("failed to list resumes: %w", err))
	}
	return resumes, nil
}

func (c *Controller) requestPermission(ctx context.Context) {
	if c.permissions == nil {
		return
	}
	if err := c.permissions.RequestPermission(ctx); err != nil {
		c.capture.Fail(speechtotext.CodeOf(err), err)
	}
}

// RequestNextQuestion fetches the next question, speaks it and starts
// listening for the answer. When the remote side reports the interview is
// complete, the completion sequence runs instead. Failed fetches are retried
// a few times. When they keep failing the state is left in place so the
// call can be made again.
func (c *Controller) RequestNextQuestion(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "request next question")
	defer span.End()

	if c.isClosed() {
		return ErrSessionClosed
	}

	c.mu.Lock()
	state, sessionID := c.state, c.session.ID
	c.mu.Unlock()
	if state != StatePreparing && state != StateSubmitting {
		return recordError(span, fmt.Errorf("%w: cannot request a question from %s", ErrIllegalTransition, state))
	}

	if !c.opMu.TryLock() {
		return ErrOperationInFlight
	}
	flowCtx, cancel := c.flowContext(ctx)
	defer cancel()

	question, err := c.fetchQuestion(flowCtx, sessionID)
	c.opMu.Unlock()
	if err != nil {
		if c.interrupted() {
			return nil
		}
		return c.remoteFailure(ctx, span, "request_next_question", fmt.Errorf("failed to fetch question: %w", err))
	}
	if question == nil {
		return c.remoteFailure(ctx, span, "request_next_question", errors.New("remote returned no question"))
	}

	if question.IsCompleted {
		return c.complete(ctx)
	}

	if err := c.transition(StateAskingQuestion); err != nil {
		if c.interrupted() {
			return nil
		}
		return recordError(span, err)
	}
	if c.interrupted() {
		return nil
	}
	span.SetAttributes(
		attribute.String("interview.question_id", question.ID),
		attribute.Int("interview.question_number", question.Number),
	)

	stored := *question
	c.mu.Lock()
	c.question = &stored
	c.questionConsumed = false
	c.manualAnswer = ""
	c.session.TotalQuestions = question.TotalQuestions
	c.mu.Unlock()
	c.capture.Clear()
	c.emit(events.NewQuestionReceived(question.ID, question.Prompt, question.Difficulty, question.Number, question.TotalQuestions))

	c.speak(flowCtx, question.Prompt)
	if c.interrupted() {
		return nil
	}
	c.appendTranscript(SpeakerAI, question.Prompt)

	if err := c.transition(StateListening); err != nil {
		if c.interrupted() {
			return nil
		}
		return recordError(span, err)
	}
	c.armCapture()
	return nil
}

func (c *Controller) fetchQuestion(ctx context.Context, sessionID string) (*Question, error) {
	for attempt := 1; ; attempt++ {
		question, err := c.client.GetNextQuestion(ctx, sessionID)
		if err == nil || attempt >= c.fetchAttempts || ctx.Err() != nil {
			return question, err
		}
		logger.Warn("failed to fetch question, retrying", "attempt", attempt, "error", err)
		if sleepContext(ctx, c.fetchRetryDelay*time.Duration(attempt)) != nil {
			return nil, err
		}
	}
}

// SubmitAnswer sends the current answer. Typed text wins over captured
// speech when present, the two are never merged. On failure the session
// goes back to listening with the answer preserved.
func (c *Controller) SubmitAnswer(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "submit answer")
	defer span.End()

	if c.isClosed() {
		return ErrSessionClosed
	}

	c.mu.Lock()
	state, question, manual := c.state, c.question, strings.TrimSpace(c.manualAnswer)
	c.mu.Unlock()
	if state != StateListening {
		return recordError(span, fmt.Errorf("%w: cannot submit from %s", ErrIllegalTransition, state))
	}
	if question == nil {
		return recordError(span, ErrNoQuestion)
	}

	answer := manual
	if answer == "" {
		answer = strings.TrimSpace(c.capture.FinalAnswer())
	}
	if answer == "" {
		return ErrEmptyAnswer
	}

	if !c.opMu.TryLock() {
		return ErrOperationInFlight
	}
	submitDone := make(chan struct{})
	c.mu.Lock()
	if c.state != StateListening || c.finishing {
		state := c.state
		c.mu.Unlock()
		c.opMu.Unlock()
		return recordError(span, fmt.Errorf("%w: cannot submit from %s", ErrIllegalTransition, state))
	}
	c.setStateLocked(StateSubmitting)
	c.submitDone = submitDone
	sessionID := c.session.ID
	c.mu.Unlock()
	c.emit(events.NewSessionStateChanged(string(StateListening), string(StateSubmitting)))

	if err := c.capture.Stop(); err != nil {
		logger.Debug("failed to stop speech capture before submitting", "error", err)
	}

	result, err := c.client.SubmitAnswer(ctx, sessionID, question.ID, answer)
	if err != nil {
		c.mu.Lock()
		c.submitDone = nil
		reverted := c.state == StateSubmitting && !c.finishing
		if reverted {
			c.setStateLocked(StateListening)
		}
		c.mu.Unlock()
		close(submitDone)
		c.opMu.Unlock()

		if reverted {
			c.emit(events.NewSessionStateChanged(string(StateSubmitting), string(StateListening)))
			c.armCapture()
		}
		return c.remoteFailure(ctx, span, "submit_answer", fmt.Errorf("failed to submit answer: %w", err))
	}

	c.mu.Lock()
	entry := c.transcript.append(SpeakerUser, answer)
	c.session.QuestionIndex++
	c.questionConsumed = true
	c.manualAnswer = ""
	c.submitDone = nil
	c.mu.Unlock()
	close(submitDone)
	c.opMu.Unlock()

	c.capture.Clear()
	c.emit(events.NewTranscriptAppended(string(entry.Speaker), entry.Text, entry.Sequence))
	answersSubmitted.Add(ctx, 1)
	if c.interrupted() {
		return nil
	}

	flowCtx, cancel := c.flowContext(ctx)
	defer cancel()

	if result != nil && strings.TrimSpace(result.Feedback) != "" {
		c.speak(flowCtx, result.Feedback)
	}
	if err := sleepContext(flowCtx, c.questionDelay); err != nil {
		return nil
	}
	return c.RequestNextQuestion(flowCtx)
}

// ForceComplete ends the interview early. An answer submit in flight is
// allowed to finish first. Repeated or concurrent calls collapse into the
// first one.
func (c *Controller) ForceComplete(ctx context.Context, reason CompletionReason) error {
	ctx, span := tracer.Start(ctx, "force complete interview",
		trace.WithAttributes(attribute.String("interview.reason", string(reason))))
	defer span.End()

	c.mu.Lock()
	if c.finishing || c.state.IsTerminal() {
		c.mu.Unlock()
		return nil
	}
	c.finishing = true
	submitDone := c.submitDone
	c.mu.Unlock()

	c.cancelFlow()
	if submitDone != nil {
		select {
		case <-submitDone:
		case <-ctx.Done():
			return recordError(span, fmt.Errorf("interrupted while waiting for answer submit: %w", ctx.Err()))
		}
	}

	c.mu.Lock()
	from := c.state
	if err := checkTransition(from, StateForceCompleting); err != nil {
		c.mu.Unlock()
		return recordError(span, err)
	}
	c.setStateLocked(StateForceCompleting)
	if c.question != nil && !c.questionConsumed {
		c.session.QuestionIndex++
		c.questionConsumed = true
	}
	sessionID := c.session.ID
	c.mu.Unlock()
	c.emit(events.NewSessionStateChanged(string(from), string(StateForceCompleting)))

	c.timer.Stop()
	c.stopCapture("force complete")
	if err := c.synthesis.Cancel(); err != nil {
		logger.Debug("failed to cancel speech synthesis", "error", err)
	}

	closingLine := endedLine
	if reason == ReasonTimeout {
		c.speak(ctx, timeUpLine)
		closingLine = completedLine
	}
	return c.finish(ctx, span, sessionID, closingLine, reason)
}

// complete runs the completion sequence after the last question.
func (c *Controller) complete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "complete interview")
	defer span.End()

	c.mu.Lock()
	if c.finishing {
		c.mu.Unlock()
		return nil
	}
	from := c.state
	if err := checkTransition(from, StateCompleting); err != nil {
		c.mu.Unlock()
		return recordError(span, err)
	}
	c.finishing = true
	c.setStateLocked(StateCompleting)
	sessionID := c.session.ID
	c.mu.Unlock()
	c.emit(events.NewSessionStateChanged(string(from), string(StateCompleting)))

	c.timer.Stop()
	c.stopCapture("complete")
	return c.finish(context.WithoutCancel(ctx), span, sessionID, completedLine, "")
}

// finish ends the remote session, speaks the closing line and fetches the
// report exactly once.
func (c *Controller) finish(ctx context.Context, span trace.Span, sessionID, closingLine string, reason CompletionReason) error {
	var errs error
	if sessionID != "" {
		if err := c.client.EndInterview(ctx, sessionID); err != nil {
			errs = errors.Join(errs, c.remoteFailure(ctx, span, "end_interview", fmt.Errorf("failed to end interview: %w", err)))
		}
		c.speak(ctx, closingLine)
	}

	if c.State() != StateCompleting {
		if err := c.transition(StateCompleting); err != nil {
			return recordError(span, errors.Join(errs, err))
		}
	}

	var report *Report
	if sessionID != "" {
		fetched, err := c.client.GetInterviewReport(ctx, sessionID)
		if err != nil {
			errs = errors.Join(errs, c.remoteFailure(ctx, span, "get_interview_report", fmt.Errorf("failed to fetch report: %w", err)))
		} else if fetched != nil {
			stored := *fetched
			if stored.DurationMinutes == 0 {
				stored.DurationMinutes = int(math.Round(c.timer.Elapsed().Minutes()))
			}
			report = &stored
		}
	}

	c.timer.Stop()
	c.mu.Lock()
	c.report = report
	c.mu.Unlock()
	if report != nil {
		c.emit(events.NewSessionReportReady(report.TotalScore, report.TotalQuestionsAsked, report.DurationMinutes))
	}

	if err := c.transition(StateCompleted); err != nil {
		return recordError(span, errors.Join(errs, err))
	}
	c.emit(events.NewSessionCompleted(string(reason)))
	return errs
}

// SetManualAnswer stores typed answer text. It takes precedence over
// captured speech on submit.
func (c *Controller) SetManualAnswer(text string) {
	c.mu.Lock()
	c.manualAnswer = text
	c.mu.Unlock()
}

// ClearAnswer drops both typed and captured answer text.
func (c *Controller) ClearAnswer() {
	c.SetManualAnswer("")
	c.capture.Clear()
}

// ReplayQuestion speaks the current question again while listening.
// Captured text is kept and listening resumes afterwards.
func (c *Controller) ReplayQuestion(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "replay question")
	defer span.End()

	c.mu.Lock()
	question := c.question
	from := c.state
	if from != StateListening || question == nil {
		c.mu.Unlock()
		if question == nil {
			return recordError(span, ErrNoQuestion)
		}
		return recordError(span, fmt.Errorf("%w: cannot replay from %s", ErrIllegalTransition, from))
	}
	c.setStateLocked(StateAskingQuestion)
	c.mu.Unlock()
	c.emit(events.NewSessionStateChanged(string(from), string(StateAskingQuestion)))

	flowCtx, cancel := c.flowContext(ctx)
	defer cancel()
	c.speak(flowCtx, question.Prompt)

	if err := c.transition(StateListening); err != nil {
		if c.interrupted() {
			return nil
		}
		return recordError(span, err)
	}
	c.armCapture()
	return nil
}

// ToggleCapture stops listening when listening and starts it otherwise.
// Captured text is kept either way.
func (c *Controller) ToggleCapture() error {
	if c.capture.State() == CaptureListening {
		return c.capture.Stop()
	}
	if c.State() != StateListening {
		return fmt.Errorf("%w: can only listen while waiting for an answer", ErrIllegalTransition)
	}
	return c.startListening()
}

// RetryCapture leaves degraded capture mode and starts listening again.
// It fails when recognition was disabled for the rest of the session.
func (c *Controller) RetryCapture() error {
	if !c.capture.Retry() {
		if err := c.capture.DegradedErr(); err != nil {
			return fmt.Errorf("speech capture cannot be retried: %w", err)
		}
		return fmt.Errorf("speech capture cannot be retried in state %s", c.capture.State())
	}
	if c.State() != StateListening {
		return nil
	}
	return c.startListening()
}

// Close tears the session down: timer, capture and synthesis are stopped
// in that order. It is safe to call repeatedly.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancelFlow()

		c.timer.Stop()
		c.stopCapture("close")
		if err := c.synthesis.Cancel(); err != nil {
			logger.Debug("failed to cancel speech synthesis on close", "error", err)
		}
	})
}

// speak stops capture and plays text, waiting for it to finish. Synthesis
// failures are logged by the synthesis manager and otherwise ignored.
func (c *Controller) speak(ctx context.Context, text string) {
	c.deviceMu.Lock()
	if err := c.capture.Stop(); err != nil {
		logger.Debug("failed to stop speech capture before speaking", "error", err)
	}
	utterance := c.synthesis.Speak(ctx, text)
	c.deviceMu.Unlock()

	if err := utterance.Wait(ctx); err != nil && ctx.Err() != nil {
		if err := c.synthesis.CancelUtterance(utterance); err != nil {
			logger.Debug("failed to cancel speech synthesis", "error", err)
		}
	}
}

// startListening starts capture unless the session has left listening or
// is being torn down. The check and the start happen under deviceMu, which
// every capture stop on the way out also takes.
func (c *Controller) startListening() error {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	if c.interrupted() {
		return fmt.Errorf("%w: session is ending", ErrIllegalTransition)
	}
	if state := c.State(); state != StateListening {
		return fmt.Errorf("%w: cannot listen from %s", ErrIllegalTransition, state)
	}
	if c.synthesis.State() == PlaybackSpeaking {
		return fmt.Errorf("%w: cannot listen while speaking", ErrIllegalTransition)
	}
	return c.capture.Start(c.flow)
}

// armCapture starts listening or leaves the session in typed answer mode
// when capture is unavailable.
func (c *Controller) armCapture() {
	if err := c.startListening(); err != nil && !c.interrupted() {
		logger.Warn("speech capture unavailable, accepting typed answers", "error", err)
	}
}

func (c *Controller) stopCapture(when string) {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	if err := c.capture.Stop(); err != nil {
		logger.Debug("failed to stop speech capture", "when", when, "error", err)
	}
}

func (c *Controller) appendTranscript(speaker Speaker, text string) {
	c.mu.Lock()
	entry := c.transcript.append(speaker, text)
	c.mu.Unlock()
	c.emit(events.NewTranscriptAppended(string(entry.Speaker), entry.Text, entry.Sequence))
}

func (c *Controller) transition(to State) error {
	c.mu.Lock()
	from := c.state
	if err := checkTransition(from, to); err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(to)
	c.mu.Unlock()

	c.emit(events.NewSessionStateChanged(string(from), string(to)))
	return nil
}

func (c *Controller) setStateLocked(to State) {
	c.state = to
	c.session.Status = to
}

func (c *Controller) remoteFailure(ctx context.Context, span trace.Span, operation string, err error) error {
	err = fmt.Errorf("%w: %w", ErrRemoteCallFailure, err)
	remoteFailures.Add(ctx, 1)
	logger.Warn("remote session call failed", "operation", operation, "error", err)
	c.emit(events.NewSessionFailed(operation, err))
	return recordError(span, err)
}

// flowContext derives a context from ctx that is also cancelled when the
// question loop is stopped.
func (c *Controller) flowContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if c.interrupted() {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(c.flow, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// interrupted reports whether the question loop was stopped by a forced
// completion or by Close.
func (c *Controller) interrupted() bool {
	return c.flow.Err() != nil
}

func (c *Controller) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Session() Session {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	session.RemainingSeconds = int(c.timer.Remaining() / time.Second)
	return session
}

// Question returns the current question, if any.
func (c *Controller) Question() (Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.question == nil {
		return Question{}, false
	}
	return *c.question, true
}

func (c *Controller) Transcript() []TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.snapshot()
}

// CurrentAnswer is the answer that would be submitted right now, with the
// live interim text appended while speaking.
func (c *Controller) CurrentAnswer() string {
	c.mu.Lock()
	manual := strings.TrimSpace(c.manualAnswer)
	c.mu.Unlock()
	if manual != "" {
		return manual
	}
	return c.capture.Answer()
}

func (c *Controller) CaptureState() CaptureState {
	return c.capture.State()
}

func (c *Controller) PlaybackState() PlaybackState {
	return c.synthesis.State()
}

// Report returns the final report once the session completed.
func (c *Controller) Report() (Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return Report{}, false
	}
	return *c.report, true
}

// Elapsed is the session time used so far.
func (c *Controller) Elapsed() time.Duration {
	return c.timer.Elapsed()
}
