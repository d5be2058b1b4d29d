// Package tui is the terminal front end of an interview session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	interview "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/events"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWidth   = 80
	transcriptTail = 6
)

// Interview is the part of the session controller the view drives.
type Interview interface {
	Start(ctx context.Context, resumeID string) ([]interview.Resume, error)
	SubmitAnswer(ctx context.Context) error
	SetManualAnswer(text string)
	ClearAnswer()
	ReplayQuestion(ctx context.Context) error
	ToggleCapture() error
	RetryCapture() error
	ForceComplete(ctx context.Context, reason interview.CompletionReason) error
	RequestNextQuestion(ctx context.Context) error
	State() interview.State
	CurrentAnswer() string
	Report() (interview.Report, bool)
}

type startedMsg struct {
	resumes []interview.Resume
	err     error
}

type operationMsg struct {
	operation string
	err       error
}

type Model struct {
	ctx      context.Context
	session  Interview
	bridge   *EventBridge
	resumeID string

	input    textinput.Model
	resumes  []interview.Resume
	selected int
	// choices keeps the picked list so the picker can come back when
	// starting the chosen resume fails.
	choices []interview.Resume

	question  events.QuestionReceived
	asked     bool
	state     string
	remaining time.Duration
	level     events.TimerLevel
	answer    string
	notice    string
	degraded  bool
	speaking  bool

	transcript []events.TranscriptAppended
	report     *interview.Report
	completed  bool
	busy       string
	// pendingInput is restored into the input when a submit fails.
	pendingInput string
	err          error
	width        int
}

// New builds the view for session. Events must be fed to bridge by the
// controller. With an empty resumeID the view lets the user pick one.
func New(ctx context.Context, session Interview, bridge *EventBridge, resumeID string) Model {
	input := textinput.New()
	input.Placeholder = "Speak, or type your answer here..."
	input.CharLimit = 4000
	input.Width = defaultWidth - 4
	input.Focus()

	return Model{
		ctx:      ctx,
		session:  session,
		bridge:   bridge,
		resumeID: resumeID,
		input:    input,
		width:    defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.wait(), m.start(m.resumeID), textinput.Blink)
}

func (m Model) start(resumeID string) tea.Cmd {
	return func() tea.Msg {
		resumes, err := m.session.Start(m.ctx, resumeID)
		return startedMsg{resumes: resumes, err: err}
	}
}

func (m Model) run(operation string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return operationMsg{operation: operation, err: fn(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case eventMsg:
		m = m.apply(msg.event)
		return m, m.bridge.wait()

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.busy = ""
			if !m.asked && len(m.choices) > 0 && m.session.State() == interview.StateResumeSelection {
				m.resumes = m.choices
			}
			return m, nil
		}
		if len(msg.resumes) > 0 {
			m.resumes = msg.resumes
			m.selected = 0
		} else if m.resumeID == "" && !m.asked {
			m.notice = "No resumes found. Upload one first."
		}
		return m, nil

	case operationMsg:
		m.busy = ""
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, interview.ErrEmptyAnswer):
			m.notice = "Say or type an answer first."
		default:
			m.err = msg.err
		}
		// The answer only needs restoring when the submit was rolled back,
		// not when the follow-up question fetch failed.
		reverted := m.session.State() == interview.StateListening
		if msg.operation == "submit" && msg.err != nil && m.pendingInput != "" && reverted {
			m.input.SetValue(m.pendingInput)
			m.session.SetManualAnswer(m.pendingInput)
		}
		m.pendingInput = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == keyQuit {
		return m, tea.Quit
	}
	if m.completed {
		switch key {
		case keyAltQuit, keySubmit, keyClear:
			return m, tea.Quit
		}
		return m, nil
	}
	if len(m.resumes) > 0 && !m.asked {
		return m.handleResumeKey(key)
	}

	switch key {
	case keySubmit:
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Submitting your answer..."
		m.err = nil
		m.notice = ""
		m.pendingInput = strings.TrimSpace(m.input.Value())
		m.input.Reset()
		return m, m.run("submit", m.session.SubmitAnswer)

	case keyClear:
		m.input.Reset()
		m.session.ClearAnswer()
		m.answer = ""
		return m, nil

	case keyReplay:
		return m, m.run("replay", m.session.ReplayQuestion)

	case keyToggle:
		if err := m.session.ToggleCapture(); err != nil {
			m.err = err
		}
		return m, nil

	case keyRetry:
		if err := m.session.RetryCapture(); err != nil {
			m.err = err
		} else {
			m.degraded = false
			m.notice = ""
		}
		return m, nil

	case keyNext:
		if m.busy != "" || !m.canRefetch() {
			return m, nil
		}
		m.busy = "Fetching the next question..."
		m.err = nil
		return m, m.run("next", m.session.RequestNextQuestion)

	case keyEnd:
		m.busy = "Ending the interview..."
		return m, m.run("end", func(ctx context.Context) error {
			return m.session.ForceComplete(ctx, interview.ReasonUser)
		})
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.session.SetManualAnswer(value)
	}
	return m, cmd
}

func (m Model) handleResumeKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case keyUp:
		if m.selected > 0 {
			m.selected--
		}
	case keyDown:
		if m.selected < len(m.resumes)-1 {
			m.selected++
		}
	case keySubmit:
		resume := m.resumes[m.selected]
		m.choices = m.resumes
		m.resumes = nil
		m.err = nil
		m.resumeID = resume.ID
		m.busy = "Preparing your interview..."
		return m, m.start(resume.ID)
	}
	return m, nil
}

func (m Model) apply(event events.Event) Model {
	switch event := event.(type) {
	case events.SessionStateChanged:
		m.state = event.To
		if event.To == string(interview.StateListening) {
			m.busy = ""
		}
	case events.QuestionReceived:
		m.question = event
		m.asked = true
		m.busy = ""
		m.answer = ""
		m.notice = ""
		m.err = nil
	case events.TranscriptAppended:
		m.transcript = append(m.transcript, event)
	case events.CaptureAnswerUpdated:
		m.answer = event.Answer
	case events.CaptureNotice:
		m.notice = event.Message
	case events.CaptureDegraded:
		m.degraded = true
	case events.PlaybackStarted:
		m.speaking = true
	case events.PlaybackEnded:
		m.speaking = false
	case events.TimerTicked:
		m.remaining = event.Remaining
	case events.TimerThresholdCrossed:
		m.level = event.Level
		m.remaining = event.Remaining
	case events.TimerExpired:
		m.remaining = 0
		m.busy = "Time is up, wrapping up..."
	case events.SessionFailed:
		m.err = event.Err
	case events.SessionReportReady:
		if report, ok := m.session.Report(); ok {
			m.report = &report
		}
	case events.SessionCompleted:
		m.completed = true
		m.busy = ""
		if report, ok := m.session.Report(); ok {
			m.report = &report
		}
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder
	wrap := max(m.width-4, 20)

	b.WriteString(titleStyle.Render("EMA mock interview"))
	if m.asked && !m.completed {
		b.WriteString("  ")
		b.WriteString(m.timerView())
	}
	b.WriteString("\n\n")

	switch {
	case m.completed:
		b.WriteString(m.reportView(wrap))
	case len(m.resumes) > 0 && !m.asked:
		b.WriteString(m.resumeView())
	case m.asked:
		b.WriteString(m.questionView(wrap))
	default:
		b.WriteString(dimStyle.Render("Connecting to the interview service..."))
		b.WriteString("\n")
	}

	if m.busy != "" {
		b.WriteString("\n" + dimStyle.Render(m.busy) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + warningStyle.Render(wordwrap.String(m.notice, wrap)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(wordwrap.String(m.err.Error(), wrap)) + "\n")
		if m.busy == "" && m.canRefetch() {
			b.WriteString(dimStyle.Render("Press ctrl+n to fetch the question again.") + "\n")
		}
	}

	if !m.completed && m.asked {
		b.WriteString("\n" + dimStyle.Render(wordwrap.String(helpLine, wrap)) + "\n")
	}
	if m.completed {
		b.WriteString("\n" + dimStyle.Render("Press q to quit.") + "\n")
	}
	return b.String()
}

// canRefetch reports whether the session is stuck between questions after
// a failed fetch.
func (m Model) canRefetch() bool {
	if m.completed || m.err == nil {
		return false
	}
	state := m.session.State()
	return state == interview.StatePreparing || state == interview.StateSubmitting
}

func (m Model) timerView() string {
	text := formatRemaining(m.remaining)
	switch m.level {
	case events.TimerLevelDanger:
		return dangerStyle.Render(text)
	case events.TimerLevelWarning:
		return warningStyle.Render(text)
	default:
		return timerStyle.Render(text)
	}
}

func (m Model) questionView(wrap int) string {
	var b strings.Builder

	header := fmt.Sprintf("Question %d of %d", m.question.Number, m.question.TotalQuestions)
	if m.question.Difficulty != "" {
		header += " · " + strings.ToLower(m.question.Difficulty)
	}
	b.WriteString(dimStyle.Render(header) + "\n")
	b.WriteString(boxStyle.Render(wordwrap.String(m.question.Prompt, wrap-4)) + "\n\n")

	status := "Listening"
	switch {
	case m.speaking:
		status = "Interviewer speaking"
	case m.degraded:
		status = "Microphone off, type your answer"
	case m.state != string(interview.StateListening):
		status = strings.ReplaceAll(m.state, "_", " ")
	}
	b.WriteString(dimStyle.Render(status) + "\n")

	if spoken := strings.TrimSpace(m.answer); spoken != "" && strings.TrimSpace(m.input.Value()) == "" {
		b.WriteString(userStyle.Render(wordwrap.String(spoken, wrap)) + "\n")
	}
	b.WriteString(m.input.View() + "\n")

	if len(m.transcript) > 0 {
		b.WriteString("\n" + dimStyle.Render("Transcript") + "\n")
		for _, entry := range m.transcript[max(len(m.transcript)-transcriptTail, 0):] {
			b.WriteString(transcriptLine(entry, wrap) + "\n")
		}
	}
	return b.String()
}

func transcriptLine(entry events.TranscriptAppended, wrap int) string {
	if entry.Speaker == string(interview.SpeakerAI) {
		return aiStyle.Render("AI: ") + wordwrap.String(entry.Text, wrap-4)
	}
	return userStyle.Render("You: ") + wordwrap.String(entry.Text, wrap-5)
}

func (m Model) resumeView() string {
	var b strings.Builder
	b.WriteString("Pick the resume to interview for:\n\n")
	for i, resume := range m.resumes {
		cursor, role := "  ", resume.JobRole
		if i == m.selected {
			cursor, role = selectStyle.Render("> "), selectStyle.Render(resume.JobRole)
		}
		b.WriteString(cursor + role)
		if resume.FileName != "" {
			b.WriteString(dimStyle.Render(" (" + resume.FileName + ")"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + dimStyle.Render("up/down choose · enter start · ctrl+c quit") + "\n")
	return b.String()
}

func (m Model) reportView(wrap int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Interview complete") + "\n\n")
	if m.report == nil {
		b.WriteString(dimStyle.Render("The performance report is not available.") + "\n")
		return b.String()
	}

	report := m.report
	fmt.Fprintf(&b, "Score: %d\n", report.TotalScore)
	fmt.Fprintf(&b, "Questions answered: %d\n", report.TotalQuestionsAsked)
	fmt.Fprintf(&b, "Duration: %d min\n", report.DurationMinutes)
	if report.PerformanceTier != "" {
		fmt.Fprintf(&b, "Tier: %s\n", report.PerformanceTier)
	}
	if report.OverallFeedback != "" {
		b.WriteString("\n" + wordwrap.String(report.OverallFeedback, wrap) + "\n")
	}
	if len(report.StrengthAreas) > 0 {
		b.WriteString("\n" + userStyle.Render("Strengths") + "\n")
		for _, area := range report.StrengthAreas {
			b.WriteString("  • " + area + "\n")
		}
	}
	if len(report.ImprovementAreas) > 0 {
		b.WriteString("\n" + warningStyle.Render("To improve") + "\n")
		for _, area := range report.ImprovementAreas {
			b.WriteString("  • " + area + "\n")
		}
	}
	return b.String()
}

func formatRemaining(remaining time.Duration) string {
	seconds := max(int(remaining/time.Second), 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
