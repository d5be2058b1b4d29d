package events

const (
	KindSessionStarted      Kind = "session.started"
	KindSessionStateChanged Kind = "session.state_changed"
	KindSessionFailed       Kind = "session.failed"
	KindSessionReportReady  Kind = "session.report_ready"
	KindSessionCompleted    Kind = "session.completed"
)

type SessionStarted struct {
	Base
	SessionID string
}

func NewSessionStarted(sessionID string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID}
}

type SessionStateChanged struct {
	Base
	From string
	To   string
}

func NewSessionStateChanged(from, to string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
}

// SessionFailed reports a non-fatal operation failure.
type SessionFailed struct {
	Base
	Operation string
	Err       error
}

func NewSessionFailed(operation string, err error) SessionFailed {
	return SessionFailed{Base: NewBase(KindSessionFailed), Operation: operation, Err: err}
}

type SessionReportReady struct {
	Base
	TotalScore          int
	TotalQuestionsAsked int
	DurationMinutes     int
}

func NewSessionReportReady(totalScore, totalQuestionsAsked, durationMinutes int) SessionReportReady {
	return SessionReportReady{
		Base:                NewBase(KindSessionReportReady),
		TotalScore:          totalScore,
		TotalQuestionsAsked: totalQuestionsAsked,
		DurationMinutes:     durationMinutes,
	}
}

type SessionCompleted struct {
	Base
	// Reason is empty when all questions were answered.
	Reason string
}

func NewSessionCompleted(reason string) SessionCompleted {
	return SessionCompleted{Base: NewBase(KindSessionCompleted), Reason: reason}
}
