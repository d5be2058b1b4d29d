package events

const (
	KindCaptureStarted       Kind = "capture.started"
	KindCaptureStopped       Kind = "capture.stopped"
	KindCaptureAnswerUpdated Kind = "capture.answer_updated"
	KindCaptureSegment       Kind = "capture.segment"
	KindCaptureDegraded      Kind = "capture.degraded"
	KindCaptureNotice        Kind = "capture.notice"
)

type CaptureStarted struct{ Base }

func NewCaptureStarted() CaptureStarted {
	return CaptureStarted{Base: NewBase(KindCaptureStarted)}
}

type CaptureStopped struct{ Base }

func NewCaptureStopped() CaptureStopped {
	return CaptureStopped{Base: NewBase(KindCaptureStopped)}
}

// CaptureAnswerUpdated carries the accumulated final text followed by the
// current interim text.
type CaptureAnswerUpdated struct {
	Base
	Answer string
}

func NewCaptureAnswerUpdated(answer string) CaptureAnswerUpdated {
	return CaptureAnswerUpdated{Base: NewBase(KindCaptureAnswerUpdated), Answer: answer}
}

type CaptureSegment struct {
	Base
	Segment string
}

func NewCaptureSegment(segment string) CaptureSegment {
	return CaptureSegment{Base: NewBase(KindCaptureSegment), Segment: segment}
}

type CaptureDegraded struct {
	Base
	Err error
}

func NewCaptureDegraded(err error) CaptureDegraded {
	return CaptureDegraded{Base: NewBase(KindCaptureDegraded), Err: err}
}

type CaptureNotice struct {
	Base
	Message string
	// Persistent notices stay visible until the session ends.
	Persistent bool
}

func NewCaptureNotice(message string, persistent bool) CaptureNotice {
	return CaptureNotice{Base: NewBase(KindCaptureNotice), Message: message, Persistent: persistent}
}
