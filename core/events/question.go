package events

const (
	KindQuestionReceived   Kind = "question.received"
	KindTranscriptAppended Kind = "question.transcript_appended"
)

type QuestionReceived struct {
	Base
	QuestionID     string
	Prompt         string
	Difficulty     string
	Number         int
	TotalQuestions int
}

func NewQuestionReceived(questionID, prompt, difficulty string, number, totalQuestions int) QuestionReceived {
	return QuestionReceived{
		Base:           NewBase(KindQuestionReceived),
		QuestionID:     questionID,
		Prompt:         prompt,
		Difficulty:     difficulty,
		Number:         number,
		TotalQuestions: totalQuestions,
	}
}

type TranscriptAppended struct {
	Base
	Speaker  string
	Text     string
	Sequence int
}

func NewTranscriptAppended(speaker, text string, sequence int) TranscriptAppended {
	return TranscriptAppended{Base: NewBase(KindTranscriptAppended), Speaker: speaker, Text: text, Sequence: sequence}
}
