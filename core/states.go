package interview

import "fmt"

type State string

const (
	StateInit            State = "init"
	StateResumeSelection State = "resume_selection"
	StatePreparing       State = "preparing"
	StateAskingQuestion  State = "asking_question"
	StateListening       State = "listening"
	StateSubmitting      State = "submitting"
	StateCompleting      State = "completing"
	StateForceCompleting State = "force_completing"
	StateCompleted       State = "completed"
	StateError           State = "error"
)

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateError
}

// transitions lists the states reachable from each state. ForceCompleting
// and Error are reachable from every non-terminal state and are not repeated
// here.
var transitions = map[State][]State{
	StateInit:            {StateResumeSelection, StatePreparing},
	StateResumeSelection: {StatePreparing, StateResumeSelection},
	StatePreparing:       {StateAskingQuestion, StateCompleting},
	StateAskingQuestion:  {StateListening, StateCompleting},
	StateListening:       {StateSubmitting, StateAskingQuestion},
	StateSubmitting:      {StateListening, StateAskingQuestion, StateCompleting},
	StateCompleting:      {StateCompleted},
	StateForceCompleting: {StateCompleting},
	StateCompleted:       {},
	StateError:           {},
}

func canTransition(from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateForceCompleting || to == StateError {
		return from != StateForceCompleting || to == StateError
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
