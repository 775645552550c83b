package models

// Phase is what the presenter's screen is showing for the current question.
// Phases advance in the order below; Start and End are terminal in their
// respective directions.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseStem    Phase = "stem"
	PhaseAnswers Phase = "answers"
	PhaseResults Phase = "results"
	PhaseEnd     Phase = "end"
)

var phaseOrder = []Phase{PhaseStart, PhaseStem, PhaseAnswers, PhaseResults, PhaseEnd}

func (p Phase) Valid() bool {
	for _, ph := range phaseOrder {
		if p == ph {
			return true
		}
	}
	return false
}

// After reports whether p comes strictly after other in display order.
func (p Phase) After(other Phase) bool {
	return p.ordinal() > other.ordinal()
}

func (p Phase) ordinal() int {
	for i, ph := range phaseOrder {
		if p == ph {
			return i
		}
	}
	return -1
}
