package services

import "github.com/eruedin/swad-core-sub002/internal/models"

// step is one position of the showing-state machine: which phase is on the
// presenter's screen and which question (1-based) it refers to.
type step struct {
	Phase         models.Phase
	QuestionIndex uint
}

// nextStep advances one position. At end it returns the same step, so
// advancing a finished match is a no-op. Moving out of results selects the
// next question's stem, or end when the game is exhausted.
func nextStep(phase models.Phase, index uint, numQuestions int) step {
	switch phase {
	case models.PhaseStart:
		if numQuestions == 0 {
			return step{models.PhaseEnd, models.AfterLastQuestion}
		}
		return step{models.PhaseStem, 1}
	case models.PhaseStem:
		return step{models.PhaseAnswers, index}
	case models.PhaseAnswers:
		return step{models.PhaseResults, index}
	case models.PhaseResults:
		if index >= uint(numQuestions) {
			return step{models.PhaseEnd, models.AfterLastQuestion}
		}
		return step{models.PhaseStem, index + 1}
	default: // end
		return step{models.PhaseEnd, models.AfterLastQuestion}
	}
}

// prevStep is the exact inverse of nextStep for every reachable state, so an
// administrative rewind lands on the prior (phase, index) pair. At start it
// returns the same step.
func prevStep(phase models.Phase, index uint, numQuestions int) step {
	switch phase {
	case models.PhaseEnd:
		if numQuestions == 0 {
			return step{models.PhaseStart, 0}
		}
		return step{models.PhaseResults, uint(numQuestions)}
	case models.PhaseResults:
		return step{models.PhaseAnswers, index}
	case models.PhaseAnswers:
		return step{models.PhaseStem, index}
	case models.PhaseStem:
		if index <= 1 {
			return step{models.PhaseStart, 0}
		}
		return step{models.PhaseResults, index - 1}
	default: // start
		return step{models.PhaseStart, 0}
	}
}

// stepConsistent checks the invariant between index and phase: not-started
// pairs with start, the finished sentinel pairs with end, anything else must
// be a real question index.
func stepConsistent(phase models.Phase, index uint, numQuestions int) bool {
	switch {
	case index == 0:
		return phase == models.PhaseStart
	case index == models.AfterLastQuestion:
		return phase == models.PhaseEnd
	default:
		return index >= 1 && index <= uint(numQuestions) &&
			phase != models.PhaseStart && phase != models.PhaseEnd
	}
}
