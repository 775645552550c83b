package services

import (
	"testing"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSubmitAndOverwrite(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 4)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 2))

	answer, err := env.answers.GetAnswer(match.ID, studentID, 1)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, 2, answer.SelectedOption)
	assert.True(t, answer.Answered())

	// A second submission replaces the first; the tally still counts one
	// vote for this user.
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 0))

	counts, answered, err := env.answers.Tally(match.ID, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 0}, counts)
	assert.Equal(t, 1, answered)
}

func TestSubmitInvalidOption(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	err = env.answers.Submit(match.ID, studentID, 1, 3)
	assert.ErrorIs(t, err, errs.ErrInvalidOption)
	err = env.answers.Submit(match.ID, studentID, 1, 42)
	assert.ErrorIs(t, err, errs.ErrInvalidOption)

	_, answered, err := env.answers.Tally(match.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, answered)
}

func TestSubmitPhaseGate(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 2, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)

	// Not started yet.
	err = env.answers.Submit(match.ID, studentID, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidPhase)

	// Stem shown but options not yet open.
	env.advanceTo(t, match.ID, teacherID, models.PhaseStem, 1)
	err = env.answers.Submit(match.ID, studentID, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidPhase)

	// Open.
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 0))

	// Results shown, question 1 is closed for good.
	env.advanceTo(t, match.ID, teacherID, models.PhaseResults, 1)
	err = env.answers.Submit(match.ID, studentID, 1, 1)
	assert.ErrorIs(t, err, errs.ErrQuestionClosed)

	// A later question is not open yet.
	err = env.answers.Submit(match.ID, studentID, 2, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidPhase)

	// Once the match moved on, question 1 stays closed.
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 2)
	err = env.answers.Submit(match.ID, studentID, 1, 1)
	assert.ErrorIs(t, err, errs.ErrQuestionClosed)

	// The closed attempt did not overwrite the stored answer.
	answer, err := env.answers.GetAnswer(match.ID, studentID, 1)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, 0, answer.SelectedOption)
}

func TestSubmitMissingMatch(t *testing.T) {
	env := newTestEnv(t)
	err := env.answers.Submit(9999, studentID, 1, 0)
	assert.ErrorIs(t, err, errs.ErrMatchNotFound)
}

func TestRemoveSelection(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 1))
	require.NoError(t, env.answers.RemoveSelection(match.ID, studentID, 1))

	answer, err := env.answers.GetAnswer(match.ID, studentID, 1)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, models.NoOptionSelected, answer.SelectedOption)
	assert.False(t, answer.Answered())

	counts, answered, err := env.answers.Tally(match.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, counts)
	assert.Equal(t, 0, answered)

	// Withdrawing is only allowed while the question is open.
	env.advanceTo(t, match.ID, teacherID, models.PhaseResults, 1)
	err = env.answers.RemoveSelection(match.ID, studentID, 1)
	assert.ErrorIs(t, err, errs.ErrQuestionClosed)
}

func TestRemoveSelectionDetectsConcurrentAdvance(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 1))

	// Simulate a presenter advance committing between the gate check and
	// the withdrawal write: bump the match sequence as soon as the answer
	// row is updated.
	fired := false
	err = env.db.Callback().Update().After("gorm:update").Register("concurrent_advance", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "match_answers" {
			return
		}
		fired = true
		_, execErr := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE matches SET update_seq = update_seq + 1 WHERE id = ?", match.ID)
		require.NoError(t, execErr)
	})
	require.NoError(t, err)
	defer env.db.Callback().Update().Remove("concurrent_advance")

	err = env.answers.RemoveSelection(match.ID, studentID, 1)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.True(t, fired)

	// The rollback left the original selection in place.
	answer, err := env.answers.GetAnswer(match.ID, studentID, 1)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, 1, answer.SelectedOption)
}

func TestZeroOptionQuestion(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 0)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)

	// A question without options still enters the answers phase.
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	err = env.answers.Submit(match.ID, studentID, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidOption)

	// "No answer" is always submittable.
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, -1))

	counts, answered, err := env.answers.Tally(match.ID, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Equal(t, 0, answered)

	view, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	assert.Empty(t, view.Question.Options)
	require.NotNil(t, view.MyAnswer)
	assert.False(t, view.MyAnswer.Answered)

	pview, err := env.matches.GetStatus(match.ID, teacherID)
	require.NoError(t, err)
	require.NotNil(t, pview.Tally)
	assert.Empty(t, pview.Tally.Options)
	assert.Equal(t, 0, pview.Tally.Answered)
}

func TestShuffledOptionsDeterministic(t *testing.T) {
	first := ShuffledOptions(7, 42, 3, 4)
	second := ShuffledOptions(7, 42, 3, 4)
	assert.Equal(t, first, second)

	// A permutation of all option indices.
	seen := make(map[int]bool, len(first))
	for _, idx := range first {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
		seen[idx] = true
	}
	assert.Len(t, seen, 4)

	// Different users see different orders often enough that at least one
	// of a handful differs from the first user's.
	varied := false
	for userID := uint(43); userID < 53; userID++ {
		if !assert.ObjectsAreEqual(first, ShuffledOptions(7, userID, 3, 4)) {
			varied = true
			break
		}
	}
	assert.True(t, varied)
}

func TestOrderRoundTrip(t *testing.T) {
	order := []int{2, 0, 3, 1}
	encoded := encodeOrder(order)
	assert.Equal(t, "2,0,3,1", encoded)
	decoded := DecodeOrder(encoded)
	assert.Equal(t, order, decoded)

	assert.Empty(t, DecodeOrder(""))
}

func TestTallyBoundsPerUser(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 2)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 0))
	require.NoError(t, env.answers.Submit(match.ID, student2ID, 1, 0))
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 1))

	counts, answered, err := env.answers.Tally(match.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, counts)
	assert.Equal(t, 2, answered)
}
