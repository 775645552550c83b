package services

import (
	"testing"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 2, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)

	view, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseStart, view.Phase)
	assert.Equal(t, 2, view.TotalQuestions)
	assert.Nil(t, view.Question)
	assert.Nil(t, view.Tally)
	assert.Equal(t, models.CountdownInactive, view.Countdown)
}

func TestStatusStemHidesOptions(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseStem, 1)

	view, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	assert.NotEmpty(t, view.Question.Stem)
	assert.Empty(t, view.Question.Options)
}

func TestStatusAnswersShowOptionsWithoutCorrectness(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)

	view, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	require.Len(t, view.Question.Options, 3)
	for _, opt := range view.Question.Options {
		assert.Nil(t, opt.IsCorrect)
	}

	// Shuffled but canonical indexes preserved.
	seen := make(map[int]bool)
	for _, opt := range view.Question.Options {
		seen[opt.Index] = true
	}
	assert.Len(t, seen, 3)

	// The presenter gets canonical order.
	pview, err := env.matches.GetStatus(match.ID, teacherID)
	require.NoError(t, err)
	require.Len(t, pview.Question.Options, 3)
	for i, opt := range pview.Question.Options {
		assert.Equal(t, i, opt.Index)
	}
}

func TestStatusResultsRevealRules(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 0))
	env.advanceTo(t, match.ID, teacherID, models.PhaseResults, 1)

	// Aggregate visibility is off: the presenter sees correctness and the
	// tally, the student sees neither.
	pview, err := env.matches.GetStatus(match.ID, teacherID)
	require.NoError(t, err)
	require.NotNil(t, pview.Question.Options[0].IsCorrect)
	assert.True(t, *pview.Question.Options[0].IsCorrect)
	require.NotNil(t, pview.Tally)
	assert.Equal(t, 1, pview.Tally.Answered)

	sview, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	for _, opt := range sview.Question.Options {
		assert.Nil(t, opt.IsCorrect)
	}
	assert.Nil(t, sview.Tally)
	require.NotNil(t, sview.MyAnswer)
	assert.Equal(t, 0, sview.MyAnswer.SelectedOption)

	// Turning the flag on opens both up to students.
	_, err = env.matches.ToggleQuestionResults(match.ID, teacherID)
	require.NoError(t, err)

	sview, err = env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	assert.NotNil(t, sview.Tally)
	var sawCorrect bool
	for _, opt := range sview.Question.Options {
		if opt.IsCorrect != nil && *opt.IsCorrect {
			sawCorrect = true
		}
	}
	assert.True(t, sawCorrect)
}

func TestStatusReviewAfterEnd(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 2, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)

	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 0))
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 2)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 2, 1))
	env.advanceTo(t, match.ID, teacherID, models.PhaseEnd, models.AfterLastQuestion)

	// Review is gated on ShowUserResults.
	view, err := env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	assert.True(t, view.Finished)
	assert.Nil(t, view.Review)

	_, err = env.matches.ToggleUserResults(match.ID, teacherID)
	require.NoError(t, err)

	view, err = env.matches.GetStatus(match.ID, studentID)
	require.NoError(t, err)
	require.Len(t, view.Review, 2)
	assert.True(t, view.Review[0].Correct)
	assert.False(t, view.Review[1].Correct)
	assert.Equal(t, 0, view.Review[0].CorrectOption)
	assert.Equal(t, 1, view.Review[1].SelectedOption)
}

func TestRefreshTeacher(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 2)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	_, err = env.matches.PlayPause(match.ID, teacherID)
	require.NoError(t, err)
	require.NoError(t, env.players.Join(match.ID, studentID))
	require.NoError(t, env.players.Join(match.ID, student2ID))

	// One player stopped polling long ago; the refresh prunes it.
	require.NoError(t, env.db.Model(&models.MatchPlayer{}).
		Where("match_id = ? AND user_id = ?", match.ID, student2ID).
		Update("last_seen_at", time.Now().Add(-time.Hour)).Error)

	view, expired, err := env.matches.RefreshTeacher(match.ID, teacherID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.NumPlayers)
	assert.False(t, expired)

	// Expired countdown is reported on the next poll.
	_, err = env.matches.StartCountdown(match.ID, teacherID, 5)
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.Match{}).Where("id = ?", match.ID).
		Update("phase_started_at", time.Now().Add(-time.Minute)).Error)

	_, expired, err = env.matches.RefreshTeacher(match.ID, teacherID)
	require.NoError(t, err)
	assert.True(t, expired)

	_, _, err = env.matches.RefreshTeacher(match.ID, studentID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestRefreshStudentRegisters(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 2)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	_, err = env.matches.PlayPause(match.ID, teacherID)
	require.NoError(t, err)

	view, err := env.matches.RefreshStudent(match.ID, studentID)
	require.NoError(t, err)
	assert.True(t, view.Playing)

	ok, err := env.players.IsPlayer(match.ID, studentID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A paused match still answers polls for registered players.
	_, err = env.matches.PlayPause(match.ID, teacherID)
	require.NoError(t, err)
	view, err = env.matches.RefreshStudent(match.ID, studentID)
	require.NoError(t, err)
	assert.False(t, view.Playing)
}

func TestGetTallyAuthorization(t *testing.T) {
	env := newTestEnv(t)
	game := env.createGame(t, teacherID, 1, 3)
	match, err := env.matches.Create(game.ID, teacherID, "", nil)
	require.NoError(t, err)
	env.advanceTo(t, match.ID, teacherID, models.PhaseAnswers, 1)
	require.NoError(t, env.answers.Submit(match.ID, studentID, 1, 2))

	tally, err := env.matches.GetTally(match.ID, teacherID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Answered)
	require.Len(t, tally.Options, 3)
	assert.Equal(t, 1, tally.Options[2].Count)

	_, err = env.matches.GetTally(match.ID, studentID, 1)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = env.matches.GetTally(match.ID, teacherID, 99)
	assert.ErrorIs(t, err, errs.ErrInvalidOption)
}
