package services

import (
	"testing"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.GroupMember{},
		&models.Game{},
		&models.GameQuestion{},
		&models.QuestionOption{},
		&models.Match{},
		&models.MatchPlayer{},
		&models.MatchAnswer{},
	))
	return db
}

type testEnv struct {
	db      *gorm.DB
	games   *GameService
	players *PlayerService
	answers *AnswerService
	matches *MatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	games := NewGameService(db)
	players := NewPlayerService(db, 30*time.Second)
	answers := NewAnswerService(db)
	matches := NewMatchService(db, games, players, answers)
	return &testEnv{db: db, games: games, players: players, answers: answers, matches: matches}
}

// createGame inserts a game with the given number of questions, each with
// optsPerQuestion options whose first option is the correct one.
func (e *testEnv) createGame(t *testing.T, creatorID uint, numQuestions, optsPerQuestion int) *models.Game {
	t.Helper()
	questions := make([]models.GameQuestion, numQuestions)
	for i := range questions {
		options := make([]models.QuestionOption, optsPerQuestion)
		for j := range options {
			options[j] = models.QuestionOption{
				Text:      "option",
				IsCorrect: j == 0,
				OrderNum:  j + 1,
			}
		}
		questions[i] = models.GameQuestion{
			Stem:     "question stem",
			OrderNum: i + 1,
			Options:  options,
		}
	}
	game, err := e.games.CreateGame(creatorID, "test game", questions)
	require.NoError(t, err)
	return game
}

// advanceTo advances the match until it reaches the wanted phase on the
// wanted question index.
func (e *testEnv) advanceTo(t *testing.T, matchID, actorID uint, phase models.Phase, index uint) *models.Match {
	t.Helper()
	for i := 0; i < 50; i++ {
		match, err := e.matches.Get(matchID)
		require.NoError(t, err)
		if match.Phase == phase && match.QuestionIndex == index {
			return match
		}
		_, err = e.matches.Advance(matchID, actorID)
		require.NoError(t, err)
	}
	t.Fatalf("never reached phase %s index %d", phase, index)
	return nil
}
