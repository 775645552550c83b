package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"gorm.io/gorm"
)

// MatchService owns the lifecycle of live matches: create, resume, advance,
// rewind, pause and the presenter-only attribute mutations. Status changes
// are conditional updates keyed on the match's update sequence, so two
// racing presenter actions apply exactly once.
type MatchService struct {
	db      *gorm.DB
	games   *GameService
	players *PlayerService
	answers *AnswerService
}

func NewMatchService(db *gorm.DB, games *GameService, players *PlayerService, answers *AnswerService) *MatchService {
	return &MatchService{db: db, games: games, players: players, answers: answers}
}

// Create starts a new match for a game owned by the creator. The match
// begins in the start phase, paused, with no countdown and no players.
func (s *MatchService) Create(gameID, creatorID uint, title string, groupID *uint) (*models.Match, error) {
	var game models.Game
	if err := s.db.Where("id = ? AND creator_id = ?", gameID, creatorID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrGameNotFound
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}

	numQuestions, err := s.games.CountQuestions(gameID)
	if err != nil {
		return nil, err
	}
	if numQuestions == 0 {
		return nil, errs.ErrEmptyGame
	}

	if title == "" {
		title = game.Title
	}
	now := time.Now()
	match := models.Match{
		GameID:         gameID,
		CreatorID:      creatorID,
		Title:          title,
		GroupID:        groupID,
		StartedAt:      now,
		PhaseStartedAt: now,
		Phase:          models.PhaseStart,
		QuestionIndex:  0,
		Countdown:      models.CountdownInactive,
		NumCols:        1,
	}
	if err := s.db.Create(&match).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return &match, nil
}

func (s *MatchService) Get(matchID uint) (*models.Match, error) {
	var match models.Match
	if err := s.db.First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrMatchNotFound
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return &match, nil
}

// Advance moves the match one step forward. At the end phase this is a
// no-op. Moving into a new stem selects the next question; past the last
// question the match finishes.
func (s *MatchService) Advance(matchID, actorID uint) (*models.Match, error) {
	return s.transition(matchID, actorID, nextStep)
}

// Rewind moves the match one step back, administratively. At the start
// phase this is a no-op.
func (s *MatchService) Rewind(matchID, actorID uint) (*models.Match, error) {
	return s.transition(matchID, actorID, prevStep)
}

func (s *MatchService) transition(matchID, actorID uint, stepFn func(models.Phase, uint, int) step) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}

	numQuestions, err := s.games.CountQuestions(match.GameID)
	if err != nil {
		return nil, err
	}

	next := stepFn(match.Phase, match.QuestionIndex, numQuestions)
	if next.Phase == match.Phase && next.QuestionIndex == match.QuestionIndex {
		return match, nil
	}

	questionID := uint(0)
	if next.QuestionIndex >= 1 && next.QuestionIndex != models.AfterLastQuestion {
		question, err := s.games.QuestionAt(match.GameID, next.QuestionIndex)
		if err != nil {
			return nil, err
		}
		questionID = question.ID
	}

	updates := map[string]interface{}{
		"phase":            next.Phase,
		"question_index":   next.QuestionIndex,
		"question_id":      questionID,
		"phase_started_at": time.Now(),
		"countdown":        models.CountdownInactive,
	}
	if next.Phase == models.PhaseEnd {
		updates["ended_at"] = time.Now()
	} else if match.Phase == models.PhaseEnd {
		updates["ended_at"] = nil
	}

	if err := s.applyStatus(matchID, match.UpdateSeq, updates); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

// PlayPause toggles the running flag without changing phase or question.
// Pausing folds the countdown remainder back into the stored value so
// paused time never counts against it.
func (s *MatchService) PlayPause(matchID, actorID uint) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}

	now := time.Now()
	updates := map[string]interface{}{
		"playing":          !match.Playing,
		"phase_started_at": now,
	}
	if match.Playing && match.Countdown >= 0 {
		updates["countdown"] = match.CountdownRemaining(now)
	}

	if err := s.applyStatus(matchID, match.UpdateSeq, updates); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

// StartCountdown arms the countdown with the given number of seconds.
// Non-positive seconds disarm it. Reaching zero is a signal for the
// presenter's next poll, never an automatic transition.
func (s *MatchService) StartCountdown(matchID, actorID uint, seconds int64) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}

	if seconds <= 0 {
		seconds = models.CountdownInactive
	}
	updates := map[string]interface{}{
		"countdown":        seconds,
		"phase_started_at": time.Now(),
	}
	if err := s.applyStatus(matchID, match.UpdateSeq, updates); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

// SetColumns changes how many answer columns the presenter screen uses.
func (s *MatchService) SetColumns(matchID, actorID uint, cols int) (*models.Match, error) {
	if cols < 1 || cols > 4 {
		return nil, errs.ErrInvalidOption
	}
	return s.mutate(matchID, actorID, map[string]interface{}{"num_cols": cols})
}

// ToggleQuestionResults flips whether aggregate results of the current
// question are shown to everyone while playing.
func (s *MatchService) ToggleQuestionResults(matchID, actorID uint) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}
	if err := s.applyStatus(matchID, match.UpdateSeq, map[string]interface{}{
		"show_question_results": !match.ShowQuestionResults,
	}); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

// ToggleUserResults flips whether students can review their own results
// after the match finishes.
func (s *MatchService) ToggleUserResults(matchID, actorID uint) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}
	if err := s.applyStatus(matchID, match.UpdateSeq, map[string]interface{}{
		"show_user_results": !match.ShowUserResults,
	}); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

func (s *MatchService) mutate(matchID, actorID uint, updates map[string]interface{}) (*models.Match, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, errs.ErrUnauthorized
	}
	if err := s.applyStatus(matchID, match.UpdateSeq, updates); err != nil {
		return nil, err
	}
	return s.Get(matchID)
}

// Remove soft-deletes the match together with its answers and player rows.
// Removed matches are never reused.
func (s *MatchService) Remove(matchID, actorID uint) error {
	match, err := s.Get(matchID)
	if err != nil {
		return err
	}
	if match.CreatorID != actorID {
		return errs.ErrUnauthorized
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", matchID).Delete(&models.MatchAnswer{}).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&models.MatchPlayer{}).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		if err := tx.Delete(&models.Match{}, matchID).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		return nil
	})
}

func (s *MatchService) ListByCreator(creatorID uint) ([]MatchSummary, error) {
	var matches []models.Match
	err := s.db.Where("creator_id = ?", creatorID).
		Preload("Game").
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return s.summarize(matches)
}

func (s *MatchService) ListByGame(gameID uint) ([]MatchSummary, error) {
	var matches []models.Match
	err := s.db.Where("game_id = ?", gameID).
		Preload("Game").
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return s.summarize(matches)
}

// CountUnfinished returns how many of the game's matches have not moved
// past their last question yet.
func (s *MatchService) CountUnfinished(gameID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Match{}).
		Where("game_id = ? AND question_index <> ?", gameID, models.AfterLastQuestion).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func (s *MatchService) summarize(matches []models.Match) ([]MatchSummary, error) {
	result := make([]MatchSummary, 0, len(matches))
	for _, m := range matches {
		numPlayers, err := s.players.Count(m.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, MatchSummary{
			ID:         m.ID,
			Title:      m.Title,
			GameTitle:  m.Game.Title,
			Phase:      m.Phase,
			Finished:   m.Finished(),
			NumPlayers: numPlayers,
			CreatedAt:  m.CreatedAt,
		})
	}
	return result, nil
}

// applyStatus performs the conditional update every status mutation goes
// through. Zero rows affected means another writer got there first.
func (s *MatchService) applyStatus(matchID uint, seq uint64, updates map[string]interface{}) error {
	updates["update_seq"] = seq + 1
	res := s.db.Model(&models.Match{}).
		Where("id = ? AND update_seq = ?", matchID, seq).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrConflict
	}
	return nil
}

type MatchSummary struct {
	ID         uint         `json:"id"`
	Title      string       `json:"title"`
	GameTitle  string       `json:"game_title"`
	Phase      models.Phase `json:"phase"`
	Finished   bool         `json:"finished"`
	NumPlayers int          `json:"num_players"`
	CreatedAt  time.Time    `json:"created_at"`
}
