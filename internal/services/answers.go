package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"gorm.io/gorm"
)

// AnswerService records one answer selection per (match, user, question).
type AnswerService struct {
	db *gorm.DB
}

func NewAnswerService(db *gorm.DB) *AnswerService {
	return &AnswerService{db: db}
}

// Submit stores the user's selection for the match's current question.
// Resubmitting while the question is open overwrites the prior selection.
// A negative option index is always valid and means "no answer".
func (s *AnswerService) Submit(matchID, userID, questionIndex uint, optionIndex int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrMatchNotFound
			}
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}

		if err := submitGate(&match, questionIndex); err != nil {
			return err
		}

		numOptions, err := s.optionCount(tx, match.QuestionID)
		if err != nil {
			return err
		}
		if optionIndex >= numOptions {
			return errs.ErrInvalidOption
		}
		if optionIndex < 0 {
			optionIndex = models.NoOptionSelected
		}

		answer := models.MatchAnswer{
			MatchID:       matchID,
			UserID:        userID,
			QuestionIndex: questionIndex,
		}
		var existing models.MatchAnswer
		err = tx.Where("match_id = ? AND user_id = ? AND question_index = ?",
			matchID, userID, questionIndex).First(&existing).Error
		if err == nil {
			answer = existing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}

		answer.SelectedOption = optionIndex
		answer.OptionOrder = encodeOrder(ShuffledOptions(matchID, userID, questionIndex, numOptions))
		answer.AnsweredAt = time.Now()
		if err := tx.Save(&answer).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}

		// The phase may have moved between the check above and the write.
		// Re-reading the sequence inside the transaction catches the race;
		// the rollback leaves nothing partially recorded.
		var current models.Match
		if err := tx.First(&current, matchID).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		if current.UpdateSeq != match.UpdateSeq {
			return errs.ErrConflict
		}
		return nil
	})
}

// RemoveSelection withdraws the user's answer while the question is still
// open. The row stays with the no-selection sentinel so the shown option
// order is preserved.
func (s *AnswerService) RemoveSelection(matchID, userID, questionIndex uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrMatchNotFound
			}
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		if err := submitGate(&match, questionIndex); err != nil {
			return err
		}

		err := tx.Model(&models.MatchAnswer{}).
			Where("match_id = ? AND user_id = ? AND question_index = ?",
				matchID, userID, questionIndex).
			Update("selected_option", models.NoOptionSelected).Error
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}

		// Same race as Submit: the phase may advance between the gate
		// check and the write.
		var current models.Match
		if err := tx.First(&current, matchID).Error; err != nil {
			return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
		}
		if current.UpdateSeq != match.UpdateSeq {
			return errs.ErrConflict
		}
		return nil
	})
}

// GetAnswer returns the user's answer row for a question, or nil when the
// user never submitted. Absence is a result, not an error.
func (s *AnswerService) GetAnswer(matchID, userID, questionIndex uint) (*models.MatchAnswer, error) {
	var answer models.MatchAnswer
	err := s.db.Where("match_id = ? AND user_id = ? AND question_index = ?",
		matchID, userID, questionIndex).First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return &answer, nil
}

// Tally counts, per option, how many users selected it, plus how many users
// answered at all. One query over that question's answers only.
func (s *AnswerService) Tally(matchID, questionIndex uint, numOptions int) (counts []int, answered int, err error) {
	type row struct {
		SelectedOption int
		N              int
	}
	var rows []row
	err = s.db.Model(&models.MatchAnswer{}).
		Select("selected_option, count(*) as n").
		Where("match_id = ? AND question_index = ? AND selected_option >= 0",
			matchID, questionIndex).
		Group("selected_option").
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}

	counts = make([]int, numOptions)
	for _, r := range rows {
		if r.SelectedOption >= 0 && r.SelectedOption < numOptions {
			counts[r.SelectedOption] = r.N
		}
		answered += r.N
	}
	return counts, answered, nil
}

// ShuffledOptions returns the option display order for one user on one
// question. The shuffle is deterministic in (match, user, question) so a
// reconnecting student sees the same order and results can be reconstructed.
func ShuffledOptions(matchID, userID, questionIndex uint, numOptions int) []int {
	seed := int64(matchID)<<40 ^ int64(userID)<<20 ^ int64(questionIndex)
	return rand.New(rand.NewSource(seed)).Perm(numOptions)
}

// submitGate decides whether the question can accept answer mutations.
// Questions already shown and moved past report closed; everything else
// that is not "current question in the answers phase" is an invalid phase.
func submitGate(match *models.Match, questionIndex uint) error {
	if questionIndex == match.QuestionIndex && match.Phase == models.PhaseAnswers {
		return nil
	}
	closed := questionIndex < match.QuestionIndex ||
		(questionIndex == match.QuestionIndex && match.Phase.After(models.PhaseAnswers))
	if closed {
		return errs.ErrQuestionClosed
	}
	return errs.ErrInvalidPhase
}

func (s *AnswerService) optionCount(tx *gorm.DB, questionID uint) (int, error) {
	var count int64
	err := tx.Model(&models.QuestionOption{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func encodeOrder(order []int) string {
	parts := make([]string, len(order))
	for i, idx := range order {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// DecodeOrder parses the stored option order back into indexes.
func DecodeOrder(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	order := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		order = append(order, idx)
	}
	return order
}
