package models

import (
	"time"

	"gorm.io/gorm"
)

// NoOptionSelected marks an answer row with no selection.
const NoOptionSelected = -1

// MatchAnswer is one student's answer to one question of a match. Unique per
// (match, user, question index); resubmitting while the question is open
// overwrites the row. OptionOrder stores the shuffled option indexes that
// were shown to this user so results can be reconstructed even though the
// display order differs per user.
type MatchAnswer struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	MatchID        uint           `gorm:"not null;uniqueIndex:idx_match_answer" json:"match_id"`
	UserID         uint           `gorm:"not null;uniqueIndex:idx_match_answer" json:"user_id"`
	QuestionIndex  uint           `gorm:"not null;uniqueIndex:idx_match_answer;index:idx_answer_tally" json:"question_index"`
	SelectedOption int            `gorm:"not null;default:-1" json:"selected_option"`
	OptionOrder    string         `gorm:"size:100" json:"option_order"`
	AnsweredAt     time.Time      `json:"answered_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Answered reports whether the row carries an actual selection. A row with
// NoOptionSelected is a valid state, distinct from "no row at all".
func (a *MatchAnswer) Answered() bool {
	return a.SelectedOption >= 0
}
