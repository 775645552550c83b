package models

import (
	"time"

	"gorm.io/gorm"
)

// AfterLastQuestion is the question index stored once a match has moved past
// its last question. Persisted rows rely on this exact value, don't change it.
const AfterLastQuestion = uint(1<<31 - 1)

// Countdown values on a match status. Positive means a countdown is in
// progress (value is the configured or remaining seconds), zero means it ran
// out, negative means no countdown is active. The three states are distinct
// and must not be collapsed.
const CountdownInactive = int64(-1)

type Match struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GameID    uint           `gorm:"not null;index" json:"game_id"`
	Game      Game           `gorm:"foreignKey:GameID" json:"game,omitempty"`
	CreatorID uint           `gorm:"not null;index" json:"creator_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	GroupID   *uint          `gorm:"index" json:"group_id,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Status of the live run. QuestionIndex 0 means not started, first
	// question has index 1, AfterLastQuestion means finished.
	QuestionIndex  uint      `gorm:"not null;default:0" json:"question_index"`
	QuestionID     uint      `gorm:"not null;default:0" json:"question_id"`
	Phase          Phase     `gorm:"size:10;not null;default:'start'" json:"phase"`
	PhaseStartedAt time.Time `json:"phase_started_at"`
	Countdown      int64     `gorm:"not null;default:-1" json:"countdown"`
	NumCols        int       `gorm:"not null;default:1" json:"num_cols"`

	ShowQuestionResults bool `gorm:"not null;default:false" json:"show_question_results"`
	ShowUserResults     bool `gorm:"not null;default:false" json:"show_user_results"`
	Playing             bool `gorm:"not null;default:false" json:"playing"`

	// UpdateSeq guards every status mutation: writers update conditionally
	// on the value they read, so two racing presenter actions cannot both
	// apply.
	UpdateSeq uint64 `gorm:"not null;default:0" json:"-"`
}

// CountdownRemaining recomputes the seconds left from the stored value and
// the phase-start timestamp. While the match is paused elapsed time does not
// count. Returns CountdownInactive when no countdown is set and clamps at
// zero once expired.
func (m *Match) CountdownRemaining(now time.Time) int64 {
	if m.Countdown < 0 {
		return CountdownInactive
	}
	remaining := m.Countdown
	if m.Playing {
		remaining -= int64(now.Sub(m.PhaseStartedAt).Seconds())
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Finished reports whether the match has moved past its last question.
func (m *Match) Finished() bool {
	return m.QuestionIndex == AfterLastQuestion
}
