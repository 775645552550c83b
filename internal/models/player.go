package models

import (
	"time"

	"gorm.io/gorm"
)

// MatchPlayer records a student currently associated with a running match.
// LastSeenAt is refreshed on every student poll; rows that stop refreshing
// are pruned, so the connected count is always derived from live rows.
type MatchPlayer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MatchID    uint           `gorm:"not null;uniqueIndex:idx_match_player" json:"match_id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_match_player" json:"user_id"`
	JoinedAt   time.Time      `json:"joined_at"`
	LastSeenAt time.Time      `gorm:"index" json:"last_seen_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
