package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerService tracks which students are currently connected to a match.
// Membership is refreshed on every student poll and rows that stop
// refreshing fall out of the connected count.
type PlayerService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPlayerService(db *gorm.DB, timeout time.Duration) *PlayerService {
	return &PlayerService{db: db, timeout: timeout}
}

// Join registers the user as a player, or refreshes the existing membership.
// Only allowed while the match is being played, and only for users eligible
// under the match's group restriction.
func (s *PlayerService) Join(matchID, userID uint) error {
	var match models.Match
	if err := s.db.First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrMatchNotFound
		}
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}

	if !match.Playing {
		return errs.ErrInvalidPhase
	}
	if err := s.checkEligible(&match, userID); err != nil {
		return err
	}

	now := time.Now()
	player := models.MatchPlayer{
		MatchID:    matchID,
		UserID:     userID,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
	}).Create(&player).Error
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return nil
}

// Touch refreshes LastSeenAt without the playing/eligibility checks, for
// students already registered that keep polling through a pause.
func (s *PlayerService) Touch(matchID, userID uint) error {
	err := s.db.Model(&models.MatchPlayer{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Update("last_seen_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return nil
}

// Prune drops memberships that have not been refreshed within the
// inactivity window. Returns how many rows were removed.
func (s *PlayerService) Prune(matchID uint) (int64, error) {
	cutoff := time.Now().Add(-s.timeout)
	res := s.db.Unscoped().
		Where("match_id = ? AND last_seen_at < ?", matchID, cutoff).
		Delete(&models.MatchPlayer{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the live number of connected players. It is always computed
// from fresh rows, never from a stored counter that could drift.
func (s *PlayerService) Count(matchID uint) (int, error) {
	cutoff := time.Now().Add(-s.timeout)
	var count int64
	err := s.db.Model(&models.MatchPlayer{}).
		Where("match_id = ? AND last_seen_at >= ?", matchID, cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// IsPlayer reports whether the user has a current membership row.
func (s *PlayerService) IsPlayer(matchID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.MatchPlayer{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

func (s *PlayerService) checkEligible(match *models.Match, userID uint) error {
	if match.GroupID == nil {
		return nil
	}
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", *match.GroupID, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	if count == 0 {
		return errs.ErrUnauthorized
	}
	return nil
}
