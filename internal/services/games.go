package services

import (
	"errors"
	"fmt"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"gorm.io/gorm"
)

// GameService is the question-set provider: ordered questions with their
// options and correct-option metadata.
type GameService struct {
	db *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{db: db}
}

func (s *GameService) CreateGame(creatorID uint, title string, questions []models.GameQuestion) (*models.Game, error) {
	game := models.Game{
		CreatorID: creatorID,
		Title:     title,
		Questions: questions,
	}
	for i := range game.Questions {
		if game.Questions[i].OrderNum == 0 {
			game.Questions[i].OrderNum = i + 1
		}
	}
	if err := s.db.Create(&game).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return &game, nil
}

func (s *GameService) GetGame(gameID uint) (*models.Game, error) {
	var game models.Game
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_num ASC")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_num ASC")
	}).First(&game, gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrGameNotFound
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return &game, nil
}

func (s *GameService) ListGames(creatorID uint) ([]models.Game, error) {
	var games []models.Game
	err := s.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return games, nil
}

// Questions returns the game's questions in play order.
func (s *GameService) Questions(gameID uint) ([]models.GameQuestion, error) {
	var questions []models.GameQuestion
	err := s.db.Where("game_id = ?", gameID).
		Order("order_num ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return questions, nil
}

// QuestionAt returns the question with the given 1-based play index.
func (s *GameService) QuestionAt(gameID, index uint) (*models.GameQuestion, error) {
	questions, err := s.Questions(gameID)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > uint(len(questions)) {
		return nil, errs.ErrGameNotFound
	}
	return &questions[index-1], nil
}

func (s *GameService) CountQuestions(gameID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.GameQuestion{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return int(count), nil
}
