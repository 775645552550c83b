package database

import (
	"time"

	"github.com/eruedin/swad-core-sub002/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed inserts a demo teacher, a student group and a three-question game so
// a fresh install has something to play.
func Seed(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		logger.Info("seed skipped, users already present")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	teacher := models.User{Username: "demo-teacher", PasswordHash: string(hash), Role: models.RoleTeacher}
	if err := db.Create(&teacher).Error; err != nil {
		return err
	}

	students := make([]models.User, 0, 3)
	for _, name := range []string{"demo-student-1", "demo-student-2", "demo-student-3"} {
		students = append(students, models.User{Username: name, PasswordHash: string(hash), Role: models.RoleStudent})
	}
	if err := db.Create(&students).Error; err != nil {
		return err
	}
	for _, st := range students {
		db.Create(&models.GroupMember{GroupID: 1, UserID: st.ID, JoinedAt: time.Now()})
	}

	game := models.Game{
		CreatorID: teacher.ID,
		Title:     "Introduction to Networks",
		Questions: []models.GameQuestion{
			{
				Stem:     "Which layer does TCP belong to?",
				OrderNum: 1,
				Options: []models.QuestionOption{
					{Text: "Transport", IsCorrect: true, OrderNum: 1},
					{Text: "Network", OrderNum: 2},
					{Text: "Application", OrderNum: 3},
					{Text: "Link", OrderNum: 4},
				},
			},
			{
				Stem:     "What does DNS resolve?",
				OrderNum: 2,
				Options: []models.QuestionOption{
					{Text: "Names to addresses", IsCorrect: true, OrderNum: 1},
					{Text: "Addresses to routes", OrderNum: 2},
					{Text: "Ports to services", OrderNum: 3},
				},
			},
			{
				Stem:     "Default HTTPS port?",
				OrderNum: 3,
				Options: []models.QuestionOption{
					{Text: "80", OrderNum: 1},
					{Text: "443", IsCorrect: true, OrderNum: 2},
					{Text: "8080", OrderNum: 3},
					{Text: "22", OrderNum: 4},
				},
			},
		},
	}
	if err := db.Create(&game).Error; err != nil {
		return err
	}

	logger.Info("seed complete",
		zap.Uint("teacher_id", teacher.ID),
		zap.Uint("game_id", game.ID),
	)
	return nil
}
