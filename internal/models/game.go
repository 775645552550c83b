package models

import "time"

// Game is an ordered set of questions that matches play through.
type Game struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatorID uint           `gorm:"not null;index" json:"creator_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Questions []GameQuestion `gorm:"foreignKey:GameID" json:"questions,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type GameQuestion struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	GameID   uint             `gorm:"not null;index" json:"game_id"`
	Stem     string           `gorm:"type:text;not null" json:"stem"`
	OrderNum int              `gorm:"not null" json:"order_num"`
	Options  []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	OrderNum   int    `gorm:"not null;default:0" json:"order_num"`
}
