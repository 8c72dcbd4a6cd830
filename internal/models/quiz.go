package models

import (
	"time"

	"gorm.io/datatypes"
)

type Quiz struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ProgressID uint       `json:"progress_id" gorm:"not null;uniqueIndex"`
	Title      string     `json:"title" gorm:"not null"`
	Questions  []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

// Question keeps Choices and Answer as raw JSON. Answer may be a choice
// index, a literal string or an object with a "text" field; it is only
// interpreted when an answer is evaluated.
type Question struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	QuizID    uint           `json:"quiz_id" gorm:"not null;index:idx_question_quiz_type"`
	Type      string         `json:"type" gorm:"column:question_type;size:32;not null;index:idx_question_quiz_type"`
	Text      string         `json:"text" gorm:"not null"`
	ImageURL  string         `json:"image_url,omitempty"`
	Choices   datatypes.JSON `json:"choices"`
	Answer    datatypes.JSON `json:"answer"`
}
