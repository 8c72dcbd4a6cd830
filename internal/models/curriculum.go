package models

import (
	"time"
)

type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentExercise ContentType = "exercise"
	ContentQuiz     ContentType = "quiz"
)

type Chapter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title" gorm:"not null"`
	Skills    []Skill   `json:"skills,omitempty" gorm:"foreignKey:ChapterID"`
}

// Skill orders are unique within a chapter but not necessarily contiguous.
type Skill struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ChapterID uint       `json:"chapter_id" gorm:"not null;uniqueIndex:idx_skill_chapter_order"`
	Order     int        `json:"order" gorm:"column:skill_order;not null;uniqueIndex:idx_skill_chapter_order"`
	Name      string     `json:"skill_name" gorm:"not null"`
	Steps     []Progress `json:"steps,omitempty" gorm:"foreignKey:SkillID"`
}

// Progress is one step of a skill.
type Progress struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	SkillID     uint        `json:"skill_id" gorm:"not null;uniqueIndex:idx_progress_skill_step"`
	StepNumber  int         `json:"step_number" gorm:"not null;uniqueIndex:idx_progress_skill_step"`
	ContentType ContentType `json:"content_type" gorm:"size:20;not null"`
	BonusPoints int         `json:"bonus_points" gorm:"not null"`
}

func (Progress) TableName() string {
	return "progress"
}

type Video struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	ProgressID uint      `json:"progress_id" gorm:"not null;index"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
}

type Exercise struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	ProgressID uint      `json:"progress_id" gorm:"not null;index"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
}
