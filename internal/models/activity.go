package models

import (
	"time"
)

// UserActivity is append-only. At most one row per (user, progress) has
// IsCompleted set; a partial unique index created at migration time holds
// that invariant.
type UserActivity struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uint      `json:"user_id" gorm:"not null;index:idx_activity_user_skill"`
	ProgressID  uint      `json:"progress_id" gorm:"not null;index"`
	SkillID     uint      `json:"skill_id" gorm:"not null;index:idx_activity_user_skill"`
	StepNumber  int       `json:"step_number" gorm:"not null"`
	Score       int       `json:"score"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	BonusPoints int       `json:"bonus_points" gorm:"not null;default:0"`
}

type UnitType string

const (
	UnitVideo    UnitType = "video"
	UnitExercise UnitType = "exercise"
)

// WatchRecord marks one unit of content (a video, an exercise) as consumed.
type WatchRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_watch_user_unit"`
	ProgressID uint      `json:"progress_id" gorm:"not null;index"`
	UnitType   UnitType  `json:"unit_type" gorm:"size:20;not null;uniqueIndex:idx_watch_user_unit"`
	UnitID     uint      `json:"unit_id" gorm:"not null;uniqueIndex:idx_watch_user_unit"`
}

type Reward struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	Points    int64     `json:"points" gorm:"not null;default:0"`
}
