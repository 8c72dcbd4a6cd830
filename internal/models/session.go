package models

import "time"

// QuizSession is never persisted in the relational store; it lives in Redis
// as JSON until submitted, abandoned or expired.
type QuizSession struct {
	ID          string    `json:"id"`
	UserID      uint      `json:"user_id"`
	ProgressID  uint      `json:"progress_id"`
	QuizID      uint      `json:"quiz_id"`
	QuestionIDs []uint    `json:"question_ids"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *QuizSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *QuizSession) OwnedBy(userID, progressID uint) bool {
	return s.UserID == userID && s.ProgressID == progressID
}

// Part asks for Count questions of Type, drawn in ascending Order.
type Part struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Order int    `json:"order"`
}
