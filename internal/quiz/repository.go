package quiz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
	"learnpath/internal/models"
)

type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, baseLog *logger.Logger) *Repository {
	return &Repository{db: db, log: baseLog.With("repo", "QuizRepository")}
}

func (r *Repository) GetQuizByProgress(ctx context.Context, progressID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).Where("progress_id = ?", progressID).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("quiz")
	}
	if err != nil {
		r.log.Error("get quiz by progress failed", "progress_id", progressID, "error", err)
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) poolQuery(ctx context.Context, quizID uint, questionType string, excludeIDs []uint) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ? AND question_type = ?", quizID, questionType)
	// NOT IN with an empty list matches nothing, so only add it when needed.
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	return q
}

func (r *Repository) CountByType(ctx context.Context, quizID uint, questionType string, excludeIDs []uint) (int64, error) {
	var count int64
	if err := r.poolQuery(ctx, quizID, questionType, excludeIDs).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) SampleByType(ctx context.Context, quizID uint, questionType string, limit int, excludeIDs []uint) ([]uint, error) {
	var ids []uint
	err := r.poolQuery(ctx, quizID, questionType, excludeIDs).
		Order("RANDOM()").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetQuestionsByIDs returns the questions in the order of ids. Ids that no
// longer exist are skipped.
func (r *Repository) GetQuestionsByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}
	var rows []models.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	if len(out) < len(ids) {
		r.log.Warn("session references missing questions", "wanted", len(ids), "found", len(out))
	}
	return out, nil
}
