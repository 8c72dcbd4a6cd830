package progression

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
	"learnpath/internal/models"
)

type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, baseLog *logger.Logger) *Repository {
	return &Repository{db: db, log: baseLog.With("repo", "ProgressionRepository")}
}

// Transaction runs fn against a repository bound to one database
// transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, log: r.log})
	})
}

func (r *Repository) GetProgress(ctx context.Context, progressID uint) (*models.Progress, error) {
	var p models.Progress
	err := r.db.WithContext(ctx).First(&p, progressID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("progress")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetSkill(ctx context.Context, skillID uint) (*models.Skill, error) {
	var s models.Skill
	err := r.db.WithContext(ctx).First(&s, skillID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("skill")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindPreviousSkill returns the skill right before order in the chapter, or
// nil for the first skill. Orders need not be contiguous.
func (r *Repository) FindPreviousSkill(ctx context.Context, chapterID uint, order int) (*models.Skill, error) {
	var rows []models.Skill
	err := r.db.WithContext(ctx).
		Where("chapter_id = ? AND skill_order < ?", chapterID, order).
		Order("skill_order DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) StepNumbers(ctx context.Context, skillID uint) ([]int, error) {
	var steps []int
	err := r.db.WithContext(ctx).
		Model(&models.Progress{}).
		Where("skill_id = ?", skillID).
		Order("step_number").
		Pluck("step_number", &steps).Error
	return steps, err
}

func (r *Repository) CompletedStepNumbers(ctx context.Context, userID, skillID uint) ([]int, error) {
	var steps []int
	err := r.db.WithContext(ctx).
		Table("user_activities AS a").
		Joins("JOIN progress AS p ON p.id = a.progress_id").
		Where("a.user_id = ? AND p.skill_id = ? AND a.is_completed = ?", userID, skillID, true).
		Distinct().
		Order("p.step_number").
		Pluck("p.step_number", &steps).Error
	return steps, err
}

func (r *Repository) FindCompletedActivity(ctx context.Context, userID, progressID uint) (*models.UserActivity, error) {
	var rows []models.UserActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND progress_id = ? AND is_completed = ?", userID, progressID, true).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) AppendActivity(ctx context.Context, activity *models.UserActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// InsertCompletion inserts a completed activity unless one already exists
// for the same (user, progress). It reports whether this call inserted it.
func (r *Repository) InsertCompletion(ctx context.Context, activity *models.UserActivity) (bool, error) {
	activity.IsCompleted = true
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(activity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementReward adds points to the user's ledger in a single upsert so
// concurrent credits never overwrite each other.
func (r *Repository) IncrementReward(ctx context.Context, userID uint, points int) error {
	row := &models.Reward{UserID: userID, Points: int64(points)}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("rewards.points + ?", points),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *Repository) GetRewardPoints(ctx context.Context, userID uint) (int64, error) {
	var rows []models.Reward
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Points, nil
}

func unitModel(unitType models.UnitType) interface{} {
	if unitType == models.UnitExercise {
		return &models.Exercise{}
	}
	return &models.Video{}
}

func (r *Repository) UnitBelongsToProgress(ctx context.Context, unitType models.UnitType, unitID, progressID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(unitModel(unitType)).
		Where("id = ? AND progress_id = ?", unitID, progressID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountUnits(ctx context.Context, unitType models.UnitType, progressID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(unitModel(unitType)).
		Where("progress_id = ?", progressID).
		Count(&count).Error
	return count, err
}

// RecordWatch stores a watch record; repeats are ignored.
func (r *Repository) RecordWatch(ctx context.Context, rec *models.WatchRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
}

func (r *Repository) CountWatched(ctx context.Context, userID, progressID uint, unitType models.UnitType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WatchRecord{}).
		Where("user_id = ? AND progress_id = ? AND unit_type = ?", userID, progressID, unitType).
		Count(&count).Error
	return count, err
}
