package progression

import (
	"context"
	"fmt"

	"learnpath/internal/logger"
	"learnpath/internal/models"
)

// Notifier pushes realtime events to a user's connected clients.
type Notifier interface {
	SendToUser(userID uint, messageType string, data interface{})
}

// Outcome is the content-specific result the recorder persists.
type Outcome struct {
	UserID    uint
	Progress  *models.Progress
	Score     int
	Completed bool
	Bonus     int
}

type Recorded struct {
	Activity         *models.UserActivity `json:"activity"`
	BonusCredited    int                  `json:"bonusEarned"`
	NextStep         int                  `json:"nextStep"`
	AlreadyCompleted bool                 `json:"alreadyCompleted"`
}

type Recorder struct {
	repo     *Repository
	notifier Notifier
	log      *logger.Logger
}

func NewRecorder(repo *Repository, notifier Notifier, baseLog *logger.Logger) *Recorder {
	return &Recorder{repo: repo, notifier: notifier, log: baseLog.With("component", "ActivityRecorder")}
}

// Record persists an outcome. A failed attempt is appended as a
// non-completed row. A completion is inserted at most once per
// (user, progress); the bonus is credited in the same transaction, and only
// by the call that inserted the completion.
func (r *Recorder) Record(ctx context.Context, out Outcome) (*Recorded, error) {
	activity := &models.UserActivity{
		UserID:     out.UserID,
		ProgressID: out.Progress.ID,
		SkillID:    out.Progress.SkillID,
		StepNumber: out.Progress.StepNumber,
		Score:      clampScore(out.Score),
	}
	rec := &Recorded{NextStep: out.Progress.StepNumber + 1}

	if !out.Completed {
		if err := r.repo.AppendActivity(ctx, activity); err != nil {
			return nil, fmt.Errorf("append activity: %w", err)
		}
		rec.Activity = activity
		return rec, nil
	}

	bonus := out.Bonus
	if bonus < 0 {
		bonus = 0
	}
	activity.BonusPoints = bonus

	err := r.repo.Transaction(ctx, func(tx *Repository) error {
		inserted, err := tx.InsertCompletion(ctx, activity)
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		if !inserted {
			existing, err := tx.FindCompletedActivity(ctx, out.UserID, out.Progress.ID)
			if err != nil {
				return fmt.Errorf("load existing completion: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("completion for user %d progress %d conflicted but was not found", out.UserID, out.Progress.ID)
			}
			rec.Activity = existing
			rec.AlreadyCompleted = true
			return nil
		}
		if bonus > 0 {
			if err := tx.IncrementReward(ctx, out.UserID, bonus); err != nil {
				return fmt.Errorf("credit reward: %w", err)
			}
		}
		rec.Activity = activity
		rec.BonusCredited = bonus
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rec.AlreadyCompleted {
		r.log.Info("completion already recorded", "user_id", out.UserID, "progress_id", out.Progress.ID)
		return rec, nil
	}

	r.log.Info("step completed", "user_id", out.UserID, "progress_id", out.Progress.ID, "bonus", rec.BonusCredited)
	if r.notifier != nil {
		r.notifier.SendToUser(out.UserID, "step_completed", map[string]interface{}{
			"progressId":  out.Progress.ID,
			"stepNumber":  out.Progress.StepNumber,
			"score":       activity.Score,
			"bonusEarned": rec.BonusCredited,
			"nextStep":    rec.NextStep,
		})
	}
	return rec, nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
