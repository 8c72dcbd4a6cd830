package progression

import (
	"context"
	"fmt"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
	"learnpath/internal/models"
)

type State string

const (
	StateLocked     State = "locked"
	StateUnlockable State = "unlockable"
	StateCompleted  State = "completed"
)

// Decision is the gate's verdict for one (user, step). Reason is set when
// State is StateLocked; Activity is set when State is StateCompleted.
type Decision struct {
	State    State
	Activity *models.UserActivity
	Reason   *apperr.Error
}

// Err returns the lock reason as an error, or nil when the step may be acted on.
func (d *Decision) Err() error {
	if d.State == StateLocked {
		return d.Reason
	}
	return nil
}

type GateStore interface {
	FindCompletedActivity(ctx context.Context, userID, progressID uint) (*models.UserActivity, error)
	GetSkill(ctx context.Context, skillID uint) (*models.Skill, error)
	FindPreviousSkill(ctx context.Context, chapterID uint, order int) (*models.Skill, error)
	StepNumbers(ctx context.Context, skillID uint) ([]int, error)
	CompletedStepNumbers(ctx context.Context, userID, skillID uint) ([]int, error)
}

// Gate decides whether a user may complete a step. It never writes.
type Gate struct {
	store GateStore
	log   *logger.Logger
}

func NewGate(store GateStore, baseLog *logger.Logger) *Gate {
	return &Gate{store: store, log: baseLog.With("component", "ProgressGate")}
}

// Evaluate runs the checks in a fixed order: an existing completion wins,
// then the previous skill must be finished (only before the first step of
// this skill is done), then every earlier step number must be covered.
// Storage failures are the only errors; a lock is a Decision.
func (g *Gate) Evaluate(ctx context.Context, userID uint, progress *models.Progress) (*Decision, error) {
	done, err := g.store.FindCompletedActivity(ctx, userID, progress.ID)
	if err != nil {
		return nil, fmt.Errorf("find completed activity: %w", err)
	}
	if done != nil {
		return &Decision{State: StateCompleted, Activity: done}, nil
	}

	skill, err := g.store.GetSkill(ctx, progress.SkillID)
	if err != nil {
		return nil, fmt.Errorf("get skill: %w", err)
	}

	completedHere, err := g.store.CompletedStepNumbers(ctx, userID, skill.ID)
	if err != nil {
		return nil, fmt.Errorf("completed steps: %w", err)
	}

	if skill.Order > 1 && len(completedHere) == 0 {
		reason, err := g.checkPreviousSkill(ctx, userID, skill)
		if err != nil {
			return nil, err
		}
		if reason != nil {
			g.log.Debug("skill locked", "user_id", userID, "progress_id", progress.ID, "required_skill", reason.Details["requiredSkillId"])
			return &Decision{State: StateLocked, Reason: reason}, nil
		}
	}

	if progress.StepNumber > 1 {
		// Completing step N counts as completing every step below N.
		backfilled := 0
		for _, n := range completedHere {
			if n > backfilled {
				backfilled = n
			}
		}
		if backfilled < progress.StepNumber-1 {
			required, err := g.firstMissingStep(ctx, skill.ID, backfilled, progress.StepNumber)
			if err != nil {
				return nil, err
			}
			if required != 0 {
				g.log.Debug("step locked", "user_id", userID, "progress_id", progress.ID, "required_step", required)
				return &Decision{State: StateLocked, Reason: apperr.StepLocked(required)}, nil
			}
		}
	}

	return &Decision{State: StateUnlockable}, nil
}

// firstMissingStep returns the lowest existing step number between
// backfilled and current, or 0 when step numbering skips that range.
func (g *Gate) firstMissingStep(ctx context.Context, skillID uint, backfilled, current int) (int, error) {
	steps, err := g.store.StepNumbers(ctx, skillID)
	if err != nil {
		return 0, fmt.Errorf("skill steps: %w", err)
	}
	required := 0
	for _, n := range steps {
		if n > backfilled && n < current && (required == 0 || n < required) {
			required = n
		}
	}
	return required, nil
}

func (g *Gate) checkPreviousSkill(ctx context.Context, userID uint, skill *models.Skill) (*apperr.Error, error) {
	prev, err := g.store.FindPreviousSkill(ctx, skill.ChapterID, skill.Order)
	if err != nil {
		return nil, fmt.Errorf("find previous skill: %w", err)
	}
	if prev == nil {
		return nil, nil
	}

	steps, err := g.store.StepNumbers(ctx, prev.ID)
	if err != nil {
		return nil, fmt.Errorf("previous skill steps: %w", err)
	}
	completed, err := g.store.CompletedStepNumbers(ctx, userID, prev.ID)
	if err != nil {
		return nil, fmt.Errorf("previous skill completed steps: %w", err)
	}

	have := make(map[int]bool, len(completed))
	for _, n := range completed {
		have[n] = true
	}
	for _, n := range steps {
		if !have[n] {
			return apperr.SkillLocked(prev.ID, prev.Name, prev.Order), nil
		}
	}
	return nil, nil
}
