package progression

import (
	"context"
	"fmt"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
	"learnpath/internal/models"
)

type Service struct {
	repo     *Repository
	gate     *Gate
	recorder *Recorder
	log      *logger.Logger
}

func NewService(repo *Repository, gate *Gate, recorder *Recorder, baseLog *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		recorder: recorder,
		log:      baseLog.With("service", "ProgressionService"),
	}
}

// CompletionRequest names the unit of content that was consumed. Video steps
// send VideoID, exercise steps send ExerciseID.
type CompletionRequest struct {
	VideoID    uint `json:"videoId"`
	ExerciseID uint `json:"exerciseId"`
}

type CompletionResult struct {
	IsDone           bool  `json:"isDone"`
	BonusEarned      int   `json:"bonusEarned"`
	NextStep         int   `json:"nextStep"`
	Watched          int64 `json:"watched"`
	Required         int64 `json:"required"`
	AlreadyCompleted bool  `json:"alreadyCompleted,omitempty"`
}

// RecordStepCompletion records that a user consumed one unit of a video or
// exercise step. The step is completed, and the bonus credited, once every
// unit the step owns has been consumed.
func (s *Service) RecordStepCompletion(ctx context.Context, userID, progressID uint, req CompletionRequest) (*CompletionResult, error) {
	progress, err := s.repo.GetProgress(ctx, progressID)
	if err != nil {
		return nil, err
	}

	var unitType models.UnitType
	var unitID uint
	switch progress.ContentType {
	case models.ContentVideo:
		unitType, unitID = models.UnitVideo, req.VideoID
	case models.ContentExercise:
		unitType, unitID = models.UnitExercise, req.ExerciseID
	default:
		return nil, apperr.InvalidRequest("%s steps are completed by submitting a quiz session", progress.ContentType)
	}
	if unitID == 0 {
		return nil, apperr.InvalidRequest("%sId is required", unitType)
	}

	decision, err := s.gate.Evaluate(ctx, userID, progress)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if decision.State == StateCompleted {
		return &CompletionResult{
			IsDone:           true,
			NextStep:         progress.StepNumber + 1,
			AlreadyCompleted: true,
		}, nil
	}

	owned, err := s.repo.UnitBelongsToProgress(ctx, unitType, unitID, progress.ID)
	if err != nil {
		return nil, fmt.Errorf("check %s ownership: %w", unitType, err)
	}
	if !owned {
		return nil, apperr.NotFound(string(unitType))
	}

	err = s.repo.RecordWatch(ctx, &models.WatchRecord{
		UserID:     userID,
		ProgressID: progress.ID,
		UnitType:   unitType,
		UnitID:     unitID,
	})
	if err != nil {
		return nil, fmt.Errorf("record watch: %w", err)
	}

	watched, err := s.repo.CountWatched(ctx, userID, progress.ID, unitType)
	if err != nil {
		return nil, fmt.Errorf("count watched: %w", err)
	}
	required, err := s.repo.CountUnits(ctx, unitType, progress.ID)
	if err != nil {
		return nil, fmt.Errorf("count units: %w", err)
	}

	res := &CompletionResult{
		NextStep: progress.StepNumber + 1,
		Watched:  watched,
		Required: required,
	}
	if watched < required {
		return res, nil
	}

	rec, err := s.recorder.Record(ctx, Outcome{
		UserID:    userID,
		Progress:  progress,
		Score:     100,
		Completed: true,
		Bonus:     progress.BonusPoints,
	})
	if err != nil {
		return nil, err
	}
	res.IsDone = true
	res.BonusEarned = rec.BonusCredited
	res.AlreadyCompleted = rec.AlreadyCompleted
	return res, nil
}

type StatusResult struct {
	ProgressID uint                   `json:"progressId"`
	State      State                  `json:"state"`
	Reason     string                 `json:"reason,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Activity   *models.UserActivity   `json:"activity,omitempty"`
}

// Status reports the gate state of a step for a user without side effects.
func (s *Service) Status(ctx context.Context, userID, progressID uint) (*StatusResult, error) {
	progress, err := s.repo.GetProgress(ctx, progressID)
	if err != nil {
		return nil, err
	}
	decision, err := s.gate.Evaluate(ctx, userID, progress)
	if err != nil {
		return nil, err
	}
	res := &StatusResult{ProgressID: progress.ID, State: decision.State, Activity: decision.Activity}
	if decision.Reason != nil {
		res.Reason = decision.Reason.Message
		res.Details = decision.Reason.Details
	}
	return res, nil
}

func (s *Service) RewardPoints(ctx context.Context, userID uint) (int64, error) {
	return s.repo.GetRewardPoints(ctx, userID)
}
