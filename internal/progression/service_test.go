package progression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learnpath/internal/apperr"
	"learnpath/internal/models"
	"learnpath/internal/testutil"
)

func newService(t *testing.T, stepsPerSkill ...int) (*Service, *gorm.DB, *testutil.Curriculum) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewRepository(db, log)
	c := testutil.SeedCurriculum(t, db, 10, stepsPerSkill...)
	svc := NewService(repo, NewGate(repo, log), NewRecorder(repo, nil, log), log)
	return svc, db, c
}

func addVideos(t *testing.T, db *gorm.DB, progressID uint, n int) []models.Video {
	t.Helper()
	out := make([]models.Video, n)
	for i := range out {
		out[i] = models.Video{ProgressID: progressID, Title: "video"}
		require.NoError(t, db.Create(&out[i]).Error)
	}
	return out
}

func TestRecordStepCompletionAggregatesVideos(t *testing.T) {
	svc, db, c := newService(t, 2)
	ctx := context.Background()
	p := c.Steps[1][1]
	videos := addVideos(t, db, p.ID, 2)

	res, err := svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{VideoID: videos[0].ID})
	require.NoError(t, err)
	assert.False(t, res.IsDone)
	assert.Equal(t, int64(1), res.Watched)
	assert.Equal(t, int64(2), res.Required)

	// Watching the same video again changes nothing.
	res, err = svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{VideoID: videos[0].ID})
	require.NoError(t, err)
	assert.False(t, res.IsDone)
	assert.Equal(t, int64(1), res.Watched)

	res, err = svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{VideoID: videos[1].ID})
	require.NoError(t, err)
	assert.True(t, res.IsDone)
	assert.Equal(t, 10, res.BonusEarned)
	assert.Equal(t, 2, res.NextStep)

	res, err = svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{VideoID: videos[1].ID})
	require.NoError(t, err)
	assert.True(t, res.IsDone)
	assert.True(t, res.AlreadyCompleted)
	assert.Zero(t, res.BonusEarned)

	points, err := svc.RewardPoints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), points)
}

func TestRecordStepCompletionExercise(t *testing.T) {
	svc, db, c := newService(t, 1)
	ctx := context.Background()
	p := c.Steps[1][1]
	require.NoError(t, db.Model(&p).Update("content_type", models.ContentExercise).Error)

	ex := models.Exercise{ProgressID: p.ID, Title: "ex"}
	require.NoError(t, db.Create(&ex).Error)

	_, err := svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{VideoID: ex.ID})
	assert.ErrorIs(t, err, apperr.InvalidRequest(""), "exercise steps need exerciseId")

	res, err := svc.RecordStepCompletion(ctx, 1, p.ID, CompletionRequest{ExerciseID: ex.ID})
	require.NoError(t, err)
	assert.True(t, res.IsDone)
}

func TestRecordStepCompletionRejections(t *testing.T) {
	svc, db, c := newService(t, 2)
	ctx := context.Background()
	step1, step2 := c.Steps[1][1], c.Steps[1][2]
	addVideos(t, db, step1.ID, 1)
	foreign := addVideos(t, db, step2.ID, 1)[0]

	_, err := svc.RecordStepCompletion(ctx, 1, 9999, CompletionRequest{VideoID: 1})
	assert.ErrorIs(t, err, apperr.NotFound(""))

	_, err = svc.RecordStepCompletion(ctx, 1, step1.ID, CompletionRequest{})
	assert.ErrorIs(t, err, apperr.InvalidRequest(""))

	_, err = svc.RecordStepCompletion(ctx, 1, step1.ID, CompletionRequest{VideoID: foreign.ID})
	assert.ErrorIs(t, err, apperr.NotFound(""), "video of another step")

	_, err = svc.RecordStepCompletion(ctx, 1, step2.ID, CompletionRequest{VideoID: foreign.ID})
	assert.ErrorIs(t, err, apperr.StepLocked(0))

	require.NoError(t, db.Model(&step1).Update("content_type", models.ContentQuiz).Error)
	_, err = svc.RecordStepCompletion(ctx, 1, step1.ID, CompletionRequest{VideoID: 1})
	assert.ErrorIs(t, err, apperr.InvalidRequest(""), "quiz steps complete through sessions")

	var watches int64
	require.NoError(t, db.Model(&models.WatchRecord{}).Count(&watches).Error)
	assert.Zero(t, watches, "rejected requests record nothing")
}

func TestStatus(t *testing.T) {
	svc, db, c := newService(t, 1, 1)
	ctx := context.Background()
	first, second := c.Steps[1][1], c.Steps[2][1]
	v := addVideos(t, db, first.ID, 1)[0]

	st, err := svc.Status(ctx, 1, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, st.State)
	assert.Equal(t, c.Skills[1].ID, st.Details["requiredSkillId"])
	assert.NotEmpty(t, st.Reason)

	st, err = svc.Status(ctx, 1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateUnlockable, st.State)

	_, err = svc.RecordStepCompletion(ctx, 1, first.ID, CompletionRequest{VideoID: v.ID})
	require.NoError(t, err)

	st, err = svc.Status(ctx, 1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, st.State)
	require.NotNil(t, st.Activity)

	st, err = svc.Status(ctx, 1, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StateUnlockable, st.State)
}
