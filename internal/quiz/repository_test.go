package quiz

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

func seedQuiz(t *testing.T, db *gorm.DB) (*models.Progress, *models.Quiz) {
	t.Helper()
	c := testutil.SeedCurriculum(t, db, 10, 1)
	p := c.Steps[1][1]
	require.NoError(t, db.Model(&p).Update("content_type", models.ContentQuiz).Error)
	p.ContentType = models.ContentQuiz

	quiz := &models.Quiz{ProgressID: p.ID, Title: "Quiz"}
	require.NoError(t, db.Create(quiz).Error)
	return &p, quiz
}

func TestGetQuizByProgress(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRepository(db, testutil.Logger(t))
	p, quiz := seedQuiz(t, db)

	got, err := repo.GetQuizByProgress(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, got.ID)

	_, err = repo.GetQuizByProgress(context.Background(), p.ID+100)
	assert.ErrorIs(t, err, apperr.NotFound(""))
}

func TestPoolQueries(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRepository(db, testutil.Logger(t))
	ctx := context.Background()
	_, quiz := seedQuiz(t, db)

	singles := testutil.SeedQuestions(t, db, quiz.ID, "single", 4)
	testutil.SeedQuestions(t, db, quiz.ID, "multiple", 2)
	testutil.SeedQuestions(t, db, quiz.ID+1, "single", 3)

	n, err := repo.CountByType(ctx, quiz.ID, "single", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = repo.CountByType(ctx, quiz.ID, "single", []uint{singles[0].ID, singles[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := repo.SampleByType(ctx, quiz.ID, "single", 10, []uint{singles[0].ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{singles[1].ID, singles[2].ID, singles[3].ID}, ids)

	ids, err = repo.SampleByType(ctx, quiz.ID, "multiple", 1, nil)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestGetQuestionsByIDsKeepsOrder(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRepository(db, testutil.Logger(t))
	_, quiz := seedQuiz(t, db)
	qs := testutil.SeedQuestions(t, db, quiz.ID, "single", 3)

	got, err := repo.GetQuestionsByIDs(context.Background(), []uint{qs[2].ID, 9999, qs[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, qs[2].ID, got[0].ID)
	assert.Equal(t, qs[0].ID, got[1].ID)

	got, err = repo.GetQuestionsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
