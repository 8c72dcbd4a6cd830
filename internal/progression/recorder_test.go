package progression

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnpath/internal/testutil"
)

type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *countingNotifier) SendToUser(_ uint, messageType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[string]int{}
	}
	n.calls[messageType]++
}

func newRecorder(t *testing.T) (*Recorder, *Repository, *testutil.Curriculum, *countingNotifier) {
	t.Helper()
	db := testutil.DB(t)
	repo := NewRepository(db, testutil.Logger(t))
	notifier := &countingNotifier{}
	c := testutil.SeedCurriculum(t, db, 10, 2)
	return NewRecorder(repo, notifier, testutil.Logger(t)), repo, c, notifier
}

func TestRecordCompletionCreditsBonusOnce(t *testing.T) {
	rec, repo, c, notifier := newRecorder(t)
	ctx := context.Background()
	p := c.Steps[1][1]

	first, err := rec.Record(ctx, Outcome{UserID: 1, Progress: &p, Score: 75, Completed: true, Bonus: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, first.BonusCredited)
	assert.Equal(t, 2, first.NextStep)
	assert.False(t, first.AlreadyCompleted)
	assert.True(t, first.Activity.IsCompleted)
	assert.Equal(t, 10, first.Activity.BonusPoints)

	second, err := rec.Record(ctx, Outcome{UserID: 1, Progress: &p, Score: 100, Completed: true, Bonus: 10})
	require.NoError(t, err)
	assert.Zero(t, second.BonusCredited)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, first.Activity.ID, second.Activity.ID)
	assert.Equal(t, 75, second.Activity.Score)

	points, err := repo.GetRewardPoints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), points)
	assert.Equal(t, 1, notifier.calls["step_completed"])
}

func TestRecordFailedAttemptAppends(t *testing.T) {
	rec, repo, c, notifier := newRecorder(t)
	ctx := context.Background()
	p := c.Steps[1][1]

	for i := 0; i < 2; i++ {
		res, err := rec.Record(ctx, Outcome{UserID: 1, Progress: &p, Score: 20, Bonus: 10})
		require.NoError(t, err)
		assert.False(t, res.Activity.IsCompleted)
		assert.Zero(t, res.BonusCredited)
	}

	done, err := repo.FindCompletedActivity(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.Nil(t, done)

	points, err := repo.GetRewardPoints(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, points)
	assert.Zero(t, notifier.calls["step_completed"])
}

func TestRecordZeroBonusAndClamp(t *testing.T) {
	rec, repo, c, _ := newRecorder(t)
	ctx := context.Background()
	p := c.Steps[1][2]

	res, err := rec.Record(ctx, Outcome{UserID: 1, Progress: &p, Score: 140, Completed: true, Bonus: -5})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Activity.Score)
	assert.Zero(t, res.BonusCredited)

	points, err := repo.GetRewardPoints(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, points)
}

func TestRecordConcurrentCompletions(t *testing.T) {
	rec, repo, c, notifier := newRecorder(t)
	ctx := context.Background()
	p := c.Steps[1][1]

	const workers = 8
	results := make([]*Recorded, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = rec.Record(ctx, Outcome{UserID: 1, Progress: &p, Score: 100, Completed: true, Bonus: 10})
		}(i)
	}
	wg.Wait()

	credited := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if !results[i].AlreadyCompleted {
			credited++
			assert.Equal(t, 10, results[i].BonusCredited)
		}
	}
	assert.Equal(t, 1, credited)

	points, err := repo.GetRewardPoints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), points)
	assert.Equal(t, 1, notifier.calls["step_completed"])
}
