package data

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/ekyc-verify/internal/domain/model"
	"github.com/target/ekyc-verify/internal/testutil"
)

func TestMemoryJobRepoGetPut(t *testing.T) {
	t.Parallel()

	repo := NewMemoryJobRepo(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "user-1", "req-1")
	assert.ErrorIs(t, err, ErrJobNotFound)

	job := testutil.Job()
	require.NoError(t, repo.Put(ctx, job))

	stored, err := repo.Get(ctx, "user-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, *job, *stored)

	// Inserting the same key pair again collides.
	assert.ErrorIs(t, repo.Put(ctx, testutil.Job()), ErrJobExists)
}

func TestMemoryJobRepoGetReturnsCopy(t *testing.T) {
	t.Parallel()

	repo := NewMemoryJobRepo(nil)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testutil.Job()))

	first, err := repo.Get(ctx, "user-1", "req-1")
	require.NoError(t, err)
	first.Status = model.JobStatusFacialMatched

	second, err := repo.Get(ctx, "user-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCreated, second.Status)
}

func TestMemoryJobRepoUpdatePartialMerge(t *testing.T) {
	t.Parallel()

	clock := NewFixedTimeProvider(time.UnixMilli(1735689600000))
	repo := NewMemoryJobRepo(clock)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testutil.Job()))

	clock.AddTime(5 * time.Second)
	merged, err := repo.Update(ctx, "user-1", "req-1",
		model.StatusUpdate(model.JobStatusRequestValid, ""))
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusRequestValid, merged.Status)
	assert.Equal(t, int64(1735689605000), merged.UpdateTime)
	// Fields not named in the update are untouched.
	assert.Equal(t, "John Doe", merged.Name)
	assert.False(t, merged.Complete)

	clock.AddTime(5 * time.Second)
	merged, err = repo.Update(ctx, "user-1", "req-1", model.OutcomeUpdate(true, ""))
	require.NoError(t, err)
	assert.True(t, merged.Complete)
	assert.True(t, merged.Success)
	assert.Empty(t, merged.Error)
	// Status survives an outcome-only update.
	assert.Equal(t, model.JobStatusRequestValid, merged.Status)
}

func TestMemoryJobRepoUpdateTimeMonotonic(t *testing.T) {
	t.Parallel()

	clock := NewFixedTimeProvider(time.UnixMilli(2000000000000))
	repo := NewMemoryJobRepo(clock)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, testutil.Job(func(j *model.Job) {
		j.UpdateTime = 2000000005000
	})))

	// Clock sits behind the stored update_time; the merge must not move it
	// backwards.
	merged, err := repo.Update(ctx, "user-1", "req-1",
		model.StatusUpdate(model.JobStatusRequestValid, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2000000005000), merged.UpdateTime)

	clock.AddTime(10 * time.Second)
	merged, err = repo.Update(ctx, "user-1", "req-1",
		model.StatusUpdate(model.JobStatusFacialMatched, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2000000010000), merged.UpdateTime)
}

func TestMemoryJobRepoUpdateErrors(t *testing.T) {
	t.Parallel()

	repo := NewMemoryJobRepo(nil)
	ctx := context.Background()

	_, err := repo.Update(ctx, "user-1", "req-1", model.JobUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = repo.Update(ctx, "user-1", "req-1",
		model.StatusUpdate(model.JobStatusRequestValid, ""))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryJobRepoConcurrentDistinctKeys(t *testing.T) {
	t.Parallel()

	repo := NewMemoryJobRepo(nil)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		job := testutil.Job(func(j *model.Job) {
			j.RequestID = string(rune('a' + i))
		})
		require.NoError(t, repo.Put(ctx, job))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "user-1", string(rune('a'+i)),
				model.StatusUpdate(model.JobStatusRequestValid, ""))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		job, err := repo.Get(ctx, "user-1", string(rune('a'+i)))
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRequestValid, job.Status)
	}
}

func TestBuildUpdateSet(t *testing.T) {
	t.Parallel()

	t.Run("status and error", func(t *testing.T) {
		t.Parallel()
		clause, args := buildUpdateSet(model.StatusUpdate(model.JobStatusRequestValid, ""), 42)
		assert.Equal(t, "status = $1, error = $2, update_time = GREATEST(update_time, $3)", clause)
		require.Len(t, args, 3)
		assert.Equal(t, model.JobStatusRequestValid, args[0])
		assert.Equal(t, "", args[1])
		assert.Equal(t, int64(42), args[2])
	})

	t.Run("outcome", func(t *testing.T) {
		t.Parallel()
		clause, args := buildUpdateSet(model.OutcomeUpdate(false, "No face matches"), 99)
		assert.Equal(t,
			"error = $1, complete = $2, success = $3, update_time = GREATEST(update_time, $4)",
			clause)
		require.Len(t, args, 4)
		assert.Equal(t, "No face matches", args[0])
		assert.Equal(t, true, args[1])
		assert.Equal(t, false, args[2])
		assert.Equal(t, int64(99), args[3])
	})
}
