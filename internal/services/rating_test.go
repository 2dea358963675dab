package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soulhub/soulhub-backend/internal/types"
)

func TestRateReplacesEarlierRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	rater := env.seedUser(t, "rater")
	patch := env.seedPatch(t, author, "Warm Pad", "slow attack pad")

	patch, err := env.ratingService.Rate(ctx, patch.ID, rater.ID, 4)
	require.NoError(t, err)
	require.Len(t, patch.Ratings, 1)
	require.Equal(t, 4, patch.Ratings[0].Stars)

	patch, err = env.ratingService.Rate(ctx, patch.ID, rater.ID, 2)
	require.NoError(t, err)
	require.Len(t, patch.Ratings, 1)
	require.Equal(t, 2, patch.Ratings[0].Stars)

	avg, defined, err := env.ratingService.AverageRating(ctx, patch.ID)
	require.NoError(t, err)
	require.True(t, defined)
	require.Equal(t, 2.0, avg)
}

func TestRateDistinctUsersAverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Crunchy Lead", "")

	first := env.seedUser(t, "first")
	second := env.seedUser(t, "second")

	_, err := env.ratingService.Rate(ctx, patch.ID, first.ID, 5)
	require.NoError(t, err)
	_, err = env.ratingService.Rate(ctx, patch.ID, second.ID, 2)
	require.NoError(t, err)

	avg, defined, err := env.ratingService.AverageRating(ctx, patch.ID)
	require.NoError(t, err)
	require.True(t, defined)
	require.Equal(t, 3.5, avg)
}

func TestAverageRatingUndefinedWithoutRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Unrated", "")

	avg, defined, err := env.ratingService.AverageRating(ctx, patch.ID)
	require.NoError(t, err)
	require.False(t, defined)
	require.Equal(t, 0.0, avg)
}

func TestRateValidatesStars(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Bounds", "")

	for _, stars := range []int{0, 6, -1} {
		_, err := env.ratingService.Rate(ctx, patch.ID, author.ID, stars)
		require.Error(t, err)
		require.True(t, errors.Is(err, types.ErrValidation))
	}
}

func TestRateUnknownPatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rater := env.seedUser(t, "rater")

	_, err := env.ratingService.Rate(ctx, uuid.New(), rater.ID, 3)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrNotFound))
}

func TestRateUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Rated By Nobody", "")

	_, err := env.ratingService.Rate(ctx, patch.ID, uuid.New(), 3)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrNotFound))

	ratings, err := env.ratingRepo.GetByPatchID(ctx, nil, patch.ID)
	require.NoError(t, err)
	require.Empty(t, ratings)
}

func TestPatchLockStablePerPatch(t *testing.T) {
	env := newTestEnv(t)
	rs := env.ratingService.(*ratingService)

	id := uuid.New()
	first := rs.patchLock(id)
	require.Same(t, first, rs.patchLock(id))

	// the pool is fixed size, every id lands inside it
	for i := 0; i < 1000; i++ {
		mu := rs.patchLock(uuid.New())
		require.NotNil(t, mu)
	}
}

func TestConcurrentFirstTimeRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	rater := env.seedUser(t, "rater")
	patch := env.seedPatch(t, author, "Contended", "")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = env.ratingService.Rate(ctx, patch.ID, rater.ID, 1+slot%5)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	ratings, err := env.ratingRepo.GetByPatchID(ctx, nil, patch.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	require.Equal(t, rater.ID, ratings[0].UserID)
}
