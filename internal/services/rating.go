package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/types"
)

// ratingLockShards sizes the fixed lock pool that serializes ratings
// per patch. Two patches may hash to the same lock; that only costs a
// little contention and keeps memory flat no matter how many patches
// get rated.
const ratingLockShards = 64

type RatingService interface {
	// Rate records or replaces the user's star score for a patch and
	// returns the patch with its ratings reloaded.
	Rate(ctx context.Context, patchID, userID uuid.UUID, stars int) (*types.Patch, error)
	// AverageRating reports the mean star value; the bool is false when
	// the patch has no ratings.
	AverageRating(ctx context.Context, patchID uuid.UUID) (float64, bool, error)
}

type ratingService struct {
	db         *gorm.DB
	log        *logger.Logger
	patchRepo  repos.PatchRepo
	userRepo   repos.UserRepo
	ratingRepo repos.PatchRatingRepo

	locks [ratingLockShards]sync.Mutex
}

func NewRatingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patchRepo repos.PatchRepo,
	userRepo repos.UserRepo,
	ratingRepo repos.PatchRatingRepo,
) RatingService {
	serviceLog := baseLog.With("service", "RatingService")
	return &ratingService{
		db:         db,
		log:        serviceLog,
		patchRepo:  patchRepo,
		userRepo:   userRepo,
		ratingRepo: ratingRepo,
	}
}

func (rs *ratingService) patchLock(patchID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(patchID[:])
	return &rs.locks[h.Sum32()%ratingLockShards]
}

func (rs *ratingService) Rate(ctx context.Context, patchID, userID uuid.UUID, stars int) (*types.Patch, error) {
	if stars < 1 || stars > 5 {
		return nil, fmt.Errorf("stars must be between 1 and 5, got %d: %w", stars, types.ErrValidation)
	}

	exists, err := rs.patchRepo.ExistsByID(ctx, nil, patchID)
	if err != nil {
		return nil, fmt.Errorf("check patch: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("patch %s: %w", patchID, types.ErrNotFound)
	}
	exists, err = rs.userRepo.ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}

	mu := rs.patchLock(patchID)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	rating := &types.PatchRating{
		ID:        uuid.New(),
		UserID:    userID,
		PatchID:   patchID,
		Stars:     stars,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The upsert lands on the (user_id, patch_id) unique index, so even
	// a second service instance racing us cannot create a duplicate.
	if _, err := rs.ratingRepo.Upsert(ctx, nil, rating); err != nil {
		rs.log.Error("Rate failed", "patch_id", patchID, "error", err)
		return nil, fmt.Errorf("rate patch: %w", err)
	}
	rs.log.Info("patch rated", "patch_id", patchID, "stars", stars)

	return rs.patchRepo.GetByID(ctx, nil, patchID)
}

func (rs *ratingService) AverageRating(ctx context.Context, patchID uuid.UUID) (float64, bool, error) {
	ratings, err := rs.ratingRepo.GetByPatchID(ctx, nil, patchID)
	if err != nil {
		return 0, false, fmt.Errorf("load ratings: %w", err)
	}
	if len(ratings) == 0 {
		return 0, false, nil
	}
	var sum int
	for _, r := range ratings {
		sum += r.Stars
	}
	return float64(sum) / float64(len(ratings)), true, nil
}
