package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type PatchRatingRepo interface {
	GetByUserAndPatch(ctx context.Context, tx *gorm.DB, userID, patchID uuid.UUID) (*types.PatchRating, error)
	GetByPatchID(ctx context.Context, tx *gorm.DB, patchID uuid.UUID) ([]*types.PatchRating, error)
	Upsert(ctx context.Context, tx *gorm.DB, rating *types.PatchRating) (*types.PatchRating, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type patchRatingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatchRatingRepo(db *gorm.DB, baseLog *logger.Logger) PatchRatingRepo {
	repoLog := baseLog.With("repo", "PatchRatingRepo")
	return &patchRatingRepo{db: db, log: repoLog}
}

func (r *patchRatingRepo) GetByUserAndPatch(ctx context.Context, tx *gorm.DB, userID, patchID uuid.UUID) (*types.PatchRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PatchRating
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND patch_id = ?", userID, patchID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *patchRatingRepo) GetByPatchID(ctx context.Context, tx *gorm.DB, patchID uuid.UUID) ([]*types.PatchRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PatchRating
	if err := transaction.WithContext(ctx).
		Where("patch_id = ?", patchID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Upsert writes the rating atomically against the (user_id, patch_id)
// unique index: two concurrent first-time ratings by the same user
// collapse into a single row.
func (r *patchRatingRepo) Upsert(ctx context.Context, tx *gorm.DB, rating *types.PatchRating) (*types.PatchRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	rating.UpdatedAt = time.Now()
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "patch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stars", "updated_at"}),
	}).Create(rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *patchRatingRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.PatchRating{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
