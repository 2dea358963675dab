package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type PatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, patches []*types.Patch) ([]*types.Patch, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Patch, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Patch, error)
	Save(ctx context.Context, tx *gorm.DB, patch *types.Patch) (*types.Patch, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	IncrementViews(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type patchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatchRepo(db *gorm.DB, baseLog *logger.Logger) PatchRepo {
	repoLog := baseLog.With("repo", "PatchRepo")
	return &patchRepo{db: db, log: repoLog}
}

// fileOrder keeps a patch's file enumeration stable across loads; the
// XML and zip exports depend on it.
func fileOrder(db *gorm.DB) *gorm.DB {
	return db.Order("patch_file.created_at ASC, patch_file.id ASC")
}

func (r *patchRepo) Create(ctx context.Context, tx *gorm.DB, patches []*types.Patch) ([]*types.Patch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(patches) == 0 {
		return []*types.Patch{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&patches).Error; err != nil {
		return nil, err
	}
	return patches, nil
}

func (r *patchRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Patch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Patch
	err := transaction.WithContext(ctx).
		Preload("Files", fileOrder).
		Preload("Ratings").
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *patchRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Patch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Patch
	if err := transaction.WithContext(ctx).
		Preload("Files", fileOrder).
		Preload("Ratings").
		Order("patch.created_at ASC, patch.id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *patchRepo) Save(ctx context.Context, tx *gorm.DB, patch *types.Patch) (*types.Patch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Save(patch).Error; err != nil {
		return nil, err
	}
	return patch, nil
}

func (r *patchRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.Patch{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *patchRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.Patch{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *patchRepo) IncrementViews(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).Model(&types.Patch{}).
		Where("id = ?", id).
		UpdateColumn("no_views", gorm.Expr("no_views + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *patchRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Patch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
