package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type PatchFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, files []*types.PatchFile) ([]*types.PatchFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PatchFile, error)
	GetByPatchID(ctx context.Context, tx *gorm.DB, patchID uuid.UUID) ([]*types.PatchFile, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.PatchFile, error)
	Save(ctx context.Context, tx *gorm.DB, file *types.PatchFile) (*types.PatchFile, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type patchFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatchFileRepo(db *gorm.DB, baseLog *logger.Logger) PatchFileRepo {
	repoLog := baseLog.With("repo", "PatchFileRepo")
	return &patchFileRepo{db: db, log: repoLog}
}

func (r *patchFileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.PatchFile) ([]*types.PatchFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(files) == 0 {
		return []*types.PatchFile{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *patchFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PatchFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PatchFile
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *patchFileRepo) GetByPatchID(ctx context.Context, tx *gorm.DB, patchID uuid.UUID) ([]*types.PatchFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PatchFile
	if err := transaction.WithContext(ctx).
		Where("patch_id = ?", patchID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *patchFileRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.PatchFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PatchFile
	if err := transaction.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *patchFileRepo) Save(ctx context.Context, tx *gorm.DB, file *types.PatchFile) (*types.PatchFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Save(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *patchFileRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.PatchFile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *patchFileRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).Model(&types.PatchFile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *patchFileRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.PatchFile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
