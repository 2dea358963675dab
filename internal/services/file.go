package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/classify"
	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type FileUpdateInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type FileService interface {
	CreateFile(ctx context.Context, patchID uuid.UUID) (*types.PatchFile, error)
	GetFile(ctx context.Context, id uuid.UUID) (*types.PatchFile, error)
	ListFiles(ctx context.Context, patchID uuid.UUID) ([]*types.PatchFile, error)
	SaveFile(ctx context.Context, file *types.PatchFile) (*types.PatchFile, error)
	UpdateFile(ctx context.Context, id uuid.UUID, input FileUpdateInput) (*types.PatchFile, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

type fileService struct {
	db            *gorm.DB
	log           *logger.Logger
	patchRepo     repos.PatchRepo
	fileRepo      repos.PatchFileRepo
	searchService SearchService
}

func NewFileService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patchRepo repos.PatchRepo,
	fileRepo repos.PatchFileRepo,
	searchService SearchService,
) FileService {
	serviceLog := baseLog.With("service", "FileService")
	return &fileService{
		db:            db,
		log:           serviceLog,
		patchRepo:     patchRepo,
		fileRepo:      fileRepo,
		searchService: searchService,
	}
}

// CreateFile attaches a new empty file to a patch. The role starts out
// unknown and is recomputed on every save.
func (fs *fileService) CreateFile(ctx context.Context, patchID uuid.UUID) (*types.PatchFile, error) {
	exists, err := fs.patchRepo.ExistsByID(ctx, nil, patchID)
	if err != nil {
		return nil, fmt.Errorf("check patch: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("patch %s: %w", patchID, types.ErrNotFound)
	}

	now := time.Now()
	file := &types.PatchFile{
		ID:        uuid.New(),
		PatchID:   patchID,
		FileType:  types.FileTypeUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := fs.fileRepo.Create(ctx, nil, []*types.PatchFile{file}); err != nil {
		fs.log.Error("CreateFile failed", "patch_id", patchID, "error", err)
		return nil, fmt.Errorf("create patch file: %w", err)
	}
	fs.searchService.FileSaved(ctx, file)
	return file, nil
}

func (fs *fileService) GetFile(ctx context.Context, id uuid.UUID) (*types.PatchFile, error) {
	return fs.fileRepo.GetByID(ctx, nil, id)
}

func (fs *fileService) ListFiles(ctx context.Context, patchID uuid.UUID) ([]*types.PatchFile, error) {
	return fs.fileRepo.GetByPatchID(ctx, nil, patchID)
}

// SaveFile persists the file with a freshly computed role. The role is
// never taken from the caller: editing content can change it.
func (fs *fileService) SaveFile(ctx context.Context, file *types.PatchFile) (*types.PatchFile, error) {
	file.FileType = classify.Classify(file.Name, file.Content)
	file.UpdatedAt = time.Now()
	saved, err := fs.fileRepo.Save(ctx, nil, file)
	if err != nil {
		fs.log.Error("SaveFile failed", "file_id", file.ID, "error", err)
		return nil, fmt.Errorf("save patch file: %w", err)
	}
	fs.log.Debug("file saved", "file_id", saved.ID, "file_type", saved.FileType)
	fs.searchService.FileSaved(ctx, saved)
	return saved, nil
}

func (fs *fileService) UpdateFile(ctx context.Context, id uuid.UUID, input FileUpdateInput) (*types.PatchFile, error) {
	file, err := fs.fileRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	file.Name = input.Name
	file.Content = input.Content
	return fs.SaveFile(ctx, file)
}

func (fs *fileService) DeleteFile(ctx context.Context, id uuid.UUID) error {
	if err := fs.fileRepo.DeleteByID(ctx, nil, id); err != nil {
		return err
	}
	fs.searchService.FileDeleted(ctx, id)
	return nil
}
