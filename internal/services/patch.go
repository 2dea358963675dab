package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/types"
)

// placeholderPatchName seeds every freshly created patch until the
// author renames it.
const placeholderPatchName = "my new SOULPatch"

type PatchUpdateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	NoViews     int64  `json:"no_views"`
}

type PatchService interface {
	CreatePatch(ctx context.Context, authorID uuid.UUID) (*types.Patch, error)
	GetPatch(ctx context.Context, id uuid.UUID) (*types.Patch, error)
	ListPatches(ctx context.Context) ([]*types.Patch, error)
	UpdatePatch(ctx context.Context, id uuid.UUID, input PatchUpdateInput) (*types.Patch, error)
	DeletePatch(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (*types.Patch, error)
	FilterByPattern(ctx context.Context, pattern string) ([]*types.Patch, error)
	CountPatches(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
	IsPossiblePatchID(ctx context.Context, parameter string) bool
	IsPossibleFileID(ctx context.Context, parameter string) bool
}

type patchService struct {
	db            *gorm.DB
	log           *logger.Logger
	patchRepo     repos.PatchRepo
	fileRepo      repos.PatchFileRepo
	userRepo      repos.UserRepo
	searchService SearchService
}

func NewPatchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patchRepo repos.PatchRepo,
	fileRepo repos.PatchFileRepo,
	userRepo repos.UserRepo,
	searchService SearchService,
) PatchService {
	serviceLog := baseLog.With("service", "PatchService")
	return &patchService{
		db:            db,
		log:           serviceLog,
		patchRepo:     patchRepo,
		fileRepo:      fileRepo,
		userRepo:      userRepo,
		searchService: searchService,
	}
}

func (ps *patchService) CreatePatch(ctx context.Context, authorID uuid.UUID) (*types.Patch, error) {
	exists, err := ps.userRepo.ExistsByID(ctx, nil, authorID)
	if err != nil {
		return nil, fmt.Errorf("check author: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("author %s: %w", authorID, types.ErrNotFound)
	}

	now := time.Now()
	patch := &types.Patch{
		ID:        uuid.New(),
		Name:      placeholderPatchName,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := ps.patchRepo.Create(ctx, nil, []*types.Patch{patch}); err != nil {
		ps.log.Error("CreatePatch failed", "error", err)
		return nil, fmt.Errorf("create patch: %w", err)
	}
	ps.log.Info("patch created", "patch_id", patch.ID)
	ps.searchService.PatchSaved(ctx, patch)
	return patch, nil
}

func (ps *patchService) GetPatch(ctx context.Context, id uuid.UUID) (*types.Patch, error) {
	return ps.patchRepo.GetByID(ctx, nil, id)
}

func (ps *patchService) ListPatches(ctx context.Context) ([]*types.Patch, error) {
	return ps.patchRepo.GetAll(ctx, nil)
}

func (ps *patchService) UpdatePatch(ctx context.Context, id uuid.UUID, input PatchUpdateInput) (*types.Patch, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("patch name must not be empty: %w", types.ErrValidation)
	}
	if input.NoViews < 0 {
		return nil, fmt.Errorf("view count must not be negative: %w", types.ErrValidation)
	}

	patch, err := ps.patchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	patch.Name = input.Name
	patch.Description = input.Description
	patch.NoViews = input.NoViews
	patch.UpdatedAt = time.Now()
	if _, err := ps.patchRepo.Save(ctx, nil, patch); err != nil {
		ps.log.Error("UpdatePatch failed", "patch_id", id, "error", err)
		return nil, fmt.Errorf("update patch: %w", err)
	}
	ps.searchService.PatchSaved(ctx, patch)
	return patch, nil
}

func (ps *patchService) DeletePatch(ctx context.Context, id uuid.UUID) error {
	if err := ps.patchRepo.DeleteByID(ctx, nil, id); err != nil {
		return err
	}
	ps.log.Info("patch deleted", "patch_id", id)
	// Files and ratings cascade in the store; the index drops the
	// patch's file entries together with the patch.
	ps.searchService.PatchDeleted(ctx, id)
	return nil
}

func (ps *patchService) IncrementViews(ctx context.Context, id uuid.UUID) (*types.Patch, error) {
	if err := ps.patchRepo.IncrementViews(ctx, nil, id); err != nil {
		return nil, err
	}
	return ps.patchRepo.GetByID(ctx, nil, id)
}

// FilterByPattern is the simple linear query surface: a
// case-insensitive regex matched against patch name, description and
// every file name. It scans all patches on each call and never touches
// the index.
func (ps *patchService) FilterByPattern(ctx context.Context, pattern string) ([]*types.Patch, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("bad filter pattern %q: %w", pattern, types.ErrValidation)
	}

	patches, err := ps.patchRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list patches: %w", err)
	}

	var matched []*types.Patch
	for _, patch := range patches {
		if ps.patchMatches(re, patch) {
			matched = append(matched, patch)
		}
	}
	return matched, nil
}

func (ps *patchService) patchMatches(re *regexp.Regexp, patch *types.Patch) bool {
	if re.MatchString(patch.Name) || re.MatchString(patch.Description) {
		return true
	}
	for _, f := range patch.Files {
		if re.MatchString(f.Name) {
			return true
		}
	}
	return false
}

func (ps *patchService) CountPatches(ctx context.Context) (int64, error) {
	return ps.patchRepo.Count(ctx, nil)
}

func (ps *patchService) CountFiles(ctx context.Context) (int64, error) {
	return ps.fileRepo.Count(ctx, nil)
}

// IsPossiblePatchID vets a route parameter: parseable id that exists in
// the store. Errors count as "no".
func (ps *patchService) IsPossiblePatchID(ctx context.Context, parameter string) bool {
	id, err := uuid.Parse(parameter)
	if err != nil {
		return false
	}
	exists, err := ps.patchRepo.ExistsByID(ctx, nil, id)
	if err != nil {
		ps.log.Warn("IsPossiblePatchID lookup failed", "parameter", parameter, "error", err)
		return false
	}
	return exists
}

func (ps *patchService) IsPossibleFileID(ctx context.Context, parameter string) bool {
	id, err := uuid.Parse(parameter)
	if err != nil {
		return false
	}
	exists, err := ps.fileRepo.ExistsByID(ctx, nil, id)
	if err != nil {
		ps.log.Warn("IsPossibleFileID lookup failed", "parameter", parameter, "error", err)
		return false
	}
	return exists
}
