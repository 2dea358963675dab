package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/archive"
	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/patchxml"
	"github.com/soulhub/soulhub-backend/internal/repos"
)

type ExportService interface {
	// ExportXML renders one patch in interchange form.
	ExportXML(ctx context.Context, patchID uuid.UUID) ([]byte, error)
	// ExportAllXML dumps every patch.
	ExportAllXML(ctx context.Context) ([]byte, error)
	// ExportZip packages a patch's files for download. A file-less
	// patch yields a valid empty archive; a failed write yields
	// types.ErrPackagingFailed.
	ExportZip(ctx context.Context, patchID uuid.UUID) ([]byte, error)
	// MatchesXML probes whether the document describes the patch.
	// Degrades to false on any error.
	MatchesXML(ctx context.Context, patchID uuid.UUID, document []byte) bool
}

type exportService struct {
	db        *gorm.DB
	log       *logger.Logger
	patchRepo repos.PatchRepo
	fileRepo  repos.PatchFileRepo
}

func NewExportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patchRepo repos.PatchRepo,
	fileRepo repos.PatchFileRepo,
) ExportService {
	serviceLog := baseLog.With("service", "ExportService")
	return &exportService{
		db:        db,
		log:       serviceLog,
		patchRepo: patchRepo,
		fileRepo:  fileRepo,
	}
}

func (es *exportService) ExportXML(ctx context.Context, patchID uuid.UUID) ([]byte, error) {
	patch, err := es.patchRepo.GetByID(ctx, nil, patchID)
	if err != nil {
		return nil, err
	}
	doc := patchxml.FromPatch(patch, patch.Files)
	raw, err := patchxml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal patch %s: %w", patchID, err)
	}
	return raw, nil
}

func (es *exportService) ExportAllXML(ctx context.Context) ([]byte, error) {
	patches, err := es.patchRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list patches: %w", err)
	}
	list := &patchxml.SOULPatchListXML{}
	for _, patch := range patches {
		list.Patches = append(list.Patches, patchxml.FromPatch(patch, patch.Files))
	}
	raw, err := patchxml.MarshalList(list)
	if err != nil {
		return nil, fmt.Errorf("marshal patch dump: %w", err)
	}
	return raw, nil
}

func (es *exportService) ExportZip(ctx context.Context, patchID uuid.UUID) ([]byte, error) {
	patch, err := es.patchRepo.GetByID(ctx, nil, patchID)
	if err != nil {
		return nil, err
	}
	data, err := archive.Pack(patch.Files)
	if err != nil {
		es.log.Error("zipping patch failed", "patch_id", patchID, "error", err)
		return nil, err
	}
	return data, nil
}

func (es *exportService) MatchesXML(ctx context.Context, patchID uuid.UUID, document []byte) bool {
	patch, err := es.patchRepo.GetByID(ctx, nil, patchID)
	if err != nil {
		return false
	}
	return patchxml.Matches(patch, document)
}
