package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/soulhub/soulhub-backend/internal/clients/redis"
	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/search"
	"github.com/soulhub/soulhub-backend/internal/types"
)

// SearchService owns the free-text index. Mutating services call the
// *Saved/*Deleted hooks after each successful store write; ReindexAll
// is reserved for cold start and explicit repair.
type SearchService interface {
	PatchSaved(ctx context.Context, patch *types.Patch)
	PatchDeleted(ctx context.Context, id uuid.UUID)
	FileSaved(ctx context.Context, file *types.PatchFile)
	FileDeleted(ctx context.Context, id uuid.UUID)

	SearchPatches(ctx context.Context, query string) ([]*types.Patch, error)
	SearchFiles(ctx context.Context, query string) ([]*types.PatchFile, error)

	ReindexAll(ctx context.Context) error
	TriggerReindex(ctx context.Context) error
	IndexState() search.State

	StartForwarder(ctx context.Context) error
}

type searchService struct {
	db        *gorm.DB
	log       *logger.Logger
	index     *search.Index
	patchRepo repos.PatchRepo
	fileRepo  repos.PatchFileRepo
	bus       redisclient.ChangeBus
}

func NewSearchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	index *search.Index,
	patchRepo repos.PatchRepo,
	fileRepo repos.PatchFileRepo,
	bus redisclient.ChangeBus,
) SearchService {
	serviceLog := baseLog.With("service", "SearchService")
	return &searchService{
		db:        db,
		log:       serviceLog,
		index:     index,
		patchRepo: patchRepo,
		fileRepo:  fileRepo,
		bus:       bus,
	}
}

// storeSource feeds a full rebuild from the persistence layer.
type storeSource struct {
	patchRepo repos.PatchRepo
	fileRepo  repos.PatchFileRepo
}

func (s storeSource) AllPatches(ctx context.Context) ([]*types.Patch, error) {
	return s.patchRepo.GetAll(ctx, nil)
}

func (s storeSource) AllFiles(ctx context.Context) ([]*types.PatchFile, error) {
	return s.fileRepo.GetAll(ctx, nil)
}

func (ss *searchService) source() search.Source {
	return storeSource{patchRepo: ss.patchRepo, fileRepo: ss.fileRepo}
}

// =====================================
// Incremental hooks
// =====================================

func (ss *searchService) PatchSaved(ctx context.Context, patch *types.Patch) {
	if patch == nil {
		return
	}
	ss.index.UpsertPatch(patch)
	ss.publish(ctx, redisclient.ChangeEvent{Kind: redisclient.ChangePatchUpserted, EntityID: patch.ID})
}

func (ss *searchService) PatchDeleted(ctx context.Context, id uuid.UUID) {
	ss.index.RemovePatch(id)
	ss.publish(ctx, redisclient.ChangeEvent{Kind: redisclient.ChangePatchDeleted, EntityID: id})
}

func (ss *searchService) FileSaved(ctx context.Context, file *types.PatchFile) {
	if file == nil {
		return
	}
	ss.index.UpsertFile(file)
	ss.publish(ctx, redisclient.ChangeEvent{Kind: redisclient.ChangeFileUpserted, EntityID: file.ID})
}

func (ss *searchService) FileDeleted(ctx context.Context, id uuid.UUID) {
	ss.index.RemoveFile(id)
	ss.publish(ctx, redisclient.ChangeEvent{Kind: redisclient.ChangeFileDeleted, EntityID: id})
}

func (ss *searchService) publish(ctx context.Context, evt redisclient.ChangeEvent) {
	if ss.bus == nil {
		return
	}
	if err := ss.bus.Publish(ctx, evt); err != nil {
		// Peers fall back to their own reindex; the local index is
		// already current.
		ss.log.Warn("publishing change event failed", "kind", evt.Kind, "entity_id", evt.EntityID, "error", err)
	}
}

// =====================================
// Queries
// =====================================

func (ss *searchService) SearchPatches(ctx context.Context, query string) ([]*types.Patch, error) {
	hits := ss.index.SearchPatches(query)
	results := make([]*types.Patch, 0, len(hits))
	for _, hit := range hits {
		patch, err := ss.patchRepo.GetByID(ctx, nil, hit.ID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				ss.repairDivergence("patch", hit.ID)
				continue
			}
			return nil, fmt.Errorf("load search hit %s: %w", hit.ID, err)
		}
		results = append(results, patch)
	}
	return results, nil
}

func (ss *searchService) SearchFiles(ctx context.Context, query string) ([]*types.PatchFile, error) {
	hits := ss.index.SearchFiles(query)
	results := make([]*types.PatchFile, 0, len(hits))
	for _, hit := range hits {
		file, err := ss.fileRepo.GetByID(ctx, nil, hit.ID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				ss.repairDivergence("file", hit.ID)
				continue
			}
			return nil, fmt.Errorf("load search hit %s: %w", hit.ID, err)
		}
		results = append(results, file)
	}
	return results, nil
}

// repairDivergence handles an index entry whose entity no longer exists
// in the store: the query result simply skips it and a background
// rebuild reconciles the index. The triggering search never fails.
func (ss *searchService) repairDivergence(kind string, id uuid.UUID) {
	ss.log.Warn("index entry has no store row, scheduling rebuild", "kind", kind, "entity_id", id)
	go func() {
		if err := ss.index.RequestReindex(context.Background(), ss.source()); err != nil {
			ss.log.Error("divergence repair rebuild failed", "error", err)
		}
	}()
}

// =====================================
// Rebuild
// =====================================

func (ss *searchService) ReindexAll(ctx context.Context) error {
	ss.log.Info("full reindex requested")
	if err := ss.index.ReindexAll(ctx, ss.source()); err != nil {
		ss.log.Error("full reindex failed", "error", err)
		return err
	}
	return nil
}

// TriggerReindex coalesces with an in-flight rebuild instead of
// waiting on it. Used by the administrative endpoint.
func (ss *searchService) TriggerReindex(ctx context.Context) error {
	return ss.index.RequestReindex(ctx, ss.source())
}

func (ss *searchService) IndexState() search.State {
	return ss.index.State()
}

// =====================================
// Peer updates
// =====================================

// StartForwarder mirrors change events from other instances into the
// local index. No-op without a configured bus.
func (ss *searchService) StartForwarder(ctx context.Context) error {
	if ss.bus == nil {
		return nil
	}
	return ss.bus.StartForwarder(ctx, func(evt redisclient.ChangeEvent) {
		switch evt.Kind {
		case redisclient.ChangePatchUpserted:
			patch, err := ss.patchRepo.GetByID(ctx, nil, evt.EntityID)
			if err != nil {
				ss.log.Warn("remote patch update not loadable", "entity_id", evt.EntityID, "error", err)
				return
			}
			ss.index.UpsertPatch(patch)
		case redisclient.ChangePatchDeleted:
			ss.index.RemovePatch(evt.EntityID)
		case redisclient.ChangeFileUpserted:
			file, err := ss.fileRepo.GetByID(ctx, nil, evt.EntityID)
			if err != nil {
				ss.log.Warn("remote file update not loadable", "entity_id", evt.EntityID, "error", err)
				return
			}
			ss.index.UpsertFile(file)
		case redisclient.ChangeFileDeleted:
			ss.index.RemoveFile(evt.EntityID)
		default:
			ss.log.Warn("unknown change event kind", "kind", evt.Kind)
		}
	})
}
