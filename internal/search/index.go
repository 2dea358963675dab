// Package search maintains the in-memory free-text index over patches
// and their files. Queries are always served from the live index, even
// while a full rebuild is running; updates that arrive during a rebuild
// are applied to the live index immediately and replayed into the
// rebuilt one before it is swapped in, so no update is ever lost.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/types"
)

// State of the indexer. Exactly one rebuild runs at a time.
type State string

const (
	StateIdle       State = "idle"
	StateReindexing State = "reindexing"
)

// Source enumerates the store for a full rebuild.
type Source interface {
	AllPatches(ctx context.Context) ([]*types.Patch, error)
	AllFiles(ctx context.Context) ([]*types.PatchFile, error)
}

type patchDoc struct {
	id          uuid.UUID
	name        string
	description string
}

type fileDoc struct {
	id      uuid.UUID
	patchID uuid.UUID
	name    string
	content string
}

type opKind int

const (
	opUpsertPatch opKind = iota
	opRemovePatch
	opUpsertFile
	opRemoveFile
)

type op struct {
	kind  opKind
	patch patchDoc
	file  fileDoc
	id    uuid.UUID
}

type Index struct {
	log *logger.Logger

	mu      sync.RWMutex
	patches map[uuid.UUID]patchDoc
	files   map[uuid.UUID]fileDoc

	stateMu      sync.Mutex
	state        State
	pending      []op
	rebuildAgain bool

	group singleflight.Group
}

func NewIndex(baseLog *logger.Logger) *Index {
	return &Index{
		log:     baseLog.With("component", "SearchIndex"),
		patches: make(map[uuid.UUID]patchDoc),
		files:   make(map[uuid.UUID]fileDoc),
		state:   StateIdle,
	}
}

func (i *Index) State() State {
	i.stateMu.Lock()
	defer i.stateMu.Unlock()
	return i.state
}

// UpsertPatch indexes a patch's name and description. Cheap, not
// subject to single-flight.
func (i *Index) UpsertPatch(patch *types.Patch) {
	if patch == nil {
		return
	}
	i.enqueue(op{kind: opUpsertPatch, patch: patchDoc{
		id:          patch.ID,
		name:        patch.Name,
		description: patch.Description,
	}})
}

// RemovePatch drops a patch and every file indexed under it.
func (i *Index) RemovePatch(id uuid.UUID) {
	i.enqueue(op{kind: opRemovePatch, id: id})
}

func (i *Index) UpsertFile(file *types.PatchFile) {
	if file == nil {
		return
	}
	i.enqueue(op{kind: opUpsertFile, file: fileDoc{
		id:      file.ID,
		patchID: file.PatchID,
		name:    file.Name,
		content: file.Content,
	}})
}

func (i *Index) RemoveFile(id uuid.UUID) {
	i.enqueue(op{kind: opRemoveFile, id: id})
}

// enqueue applies the op to the live maps right away and, while a
// rebuild is in flight, also records it for replay into the rebuilt
// maps.
func (i *Index) enqueue(o op) {
	i.stateMu.Lock()
	if i.state == StateReindexing {
		i.pending = append(i.pending, o)
	}
	i.stateMu.Unlock()

	i.mu.Lock()
	i.apply(i.patches, i.files, o)
	i.mu.Unlock()
}

func (i *Index) apply(patches map[uuid.UUID]patchDoc, files map[uuid.UUID]fileDoc, o op) {
	switch o.kind {
	case opUpsertPatch:
		patches[o.patch.id] = o.patch
	case opRemovePatch:
		delete(patches, o.id)
		for fid, fd := range files {
			if fd.patchID == o.id {
				delete(files, fid)
			}
		}
	case opUpsertFile:
		files[o.file.id] = o.file
	case opRemoveFile:
		delete(files, o.id)
	}
}

// ReindexAll rebuilds the whole index from the source. Concurrent
// callers share the in-flight rebuild; a request that arrives while one
// is already running schedules exactly one further pass instead of
// queuing unboundedly. Reads keep being served from the live index the
// whole time.
func (i *Index) ReindexAll(ctx context.Context, src Source) error {
	_, err, _ := i.group.Do("reindex", func() (interface{}, error) {
		for {
			if err := i.rebuildOnce(ctx, src); err != nil {
				return nil, err
			}
			i.stateMu.Lock()
			again := i.rebuildAgain
			i.rebuildAgain = false
			i.stateMu.Unlock()
			if !again {
				return nil, nil
			}
		}
	})
	return err
}

// RequestReindex coalesces with a running rebuild instead of waiting on
// it: if one is in flight another pass is flagged, otherwise the
// rebuild runs synchronously.
func (i *Index) RequestReindex(ctx context.Context, src Source) error {
	i.stateMu.Lock()
	if i.state == StateReindexing {
		i.rebuildAgain = true
		i.stateMu.Unlock()
		i.log.Info("reindex already running, coalesced follow-up pass")
		return nil
	}
	i.stateMu.Unlock()
	return i.ReindexAll(ctx, src)
}

func (i *Index) rebuildOnce(ctx context.Context, src Source) error {
	i.stateMu.Lock()
	i.state = StateReindexing
	i.pending = nil
	i.stateMu.Unlock()

	defer func() {
		i.stateMu.Lock()
		i.state = StateIdle
		i.pending = nil
		i.stateMu.Unlock()
	}()

	allPatches, err := src.AllPatches(ctx)
	if err != nil {
		return fmt.Errorf("reindex: enumerate patches: %w", err)
	}
	allFiles, err := src.AllFiles(ctx)
	if err != nil {
		return fmt.Errorf("reindex: enumerate files: %w", err)
	}

	patches := make(map[uuid.UUID]patchDoc, len(allPatches))
	files := make(map[uuid.UUID]fileDoc, len(allFiles))
	for _, p := range allPatches {
		// Cancellation hook: a rebuild aborts cleanly between writes.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
		patches[p.ID] = patchDoc{id: p.ID, name: p.Name, description: p.Description}
	}
	for _, f := range allFiles {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
		files[f.ID] = fileDoc{id: f.ID, patchID: f.PatchID, name: f.Name, content: f.Content}
	}

	// Swap in the rebuilt maps, replaying whatever arrived meanwhile.
	i.stateMu.Lock()
	replay := i.pending
	i.pending = nil
	i.mu.Lock()
	for _, o := range replay {
		i.apply(patches, files, o)
	}
	i.patches = patches
	i.files = files
	i.mu.Unlock()
	i.stateMu.Unlock()

	i.log.Info("reindex complete", "patches", len(patches), "files", len(files), "replayed_updates", len(replay))
	return nil
}

// Hit is one search result: the entity id and its relevance score.
type Hit struct {
	ID    uuid.UUID
	Score int
}

// SearchPatches matches the query against patch names and
// descriptions, case-insensitively. Results are ordered by score
// descending, ties by id ascending.
func (i *Index) SearchPatches(query string) []Hit {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []Hit
	for _, doc := range i.patches {
		score := 0
		for _, term := range terms {
			score += 3 * strings.Count(strings.ToLower(doc.name), term)
			score += strings.Count(strings.ToLower(doc.description), term)
		}
		if score > 0 {
			hits = append(hits, Hit{ID: doc.id, Score: score})
		}
	}
	sortHits(hits)
	return hits
}

// SearchFiles matches the query against file names and contents.
func (i *Index) SearchFiles(query string) []Hit {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []Hit
	for _, doc := range i.files {
		score := 0
		for _, term := range terms {
			score += 3 * strings.Count(strings.ToLower(doc.name), term)
			score += strings.Count(strings.ToLower(doc.content), term)
		}
		if score > 0 {
			hits = append(hits, Hit{ID: doc.id, Score: score})
		}
	}
	sortHits(hits)
	return hits
}

// Counts reports the number of indexed patch and file documents.
func (i *Index) Counts() (patches, files int) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.patches), len(i.files)
}

func sortHits(hits []Hit) {
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ID.String() < hits[b].ID.String()
	})
}

func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var terms []string
	for _, f := range fields {
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}
