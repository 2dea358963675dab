package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soulhub/soulhub-backend/internal/types"
)

func TestCreatePatchUsesPlaceholderName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")

	patch, err := env.patchService.CreatePatch(ctx, author.ID)
	require.NoError(t, err)
	require.Equal(t, "my new SOULPatch", patch.Name)
	require.Equal(t, author.ID, patch.AuthorID)

	loaded, err := env.patchService.GetPatch(ctx, patch.ID)
	require.NoError(t, err)
	require.Equal(t, "my new SOULPatch", loaded.Name)
}

func TestCreatePatchUnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.patchService.CreatePatch(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrNotFound))
}

func TestUpdatePatchValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Named", "desc")

	_, err := env.patchService.UpdatePatch(ctx, patch.ID, PatchUpdateInput{Name: ""})
	require.True(t, errors.Is(err, types.ErrValidation))

	_, err = env.patchService.UpdatePatch(ctx, patch.ID, PatchUpdateInput{Name: "ok", NoViews: -1})
	require.True(t, errors.Is(err, types.ErrValidation))

	// the failed updates must not have touched the stored patch
	loaded, err := env.patchService.GetPatch(ctx, patch.ID)
	require.NoError(t, err)
	require.Equal(t, "Named", loaded.Name)
}

func TestDeletePatchCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	rater := env.seedUser(t, "rater")
	patch := env.seedPatch(t, author, "Doomed", "")
	file := env.seedFile(t, patch, "voice.soul", "processor Voice {}")
	_, err := env.ratingService.Rate(ctx, patch.ID, rater.ID, 5)
	require.NoError(t, err)

	require.NoError(t, env.patchService.DeletePatch(ctx, patch.ID))

	_, err = env.patchService.GetPatch(ctx, patch.ID)
	require.True(t, errors.Is(err, types.ErrNotFound))
	_, err = env.fileService.GetFile(ctx, file.ID)
	require.True(t, errors.Is(err, types.ErrNotFound))

	ratings, err := env.ratingRepo.GetByPatchID(ctx, nil, patch.ID)
	require.NoError(t, err)
	require.Empty(t, ratings)
}

func TestIncrementViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Viewed", "")

	for want := int64(1); want <= 3; want++ {
		updated, err := env.patchService.IncrementViews(ctx, patch.ID)
		require.NoError(t, err)
		require.Equal(t, want, updated.NoViews)
	}

	_, err := env.patchService.IncrementViews(ctx, uuid.New())
	require.True(t, errors.Is(err, types.ErrNotFound))
}

func TestFilterByPattern(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	pad := env.seedPatch(t, author, "Warm Pad", "slow attack")
	lead := env.seedPatch(t, author, "Lead", "bright saw lead")
	bass := env.seedPatch(t, author, "Bass", "")
	env.seedFile(t, bass, "padresonator.soul", "processor P {}")

	// case-insensitive match across name, description and file names
	matched, err := env.patchService.FilterByPattern(ctx, "PAD")
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(matched))
	for _, p := range matched {
		ids = append(ids, p.ID)
	}
	require.ElementsMatch(t, []uuid.UUID{pad.ID, bass.ID}, ids)

	matched, err = env.patchService.FilterByPattern(ctx, "saw.*lead")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, lead.ID, matched[0].ID)

	matched, err = env.patchService.FilterByPattern(ctx, "nothing matches this")
	require.NoError(t, err)
	require.Empty(t, matched)

	_, err = env.patchService.FilterByPattern(ctx, "(unclosed")
	require.True(t, errors.Is(err, types.ErrValidation))
}

func TestCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	first := env.seedPatch(t, author, "First", "")
	env.seedPatch(t, author, "Second", "")
	env.seedFile(t, first, "a.soul", "x")
	env.seedFile(t, first, "b.soulpatch", "{}")

	patches, err := env.patchService.CountPatches(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), patches)

	files, err := env.patchService.CountFiles(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), files)
}

func TestIsPossibleIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Probed", "")
	file := env.seedFile(t, patch, "a.soul", "x")

	require.True(t, env.patchService.IsPossiblePatchID(ctx, patch.ID.String()))
	require.True(t, env.patchService.IsPossibleFileID(ctx, file.ID.String()))

	require.False(t, env.patchService.IsPossiblePatchID(ctx, "not-a-uuid"))
	require.False(t, env.patchService.IsPossiblePatchID(ctx, uuid.NewString()))
	require.False(t, env.patchService.IsPossibleFileID(ctx, file.PatchID.String()))
}
