package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soulhub/soulhub-backend/internal/types"
)

func TestCreateFileStartsUnknown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Host", "")

	file, err := env.fileService.CreateFile(ctx, patch.ID)
	require.NoError(t, err)
	require.Equal(t, types.FileTypeUnknown, file.FileType)
	require.Empty(t, file.Name)

	_, err = env.fileService.CreateFile(ctx, uuid.New())
	require.True(t, errors.Is(err, types.ErrNotFound))
}

func TestSaveFileReclassifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Host", "")
	file := env.seedFile(t, patch, "voice.soul", "processor Voice {}")
	require.Equal(t, types.FileTypeSoul, file.FileType)

	// renaming away from the extension drops back to the content probe
	file, err := env.fileService.UpdateFile(ctx, file.ID, FileUpdateInput{
		Name:    "voice.txt",
		Content: "processor Voice {}",
	})
	require.NoError(t, err)
	require.Equal(t, types.FileTypeUnknown, file.FileType)

	file, err = env.fileService.UpdateFile(ctx, file.ID, FileUpdateInput{
		Name:    "voice.txt",
		Content: `{"soulPatchV1": {"ID": "demo"}}`,
	})
	require.NoError(t, err)
	require.Equal(t, types.FileTypeManifest, file.FileType)

	loaded, err := env.fileService.GetFile(ctx, file.ID)
	require.NoError(t, err)
	require.Equal(t, types.FileTypeManifest, loaded.FileType)
}

func TestListFilesOrderedByCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Host", "")
	first := env.seedFile(t, patch, "a.soul", "x")
	second := env.seedFile(t, patch, "b.soul", "y")
	third := env.seedFile(t, patch, "c.soulpatch", "{}")

	files, err := env.fileService.ListFiles(ctx, patch.ID)
	require.NoError(t, err)
	require.Len(t, files, 3)
	require.Equal(t, first.ID, files[0].ID)
	require.Equal(t, second.ID, files[1].ID)
	require.Equal(t, third.ID, files[2].ID)
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Host", "")
	file := env.seedFile(t, patch, "a.soul", "x")

	require.NoError(t, env.fileService.DeleteFile(ctx, file.ID))

	_, err := env.fileService.GetFile(ctx, file.ID)
	require.True(t, errors.Is(err, types.ErrNotFound))

	// the owning patch survives
	_, err = env.patchService.GetPatch(ctx, patch.ID)
	require.NoError(t, err)
}
