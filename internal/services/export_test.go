package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soulhub/soulhub-backend/internal/types"
)

func TestExportXMLProjectsKnownFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Export Me", "demo")
	env.seedFile(t, patch, "voice.soul", "processor Voice {}")
	env.seedFile(t, patch, "patch.soulpatch", "{}")
	env.seedFile(t, patch, "readme.txt", "notes")

	raw, err := env.exportService.ExportXML(ctx, patch.ID)
	require.NoError(t, err)

	doc := string(raw)
	require.Contains(t, doc, patch.ID.String())
	require.Contains(t, doc, "voice.soul")
	require.Contains(t, doc, "patch.soulpatch")
	require.NotContains(t, doc, "readme.txt")
}

func TestExportAllXML(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	first := env.seedPatch(t, author, "One", "")
	second := env.seedPatch(t, author, "Two", "")

	raw, err := env.exportService.ExportAllXML(ctx)
	require.NoError(t, err)
	doc := string(raw)
	require.Contains(t, doc, first.ID.String())
	require.Contains(t, doc, second.ID.String())
}

func TestExportZipContainsEveryFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Zipped", "")
	env.seedFile(t, patch, "voice.soul", "processor Voice {}")
	env.seedFile(t, patch, "readme.txt", "unknown files ship too")

	data, err := env.exportService.ExportZip(ctx, patch.ID)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"voice.soul", "readme.txt"}, names)

	_, err = env.exportService.ExportZip(ctx, uuid.New())
	require.True(t, errors.Is(err, types.ErrNotFound))
}

func TestExportZipEmptyPatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Empty", "")

	data, err := env.exportService.ExportZip(ctx, patch.ID)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Empty(t, reader.File)
}

func TestMatchesXML(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	patch := env.seedPatch(t, author, "Original", "")
	env.seedFile(t, patch, "voice.soul", "processor Voice {}")
	other := env.seedPatch(t, author, "Impostor", "")

	raw, err := env.exportService.ExportXML(ctx, patch.ID)
	require.NoError(t, err)

	require.True(t, env.exportService.MatchesXML(ctx, patch.ID, raw))
	require.False(t, env.exportService.MatchesXML(ctx, other.ID, raw))
	// root id decides; edited file entries do not break the match
	require.True(t, env.exportService.MatchesXML(ctx, patch.ID, []byte(strings.Replace(string(raw), "voice", "noise", 1))))
	require.False(t, env.exportService.MatchesXML(ctx, patch.ID, []byte("not xml at all")))
	require.False(t, env.exportService.MatchesXML(ctx, uuid.New(), raw))
}
