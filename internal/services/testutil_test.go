package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/search"
	"github.com/soulhub/soulhub-backend/internal/types"
)

// testEnv wires the real services against an in-memory sqlite store.
type testEnv struct {
	db            *gorm.DB
	patchRepo     repos.PatchRepo
	fileRepo      repos.PatchFileRepo
	ratingRepo    repos.PatchRatingRepo
	userRepo      repos.UserRepo
	index         *search.Index
	searchService SearchService
	patchService  PatchService
	fileService   FileService
	ratingService RatingService
	exportService ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// sqlite serializes writers anyway; a single connection keeps the
	// shared-cache lock errors out of concurrent tests.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&types.User{},
		&types.Patch{},
		&types.PatchFile{},
		&types.PatchRating{},
	))

	log := logger.NewNop()
	env := &testEnv{
		db:         gdb,
		patchRepo:  repos.NewPatchRepo(gdb, log),
		fileRepo:   repos.NewPatchFileRepo(gdb, log),
		ratingRepo: repos.NewPatchRatingRepo(gdb, log),
		userRepo:   repos.NewUserRepo(gdb, log),
		index:      search.NewIndex(log),
	}
	env.searchService = NewSearchService(gdb, log, env.index, env.patchRepo, env.fileRepo, nil)
	env.patchService = NewPatchService(gdb, log, env.patchRepo, env.fileRepo, env.userRepo, env.searchService)
	env.fileService = NewFileService(gdb, log, env.patchRepo, env.fileRepo, env.searchService)
	env.ratingService = NewRatingService(gdb, log, env.patchRepo, env.userRepo, env.ratingRepo)
	env.exportService = NewExportService(gdb, log, env.patchRepo, env.fileRepo)
	return env
}

func (e *testEnv) seedUser(t *testing.T, name string) *types.User {
	t.Helper()
	user := &types.User{ID: uuid.New(), UserName: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := e.userRepo.Create(context.Background(), nil, []*types.User{user})
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedPatch(t *testing.T, author *types.User, name, description string) *types.Patch {
	t.Helper()
	patch, err := e.patchService.CreatePatch(context.Background(), author.ID)
	require.NoError(t, err)
	patch, err = e.patchService.UpdatePatch(context.Background(), patch.ID, PatchUpdateInput{
		Name:        name,
		Description: description,
	})
	require.NoError(t, err)
	return patch
}

func (e *testEnv) seedFile(t *testing.T, patch *types.Patch, name, content string) *types.PatchFile {
	t.Helper()
	file, err := e.fileService.CreateFile(context.Background(), patch.ID)
	require.NoError(t, err)
	file, err = e.fileService.UpdateFile(context.Background(), file.ID, FileUpdateInput{
		Name:    name,
		Content: content,
	})
	require.NoError(t, err)
	return file
}
