package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestSQLiteBatchLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)
	require.NoError(t, s.Ping(ctx))

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	b := entity.Batch{ID: uuid.New(), InputDir: "/in", StartedAt: started, Status: constants.BatchStatusRunning}
	require.NoError(t, s.StartBatch(ctx, b))

	docs := []entity.ProcessedDocument{
		sampleDoc("b.pdf", "INV-2", constants.StatusPartial),
		sampleDoc("a.pdf", "INV-1", constants.StatusPassed),
	}
	require.NoError(t, s.SaveDocuments(ctx, b.ID, docs))
	require.NoError(t, s.FinishBatch(ctx, b.ID, constants.BatchStatusCompleted, started.Add(time.Minute), len(docs)))

	batches, err := s.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, b.ID, batches[0].ID)
	assert.Equal(t, constants.BatchStatusCompleted, batches[0].Status)
	assert.Equal(t, 2, batches[0].Documents)
	require.NotNil(t, batches[0].FinishedAt)
	assert.True(t, started.Equal(batches[0].StartedAt))

	stored, err := s.ListDocuments(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "a.pdf", stored[0].SourceFileName)
	assert.Equal(t, "INV-1", *stored[0].InvoiceNumber)
	assert.Equal(t, "1842.75", *stored[0].TotalAmount)
	assert.Equal(t, constants.StatusPassed, stored[0].ValidationStatus)
	assert.InDelta(t, 0.85, stored[0].ValidationScore, 1e-9)
}

func TestSQLiteSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)
	b := entity.Batch{ID: uuid.New(), InputDir: "/in", StartedAt: time.Now(), Status: constants.BatchStatusRunning}
	require.NoError(t, s.StartBatch(ctx, b))

	d := sampleDoc("a.pdf", "INV-1", constants.StatusPassed)
	require.NoError(t, s.SaveDocuments(ctx, b.ID, []entity.ProcessedDocument{d}))
	require.NoError(t, s.SaveDocuments(ctx, b.ID, []entity.ProcessedDocument{d}))

	stored, err := s.ListDocuments(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	err := s.FinishBatch(ctx, uuid.New(), constants.BatchStatusCompleted, time.Now(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = s.SaveDocuments(ctx, uuid.New(), []entity.ProcessedDocument{sampleDoc("x.pdf", "INV-9", constants.StatusPassed)})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeStore))
}

func TestOpenDispatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "docextract.db")

	s, err := Open(ctx, Config{DSN: "sqlite://" + path}, nil)
	require.NoError(t, err)
	require.NoError(t, HealthCheck(ctx, s, time.Second, nil))
	require.NoError(t, s.Close())
	assert.FileExists(t, path)

	s, err = Open(ctx, Config{DSN: "file:" + path}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{DSN: "mysql://nope"}, nil)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeConfig))
}
