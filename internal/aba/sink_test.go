package aba

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSaveStore struct {
	*fakeStore
}

func (s failingSaveStore) SaveBatch(context.Context, models.PaymentBatchFile, []uuid.UUID) error {
	return errors.New("disk full")
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDirSink_StageCommit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	staged, err := DirSink{Dir: dir}.Stage(&File{Filename: "ABA-191026-001.txt", Content: "0\r\n"})
	require.NoError(t, err)

	_, err = os.Stat(staged.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, staged.Commit())
	data, err := os.ReadFile(staged.Path())
	require.NoError(t, err)
	assert.Equal(t, "0\r\n", string(data))
	assert.Equal(t, []string{"ABA-191026-001.txt"}, dirEntries(t, dir))
}

func TestDirSink_Discard(t *testing.T) {
	dir := t.TempDir()
	staged, err := DirSink{Dir: dir}.Stage(&File{Filename: "ABA-191026-001.txt", Content: "0\r\n"})
	require.NoError(t, err)

	require.NoError(t, staged.Discard())
	require.NoError(t, staged.Discard())
	assert.Empty(t, dirEntries(t, dir))
}

func TestDirSink_StageFailsOnUnwritableTarget(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := DirSink{Dir: filepath.Join(blocker, "sub")}.Stage(&File{Filename: "a.txt"})
	assert.Error(t, err)
}

func TestGenerateFileTo_PublishesAfterSave(t *testing.T) {
	store := newFakeStore(pendingPayment(1000, "INV-1"))
	var id uuid.UUID
	for k := range store.payments {
		id = k
	}
	dir := t.TempDir()

	file, err := newTestEncoder(store).GenerateFileTo(context.Background(), []uuid.UUID{id}, DirSink{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, file.Filename), file.Path)
	assert.Equal(t, []string{file.Filename}, dirEntries(t, dir))
	assert.Equal(t, models.PaymentStatusIncluded, store.payments[id].Status)
}

func TestGenerateFileTo_SaveFailureLeavesNoFile(t *testing.T) {
	store := newFakeStore(pendingPayment(1000, "INV-1"))
	var id uuid.UUID
	for k := range store.payments {
		id = k
	}
	dir := t.TempDir()

	_, err := newTestEncoder(failingSaveStore{store}).GenerateFileTo(context.Background(), []uuid.UUID{id}, DirSink{Dir: dir})
	require.Error(t, err)
	assert.Empty(t, dirEntries(t, dir))
	assert.Equal(t, models.PaymentStatusPending, store.payments[id].Status)
}

func TestGenerateFileTo_StageFailureSavesNothing(t *testing.T) {
	store := newFakeStore(pendingPayment(1000, "INV-1"))
	var id uuid.UUID
	for k := range store.payments {
		id = k
	}
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := newTestEncoder(store).GenerateFileTo(context.Background(), []uuid.UUID{id}, DirSink{Dir: filepath.Join(blocker, "sub")})
	require.Error(t, err)
	assert.Empty(t, store.batches)
	assert.Equal(t, models.PaymentStatusPending, store.payments[id].Status)
}

func TestBatchSequence(t *testing.T) {
	scope, n := BatchSequence(models.PaymentBatchFile{Filename: "ABA-201026-007.txt", Sequence: 1})
	assert.Equal(t, sequence.BatchScopePrefix+"201026", scope)
	assert.Equal(t, int64(7), n)

	day := time.Date(2026, time.October, 19, 23, 0, 0, 0, time.UTC)
	scope, n = BatchSequence(models.PaymentBatchFile{Filename: "imported.txt", Sequence: 3, GeneratedAt: day})
	assert.Equal(t, sequence.BatchScope(day), scope)
	assert.Equal(t, int64(3), n)
}
