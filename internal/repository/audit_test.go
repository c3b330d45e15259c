package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/domain"
)

func TestAuditRecordDedup(t *testing.T) {
	writeDB, _ := internaldb.OpenTestDB(t)
	repo := NewAuditRepo(writeDB)
	ctx := context.Background()

	rec := &domain.AuditRecord{
		UserID:    1,
		TableName: "posts",
		TableID:   "7",
		Field:     "title",
		OldValue:  domain.Null(),
		NewValue:  domain.String("Hello"),
		Message:   domain.AuditInsert,
	}

	written, err := repo.Record(ctx, rec)
	require.NoError(t, err)
	assert.True(t, written)

	// Same new value again: skipped.
	written, err = repo.Record(ctx, rec)
	require.NoError(t, err)
	assert.False(t, written)

	// A different value writes; the old duplicate value writes again after.
	rec2 := *rec
	rec2.OldValue = domain.String("Hello")
	rec2.NewValue = domain.String("World")
	rec2.Message = domain.AuditUpdate
	written, err = repo.Record(ctx, &rec2)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Record(ctx, rec)
	require.NoError(t, err)
	assert.True(t, written, "dedup only looks at the most recent row")

	trail, err := repo.ListForRow(ctx, "posts", "7", 10)
	require.NoError(t, err)
	assert.Len(t, trail, 3)
	// Newest first.
	assert.Equal(t, "Hello", trail[0].NewValue.Display())
	assert.Equal(t, "World", trail[1].NewValue.Display())
}

func TestAuditDedupNullValues(t *testing.T) {
	writeDB, _ := internaldb.OpenTestDB(t)
	repo := NewAuditRepo(writeDB)
	ctx := context.Background()

	rec := &domain.AuditRecord{
		TableName: "posts",
		TableID:   "1",
		Field:     "cover_path",
		OldValue:  domain.String("a.png"),
		NewValue:  domain.Null(),
		Message:   domain.AuditUpload,
	}

	written, err := repo.Record(ctx, rec)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Record(ctx, rec)
	require.NoError(t, err)
	assert.False(t, written, "stored NULL matches a null new value")
}

func TestAuditDedupScopedPerField(t *testing.T) {
	writeDB, _ := internaldb.OpenTestDB(t)
	repo := NewAuditRepo(writeDB)
	ctx := context.Background()

	for _, field := range []string{"title", "status"} {
		written, err := repo.Record(ctx, &domain.AuditRecord{
			TableName: "posts", TableID: "1", Field: field,
			OldValue: domain.Null(), NewValue: domain.String("same"),
			Message: domain.AuditInsert,
		})
		require.NoError(t, err)
		assert.True(t, written, field)
	}
}

func TestAuditPurge(t *testing.T) {
	writeDB, _ := internaldb.OpenTestDB(t)
	repo := NewAuditRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Record(ctx, &domain.AuditRecord{
		TableName: "posts", TableID: "1", Field: "title",
		OldValue: domain.Null(), NewValue: domain.String("x"),
		Message: domain.AuditInsert,
	})
	require.NoError(t, err)

	// Retention window in the past removes nothing.
	n, err := repo.Purge(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Purge(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
