package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{
		CycleID:  "cycle-1",
		Sender:   "azuredevops@microsoft.com",
		Subject:  "Build #42 failed",
		Category: "failure",
		ItemID:   "42",
		ItemURL:  "https://dev.azure.com/acme/QA/_workitems/edit/42",
		State:    "To Do",
		Success:  true,
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "cycle-1", got.CycleID)
	assert.Equal(t, "failure", got.Category)
	assert.Equal(t, "42", got.ItemID)
	assert.True(t, got.Success)
}

func TestRecordDefaultsCategoryToNone(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{
		CycleID: "cycle-1",
		Sender:  "ci@unknown.example",
		Subject: "Daily digest",
	}))

	entries, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "none", entries[0].Category)
	assert.False(t, entries[0].Success)
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, Entry{
			CycleID: "cycle-1",
			Sender:  "s",
			Subject: "subject",
		}))
	}

	entries, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.Close())

	// Reopening runs migrations again; they must be no-ops.
	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	entries, err := j2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
