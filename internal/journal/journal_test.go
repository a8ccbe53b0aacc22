package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func sampleRun(systemID string, end int64) *Run {
	return &Run{
		SystemID:  systemID,
		Provider:  "screenscraper",
		Processed: 3,
		Created:   1,
		Skipped:   1,
		Failed:    1,
		StartTime: end - 10,
		EndTime:   end,
		Items: []ItemOutcome{
			{FileName: "a.zip", Status: "created"},
			{FileName: "b.zip", Status: "skipped"},
			{FileName: "c.zip", Status: "failed"},
		},
	}
}

func TestJournalRecordAndList(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := sampleRun("neogeo", time.Now().Unix())
	require.NoError(t, j.RecordRun(ctx, run))
	assert.NotZero(t, run.ID)

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "neogeo", got.SystemID)
	assert.Equal(t, "screenscraper", got.Provider)
	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, 1, got.Created)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "a.zip", got.Items[0].FileName)
	assert.Equal(t, "created", got.Items[0].Status)
}

func TestJournalListNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	now := time.Now().Unix()
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now-100)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("neogeo", now-50)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now)))

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "snes", runs[0].SystemID)
	assert.Equal(t, now, runs[0].EndTime)
	assert.Equal(t, "neogeo", runs[1].SystemID)
}

func TestJournalListFiltersAndLimits(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	now := time.Now().Unix()
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now-20)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("neogeo", now-10)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now)))

	snes, err := j.ListRuns(ctx, "snes", 0)
	require.NoError(t, err)
	require.Len(t, snes, 2)
	for _, run := range snes {
		assert.Equal(t, "snes", run.SystemID)
	}

	limited, err := j.ListRuns(ctx, "snes", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, now, limited[0].EndTime)
}

func TestJournalPurgeBefore(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	now := time.Now().Unix()
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now-1000)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("snes", now)))

	removed, err := j.PurgeBefore(ctx, now-500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, now, runs[0].EndTime)
}

func TestJournalSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.RecordRun(context.Background(), sampleRun("snes", time.Now().Unix())))
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.ListRuns(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
