package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfcut/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/services"
)

func seedHistory(t *testing.T, store *memory.RunStore) {
	t.Helper()
	started := time.Date(2026, 10, 17, 14, 0, 0, 0, time.UTC)

	runs := []*domain.SplitRun{
		{
			ID:         "0b7e6a51-9c2d-4f10-8a3e-5d1f2c3b4a01",
			Input:      "/in/report.pdf",
			Limit:      domain.DefaultSizeLimit,
			PageCount:  4,
			Status:     domain.RunCompleted,
			StartedAt:  started,
			FinishedAt: started.Add(1500 * time.Millisecond),
			Fragments: []domain.Fragment{
				{Part: 1, Start: 0, End: 3, Size: 4_000_000, Path: "/in/report_PART_1.pdf", Digest: "ab12cd"},
				{Part: 2, Start: 3, End: 4, Size: 6_000_000, Oversized: true, Path: "/in/report_PART_2_OVERSIZED.pdf"},
			},
		},
		{
			ID:        "7f00c3d2-1111-4e22-9b33-000000000002",
			Input:     "/in/scan.pdf",
			Limit:     domain.SizeLimit(1_000_000),
			PageCount: 2,
			DryRun:    true,
			Status:    domain.RunFailed,
			Error:     "serialization failed",
			StartedAt: started.Add(time.Hour),
		},
	}
	for _, run := range runs {
		require.NoError(t, store.Save(context.Background(), run))
	}
}

func TestHistoryCmd_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range historyCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "delete"}, names)
}

func TestHistoryList_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "history", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryList_ShowsRuns(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	seedHistory(t, ts.runs)

	out, err := executeCommand(t, "history", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "0b7e6a51")
	assert.Contains(t, out, "7f00c3d2")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "2!")
	assert.Contains(t, out, "failed*")
	assert.Less(t, strings.Index(out, "7f00c3d2"), strings.Index(out, "0b7e6a51"), "newest first")
}

func TestHistoryList_Limit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	seedHistory(t, ts.runs)

	out, err := executeCommand(t, "history", "list", "-n", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "7f00c3d2")
	assert.NotContains(t, out, "0b7e6a51")
}

func TestHistoryShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	seedHistory(t, ts.runs)

	out, err := executeCommand(t, "history", "show", "0b7e6a51")

	require.NoError(t, err)
	assert.Contains(t, out, "0b7e6a51-9c2d-4f10-8a3e-5d1f2c3b4a01")
	assert.Contains(t, out, "Input:    /in/report.pdf")
	assert.Contains(t, out, "(5033164 bytes)")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "Parts (2,")
	assert.Contains(t, out, "blake3 ab12cd")
	assert.Contains(t, out, "report_PART_2_OVERSIZED.pdf")
}

func TestHistoryShow_FailedDryRun(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	seedHistory(t, ts.runs)

	out, err := executeCommand(t, "history", "show", "7f00c3d2-1111-4e22-9b33-000000000002")

	require.NoError(t, err)
	assert.Contains(t, out, "Dry run:  yes")
	assert.Contains(t, out, "Error:    serialization failed")
	assert.NotContains(t, out, "Parts (")
}

func TestHistoryShow_NotFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "history", "show", "deadbeef")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryDelete(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	seedHistory(t, ts.runs)

	out, err := executeCommand(t, "history", "delete", "7f00c3d2")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run 7f00c3d2")
	runs, err := ts.runs.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHistory_DisabledHint(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	historyService = services.NewHistoryService(nil)

	_, err := executeCommand(t, "history", "list")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHistoryDisabled)
	assert.Contains(t, err.Error(), "history.enabled true")
}

func TestHistory_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	historyService = nil

	for _, args := range [][]string{
		{"history", "list"},
		{"history", "show", "x"},
		{"history", "delete", "x"},
	} {
		_, err := executeCommand(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "history service not configured")
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0b7e6a51", shortID("0b7e6a51-9c2d-4f10"))
	assert.Equal(t, "abc", shortID("abc"))
}
