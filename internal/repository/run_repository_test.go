package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/model"
)

func TestRunLog_MonotonicIDsAndRecentOrder(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))

	kinds := []model.RunKind{model.RunCollect, model.RunScore, model.RunApply}
	for _, kind := range kinds {
		run := model.RunRecord{
			RunUID:     "uid-" + string(kind),
			Kind:       kind,
			StartedAt:  time.Now().UTC(),
			FinishedAt: time.Now().UTC(),
			RunStats:   model.RunStats{Seen: 1},
		}
		require.NoError(t, repo.Append(&run))
		assert.NotZero(t, run.ID)
	}

	runs, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.RunApply, runs[0].Kind, "most recent run first")
	assert.Greater(t, runs[0].ID, runs[1].ID)
}
