package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	require.NoError(t, Init("sqlite", ":memory:"))
	t.Cleanup(Close)
	return NewRepository()
}

func TestModActionRoundTrip(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.InsertModAction(&ModAction{
		GuildID: "g1", UserID: "u1", Action: "warn", Violation: "spam", Severity: 2, Tier: 1,
	}))
	require.NoError(t, repo.InsertModAction(&ModAction{
		GuildID: "g1", UserID: "u1", Action: "timeout", Violation: "spam", Severity: 2, Tier: 2,
	}))
	require.NoError(t, repo.InsertModAction(&ModAction{
		GuildID: "g2", UserID: "u2", Action: "ban",
	}))

	actions, err := repo.RecentModActions("g1", 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	// Newest first.
	assert.Equal(t, "timeout", actions[0].Action)
	assert.Equal(t, "warn", actions[1].Action)
}

func TestUpsertServiceStatus(t *testing.T) {
	repo := setupTestDB(t)

	status := &ServiceStatus{ServiceName: "discord_bot", Status: "operational", LastHeartbeat: time.Now()}
	require.NoError(t, repo.UpsertServiceStatus(status))

	status.Status = "degraded"
	require.NoError(t, repo.UpsertServiceStatus(status))

	var rows []ServiceStatus
	require.NoError(t, DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "degraded", rows[0].Status)
}

func TestUpdateAPIHealthBulkAccumulates(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.UpdateAPIHealthBulk("discord_api", 10, 9))
	require.NoError(t, repo.UpdateAPIHealthBulk("discord_api", 5, 5))

	var row APIHealth
	require.NoError(t, DB.First(&row, "service_name = ?", "discord_api").Error)
	assert.Equal(t, int64(15), row.TotalRequests)
	assert.Equal(t, int64(14), row.SuccessfulRequests)
}

func TestWithRetryGivesUpOnPermanentErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	err := WithRetry(func() error {
		calls++
		return errors.New("constraint failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	err := WithRetry(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
