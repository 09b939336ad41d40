package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/database"
)

func TestFlushWritesAggregatedCounts(t *testing.T) {
	require.NoError(t, database.Init("sqlite", ":memory:"))
	t.Cleanup(database.Close)
	repo := database.NewRepository()

	a := NewAggregator(repo, "discord_api", zap.NewNop())
	for i := 0; i < 10; i++ {
		a.RecordCall(true)
	}
	a.RecordCall(false)
	a.Flush()

	var row database.APIHealth
	require.NoError(t, database.DB.First(&row, "service_name = ?", "discord_api").Error)
	assert.Equal(t, int64(11), row.TotalRequests)
	assert.Equal(t, int64(10), row.SuccessfulRequests)

	// Counters reset after a flush; flushing with nothing recorded writes
	// nothing.
	a.Flush()
	require.NoError(t, database.DB.First(&row, "service_name = ?", "discord_api").Error)
	assert.Equal(t, int64(11), row.TotalRequests)
}
