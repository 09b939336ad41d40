package automod

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/models"
	"github.com/wardenbot/discord-warden/internal/store"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	return NewConfigStore(newMemStore(), locks.NewRegistry(), zap.NewNop())
}

func TestGetCreatesDefaultsLazily(t *testing.T) {
	t.Parallel()
	s := newTestConfigStore(t)

	cfg := s.Get("new-guild")
	assert.Equal(t, models.DefaultGuildConfig(), cfg)

	// Second read returns the same stored config.
	assert.Equal(t, cfg, s.Get("new-guild"))
}

func TestSetThreshold(t *testing.T) {
	t.Parallel()
	s := newTestConfigStore(t)

	require.NoError(t, s.SetThreshold("guild", "mentions", 3))
	require.NoError(t, s.SetThreshold("guild", "caps", 0.5))
	require.NoError(t, s.SetThreshold("guild", "timeframe", 10))

	cfg := s.Get("guild")
	assert.Equal(t, 3, cfg.MaxMentions)
	assert.Equal(t, 0.5, cfg.CapsThreshold)
	assert.Equal(t, 10, cfg.Timeframe)
}

func TestSetThresholdRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	s := newTestConfigStore(t)

	assert.Error(t, s.SetThreshold("guild", "mentions", -1))
	assert.Error(t, s.SetThreshold("guild", "mentions", 2.5))
	assert.Error(t, s.SetThreshold("guild", "caps", 1.5))
	assert.Error(t, s.SetThreshold("guild", "bogus", 1))

	// Failed updates leave the config untouched.
	assert.Equal(t, models.DefaultGuildConfig(), s.Get("guild"))
}

func TestBlockedWordsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	s := newTestConfigStore(t)

	require.NoError(t, s.AddBlockedWord("guild", "  BadWord  "))
	assert.Contains(t, s.Get("guild").BlockedWords, "badword")

	// Adding again is a no-op.
	require.NoError(t, s.AddBlockedWord("guild", "badword"))
	assert.Len(t, s.Get("guild").BlockedWords, 1)

	assert.True(t, s.RemoveBlockedWord("guild", "BADWORD"))
	assert.False(t, s.RemoveBlockedWord("guild", "badword"))
	assert.Empty(t, s.Get("guild").BlockedWords)
}

func TestWhitelistRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestConfigStore(t)

	assert.False(t, s.IsWhitelisted("guild", []string{"r1"}))

	s.WhitelistRole("guild", "r1")
	assert.True(t, s.IsWhitelisted("guild", []string{"r1"}))
	assert.True(t, s.IsWhitelisted("guild", []string{"other", "r1"}))
	assert.False(t, s.IsWhitelisted("guild", []string{"other"}))
	assert.False(t, s.IsWhitelisted("other-guild", []string{"r1"}))

	assert.True(t, s.UnwhitelistRole("guild", "r1"))
	assert.False(t, s.UnwhitelistRole("guild", "r1"))
	assert.False(t, s.IsWhitelisted("guild", []string{"r1"}))
}

func TestInvalidLoadedConfigIsRepaired(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs, err := store.NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	bad := models.DefaultGuildConfig()
	bad.CapsThreshold = 3.0
	require.NoError(t, fs.Save(store.DocGuildConfigs, map[string]models.GuildConfig{"guild": bad}))
	require.FileExists(t, filepath.Join(dir, store.DocGuildConfigs+".json"))

	s := NewConfigStore(fs, locks.NewRegistry(), zap.NewNop())
	assert.Equal(t, models.DefaultGuildConfig(), s.Get("guild"))
}
