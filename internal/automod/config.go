package automod

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/models"
	"github.com/wardenbot/discord-warden/internal/store"
)

// ConfigStore owns the per-guild detection thresholds and the role
// whitelist. Configs are created lazily with defaults, repaired when a
// loaded record is out of range, and persisted whole on every mutation.
type ConfigStore struct {
	store  store.Store
	locks  *locks.Registry
	logger *zap.Logger

	mu        sync.RWMutex
	configs   map[string]models.GuildConfig
	whitelist map[string][]string // guild id -> whitelisted role ids
}

func NewConfigStore(st store.Store, registry *locks.Registry, logger *zap.Logger) *ConfigStore {
	s := &ConfigStore{
		store:     st,
		locks:     registry,
		logger:    logger.Named("automod"),
		configs:   make(map[string]models.GuildConfig),
		whitelist: make(map[string][]string),
	}

	if err := st.Load(store.DocGuildConfigs, &s.configs); err != nil {
		s.logger.Error("failed to load guild configs", zap.Error(err))
	}
	if s.configs == nil {
		s.configs = make(map[string]models.GuildConfig)
	}
	for guildID, cfg := range s.configs {
		if !cfg.Valid() {
			s.logger.Warn("repaired invalid guild config", zap.String("guild_id", guildID))
			s.configs[guildID] = models.DefaultGuildConfig()
		}
	}

	if err := st.Load(store.DocRoleWhitelist, &s.whitelist); err != nil {
		s.logger.Error("failed to load role whitelist", zap.Error(err))
	}
	if s.whitelist == nil {
		s.whitelist = make(map[string][]string)
	}

	return s
}

// Get returns the guild's config, creating and persisting the defaults on
// first use.
func (s *ConfigStore) Get(guildID string) models.GuildConfig {
	s.mu.RLock()
	cfg, ok := s.configs[guildID]
	s.mu.RUnlock()
	if ok {
		return cfg
	}

	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	cfg, ok = s.configs[guildID]
	if !ok {
		cfg = models.DefaultGuildConfig()
		s.configs[guildID] = cfg
	}
	s.mu.Unlock()

	if !ok {
		s.saveConfigs()
	}
	return cfg
}

// Initialize ensures a guild has a config; called on guild join.
func (s *ConfigStore) Initialize(guildID string) {
	s.Get(guildID)
}

// SetThreshold updates one named detection threshold. The caps setting is
// a ratio in [0,1]; every other setting is a non-negative integer.
func (s *ConfigStore) SetThreshold(guildID, setting string, value float64) error {
	if value < 0 {
		return fmt.Errorf("value for %s must not be negative", setting)
	}

	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = models.DefaultGuildConfig()
	}

	switch setting {
	case "caps":
		if value > 1 {
			s.mu.Unlock()
			return fmt.Errorf("caps threshold must be between 0 and 1")
		}
		cfg.CapsThreshold = value
	case "mentions", "messages", "timeframe", "lines", "emojis":
		if value != math.Trunc(value) {
			s.mu.Unlock()
			return fmt.Errorf("value for %s must be a whole number", setting)
		}
		n := int(value)
		switch setting {
		case "mentions":
			cfg.MaxMentions = n
		case "messages":
			cfg.MaxMessages = n
		case "timeframe":
			cfg.Timeframe = n
		case "lines":
			cfg.MaxLines = n
		case "emojis":
			cfg.MaxEmojis = n
		}
	default:
		s.mu.Unlock()
		return fmt.Errorf("unknown automod setting %q", setting)
	}

	s.configs[guildID] = cfg
	s.mu.Unlock()

	s.saveConfigs()
	return nil
}

// AddBlockedWord adds a word to the guild's blocked list. Matching is
// case-insensitive, so the word is stored lowercased.
func (s *ConfigStore) AddBlockedWord(guildID, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return fmt.Errorf("blocked word must not be empty")
	}

	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = models.DefaultGuildConfig()
	}
	if !slices.Contains(cfg.BlockedWords, word) {
		cfg.BlockedWords = append(cfg.BlockedWords, word)
	}
	s.configs[guildID] = cfg
	s.mu.Unlock()

	s.saveConfigs()
	return nil
}

// RemoveBlockedWord removes a word from the guild's blocked list and
// reports whether it was present.
func (s *ConfigStore) RemoveBlockedWord(guildID, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))

	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	cfg, ok := s.configs[guildID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	idx := slices.Index(cfg.BlockedWords, word)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	cfg.BlockedWords = slices.Delete(cfg.BlockedWords, idx, idx+1)
	s.configs[guildID] = cfg
	s.mu.Unlock()

	s.saveConfigs()
	return true
}

// WhitelistRole exempts holders of the role from all automod checks.
func (s *ConfigStore) WhitelistRole(guildID, roleID string) {
	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	if !slices.Contains(s.whitelist[guildID], roleID) {
		s.whitelist[guildID] = append(s.whitelist[guildID], roleID)
	}
	s.mu.Unlock()

	s.saveWhitelist()
}

// UnwhitelistRole removes a role from the whitelist and reports whether it
// was present.
func (s *ConfigStore) UnwhitelistRole(guildID, roleID string) bool {
	unlock := s.locks.Lock(locks.Guild(guildID))
	defer unlock()

	s.mu.Lock()
	roles := s.whitelist[guildID]
	idx := slices.Index(roles, roleID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.whitelist[guildID] = slices.Delete(roles, idx, idx+1)
	s.mu.Unlock()

	s.saveWhitelist()
	return true
}

// IsWhitelisted reports whether any of the member's roles exempts them
// from detection.
func (s *ConfigStore) IsWhitelisted(guildID string, roleIDs []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	whitelisted := s.whitelist[guildID]
	for _, id := range roleIDs {
		if slices.Contains(whitelisted, id) {
			return true
		}
	}
	return false
}

func (s *ConfigStore) saveConfigs() {
	s.mu.RLock()
	snapshot := make(map[string]models.GuildConfig, len(s.configs))
	for k, v := range s.configs {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	if err := s.store.Save(store.DocGuildConfigs, snapshot); err != nil {
		s.logger.Error("failed to save guild configs", zap.Error(err))
	}
}

func (s *ConfigStore) saveWhitelist() {
	s.mu.RLock()
	snapshot := make(map[string][]string, len(s.whitelist))
	for k, v := range s.whitelist {
		snapshot[k] = slices.Clone(v)
	}
	s.mu.RUnlock()

	if err := s.store.Save(store.DocRoleWhitelist, snapshot); err != nil {
		s.logger.Error("failed to save role whitelist", zap.Error(err))
	}
}
