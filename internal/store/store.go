package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Document names persisted by the engine. Each maps to one JSON file that
// is replaced wholesale on every save.
const (
	DocGuildConfigs  = "automod_config"
	DocRoleWhitelist = "role_whitelist"
	DocViolations    = "violations"
	DocWarnings      = "warnings"
	DocTempSanctions = "temp_sanctions"
	DocReputation    = "reputation"
)

// Store is a key-addressed document store. Implementations must make Save
// atomic: readers never observe a partially written document.
type Store interface {
	// Load reads the named document into v. A missing document leaves v
	// untouched and returns nil.
	Load(name string, v any) error
	// Save replaces the named document with v.
	Save(name string, v any) error
}

// FileStore persists documents as JSON files under a single directory.
// Saves write to a temporary file and rename it into place; documents that
// fail to parse on load are renamed aside as timestamped backups so a
// corrupt file never aborts startup.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger.Named("store")}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read document %s: %w", name, err)
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		s.quarantine(name, err)
		return nil
	}
	return nil
}

func (s *FileStore) Save(name string, v any) error {
	data, err := sonic.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace document %s: %w", name, err)
	}
	return nil
}

// quarantine moves a corrupt document aside so the caller can continue with
// an empty default.
func (s *FileStore) quarantine(name string, cause error) {
	backup := fmt.Sprintf("%s.bak.%d", s.path(name), time.Now().Unix())
	if err := os.Rename(s.path(name), backup); err != nil {
		s.logger.Error("failed to back up corrupted document",
			zap.String("document", name),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("quarantined corrupted document",
		zap.String("document", name),
		zap.String("backup", backup),
		zap.Error(cause),
	)
}
