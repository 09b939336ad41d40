package moderation

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
	"github.com/wardenbot/discord-warden/internal/store"
)

// Sanctions tracks every issued time-bounded sanction until the scheduler
// reverses it. The internal mutex guards the map; callers serialize
// logical create/reverse sequences through the per-sanction lock.
type Sanctions struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger
	active map[string]models.TempSanction
}

func NewSanctions(st store.Store, logger *zap.Logger) *Sanctions {
	s := &Sanctions{
		store:  st,
		logger: logger.Named("sanctions"),
		active: make(map[string]models.TempSanction),
	}
	if err := st.Load(store.DocTempSanctions, &s.active); err != nil {
		s.logger.Error("failed to load temporary sanctions", zap.Error(err))
	}
	if s.active == nil {
		s.active = make(map[string]models.TempSanction)
	}
	return s
}

func (s *Sanctions) Put(key string, sanction models.TempSanction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[key] = sanction
}

func (s *Sanctions) Get(key string) (models.TempSanction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sanction, ok := s.active[key]
	return sanction, ok
}

// Delete removes a sanction record and reports whether it existed.
func (s *Sanctions) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[key]; !ok {
		return false
	}
	delete(s.active, key)
	return true
}

// Expired returns a snapshot of every sanction whose expiry has passed.
func (s *Sanctions) Expired(now time.Time) map[string]models.TempSanction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make(map[string]models.TempSanction)
	for key, sanction := range s.active {
		if !sanction.Expires.After(now) {
			expired[key] = sanction
		}
	}
	return expired
}

func (s *Sanctions) Save() error {
	s.mu.RLock()
	snapshot := make(map[string]models.TempSanction, len(s.active))
	for k, v := range s.active {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	return s.store.Save(store.DocTempSanctions, snapshot)
}
