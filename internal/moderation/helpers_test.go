package moderation

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/locks"
)

// memStore keeps documents in memory for tests.
type memStore struct {
	mu   sync.Mutex
	docs map[string]any
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]any)}
}

func (m *memStore) Load(name string, v any) error { return nil }

func (m *memStore) Save(name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = v
	return nil
}

type platformCall struct {
	op      string
	guildID string
	userID  string
	roleID  string
	until   time.Time
}

// fakePlatform records calls and answers capability checks.
type fakePlatform struct {
	mu    sync.Mutex
	calls []platformCall
	errs  map[string]error // op -> error to return
	deny  map[Capability]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		errs: make(map[string]error),
		deny: make(map[Capability]bool),
	}
}

func (f *fakePlatform) record(c platformCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.errs[c.op]
}

func (f *fakePlatform) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for n, c := range f.calls {
		out[n] = c.op
	}
	return out
}

func (f *fakePlatform) DeleteMessage(channelID, messageID string) error {
	return f.record(platformCall{op: "delete"})
}

func (f *fakePlatform) TimeoutMember(guildID, userID string, until time.Time, reason string) error {
	return f.record(platformCall{op: "timeout", guildID: guildID, userID: userID, until: until})
}

func (f *fakePlatform) BanMember(guildID, userID, reason string) error {
	return f.record(platformCall{op: "ban", guildID: guildID, userID: userID})
}

func (f *fakePlatform) UnbanMember(guildID, userID string) error {
	return f.record(platformCall{op: "unban", guildID: guildID, userID: userID})
}

func (f *fakePlatform) KickMember(guildID, userID, reason string) error {
	return f.record(platformCall{op: "kick", guildID: guildID, userID: userID})
}

func (f *fakePlatform) AddRole(guildID, userID, roleID string) error {
	return f.record(platformCall{op: "add_role", guildID: guildID, userID: userID, roleID: roleID})
}

func (f *fakePlatform) RemoveRole(guildID, userID, roleID string) error {
	return f.record(platformCall{op: "remove_role", guildID: guildID, userID: userID, roleID: roleID})
}

func (f *fakePlatform) HasCapability(guildID string, cap Capability) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.deny[cap]
}

type testRig struct {
	executor  *Executor
	ledger    *Ledger
	warnings  *Warnings
	sanctions *Sanctions
	platform  *fakePlatform
	bus       *events.Bus
	locks     *locks.Registry
	clock     time.Time
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	logger := zap.NewNop()
	st := newMemStore()
	rig := &testRig{
		ledger:    NewLedger(st, logger),
		warnings:  NewWarnings(st, logger),
		sanctions: NewSanctions(st, logger),
		platform:  newFakePlatform(),
		bus:       events.NewBus(logger),
		locks:     locks.NewRegistry(),
		clock:     time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
	}
	rig.executor = NewExecutor(rig.ledger, rig.warnings, rig.sanctions,
		rig.platform, rig.platform, rig.bus, rig.locks, logger)
	rig.executor.now = func() time.Time { return rig.clock }
	rig.executor.SetServiceIdentity("bot-id")
	return rig
}
