package automod

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultSpamTrackerSize bounds how many users' windows are kept in memory
// at once. Evicting a user only forgets their in-window message counts,
// which under-detects briefly and is acceptable for a best-effort check.
const defaultSpamTrackerSize = 4096

// SpamTracker keeps a sliding window of message timestamps per guild
// member. It is the detector's only stateful check; callers serialize
// per-user updates through the lock registry, while the internal mutex
// guards the cache structure itself.
type SpamTracker struct {
	mu      sync.Mutex
	windows *lru.Cache[string, []time.Time]
}

func NewSpamTracker(size int) *SpamTracker {
	if size <= 0 {
		size = defaultSpamTrackerSize
	}
	cache, err := lru.New[string, []time.Time](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &SpamTracker{windows: cache}
}

// Observe records one message at now and reports whether the author has
// exceeded maxMessages within the last timeframeSeconds.
func (t *SpamTracker) Observe(guildID, userID string, now time.Time, timeframeSeconds, maxMessages int) bool {
	key := guildID + ":" + userID
	cutoff := now.Add(-time.Duration(timeframeSeconds) * time.Second)

	t.mu.Lock()
	defer t.mu.Unlock()

	window, _ := t.windows.Get(key)
	kept := make([]time.Time, 0, len(window)+1)
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	t.windows.Add(key, kept)

	return len(kept) > maxMessages
}
