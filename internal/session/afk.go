package session

import (
	"sync"
	"time"
)

type AFKStatus struct {
	GuildID string
	UserID  string
	Reason  string
	Since   time.Time
}

type afkEntry struct {
	status AFKStatus
	timer  Timer
}

// AFK tracks away users per guild. An entry ends when the user speaks
// again (Return) or when its optional duration runs out.
type AFK struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]*afkEntry
}

func NewAFK() *AFK {
	return &AFK{clock: realClock{}, entries: make(map[string]*afkEntry)}
}

func (a *AFK) WithClock(clock Clock) {
	a.clock = clock
}

// Set marks a user away, replacing any previous status. With duration > 0
// the status clears itself and onReturn is called with it.
func (a *AFK) Set(guildID, userID, reason string, duration time.Duration, onReturn func(AFKStatus)) AFKStatus {
	k := key(guildID, userID)
	status := AFKStatus{GuildID: guildID, UserID: userID, Reason: reason, Since: a.clock.Now()}
	entry := &afkEntry{status: status}

	a.mu.Lock()
	if previous, ok := a.entries[k]; ok && previous.timer != nil {
		previous.timer.Stop()
	}
	a.entries[k] = entry
	if duration > 0 {
		entry.timer = a.clock.AfterFunc(duration, func() {
			a.mu.Lock()
			current, ok := a.entries[k]
			if !ok || current != entry {
				a.mu.Unlock()
				return
			}
			delete(a.entries, k)
			a.mu.Unlock()
			if onReturn != nil {
				onReturn(status)
			}
		})
	}
	a.mu.Unlock()
	return status
}

func (a *AFK) Get(guildID, userID string) (AFKStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[key(guildID, userID)]
	if !ok {
		return AFKStatus{}, false
	}
	return entry.status, true
}

// Return clears and returns the user's status, if any.
func (a *AFK) Return(guildID, userID string) (AFKStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k := key(guildID, userID)
	entry, ok := a.entries[k]
	if !ok {
		return AFKStatus{}, false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(a.entries, k)
	return entry.status, true
}

func (a *AFK) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
