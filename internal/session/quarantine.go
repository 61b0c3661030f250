package session

import (
	"sync"
	"time"
)

// QuarantineRecord keeps the roles stripped from a member so they can be
// restored on release.
type QuarantineRecord struct {
	GuildID       string
	UserID        string
	OriginalRoles []string
	Reason        string
	ModeratorID   string
	At            time.Time
}

type Quarantine struct {
	mu      sync.Mutex
	clock   Clock
	records map[string]QuarantineRecord
}

func NewQuarantine() *Quarantine {
	return &Quarantine{clock: realClock{}, records: make(map[string]QuarantineRecord)}
}

func (q *Quarantine) WithClock(clock Clock) {
	q.clock = clock
}

// Put stores the record unless the member is already quarantined, in which
// case the existing record wins and false is returned.
func (q *Quarantine) Put(record QuarantineRecord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	k := key(record.GuildID, record.UserID)
	if _, exists := q.records[k]; exists {
		return false
	}
	record.OriginalRoles = append([]string(nil), record.OriginalRoles...)
	record.At = q.clock.Now()
	q.records[k] = record
	return true
}

func (q *Quarantine) Release(guildID, userID string) (QuarantineRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	k := key(guildID, userID)
	record, ok := q.records[k]
	if ok {
		delete(q.records, k)
	}
	return record, ok
}
