package session

import (
	"sort"
	"sync"
	"time"
)

type OwnerGrant struct {
	UserID    string
	Permanent bool
	ExpiresAt time.Time
}

// Owners holds users granted owner-level commands besides the bot owner.
// Temporary grants expire at their deadline; IsOwner checks lazily and
// Sweep removes stale ones.
type Owners struct {
	mu        sync.Mutex
	clock     Clock
	root      string
	permanent map[string]struct{}
	temporary map[string]time.Time
}

func NewOwners(rootID string) *Owners {
	return &Owners{
		clock:     realClock{},
		root:      rootID,
		permanent: make(map[string]struct{}),
		temporary: make(map[string]time.Time),
	}
}

func (o *Owners) WithClock(clock Clock) {
	o.clock = clock
}

func (o *Owners) IsRoot(userID string) bool {
	return o.root != "" && userID == o.root
}

func (o *Owners) GrantPermanent(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.temporary, userID)
	o.permanent[userID] = struct{}{}
}

func (o *Owners) GrantTemporary(userID string, d time.Duration) time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	expires := o.clock.Now().Add(d)
	o.temporary[userID] = expires
	return expires
}

// Revoke removes both kinds of grant.
func (o *Owners) Revoke(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, perm := o.permanent[userID]
	_, temp := o.temporary[userID]
	delete(o.permanent, userID)
	delete(o.temporary, userID)
	return perm || temp
}

func (o *Owners) IsOwner(userID string) bool {
	if o.IsRoot(userID) {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.permanent[userID]; ok {
		return true
	}
	expires, ok := o.temporary[userID]
	if !ok {
		return false
	}
	if !o.clock.Now().Before(expires) {
		delete(o.temporary, userID)
		return false
	}
	return true
}

// List returns live grants, permanent first, each group sorted by id.
func (o *Owners) List() []OwnerGrant {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.clock.Now()
	var grants []OwnerGrant
	for userID := range o.permanent {
		grants = append(grants, OwnerGrant{UserID: userID, Permanent: true})
	}
	for userID, expires := range o.temporary {
		if now.Before(expires) {
			grants = append(grants, OwnerGrant{UserID: userID, ExpiresAt: expires})
		}
	}
	sort.Slice(grants, func(i, j int) bool {
		if grants[i].Permanent != grants[j].Permanent {
			return grants[i].Permanent
		}
		return grants[i].UserID < grants[j].UserID
	})
	return grants
}

func (o *Owners) Sweep() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.clock.Now()
	removed := 0
	for userID, expires := range o.temporary {
		if !now.Before(expires) {
			delete(o.temporary, userID)
			removed++
		}
	}
	return removed
}
