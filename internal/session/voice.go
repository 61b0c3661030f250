package session

import (
	"sort"
	"sync"
)

// Voice tracks users protected from voice moderation, per guild.
type Voice struct {
	mu       sync.Mutex
	defended map[string]map[string]struct{}
}

func NewVoice() *Voice {
	return &Voice{defended: make(map[string]map[string]struct{})}
}

func (v *Voice) Defend(guildID, userID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	users, ok := v.defended[guildID]
	if !ok {
		users = make(map[string]struct{})
		v.defended[guildID] = users
	}
	if _, exists := users[userID]; exists {
		return false
	}
	users[userID] = struct{}{}
	return true
}

func (v *Voice) Undefend(guildID, userID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	users := v.defended[guildID]
	if _, ok := users[userID]; !ok {
		return false
	}
	delete(users, userID)
	return true
}

func (v *Voice) IsDefended(guildID, userID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.defended[guildID][userID]
	return ok
}

func (v *Voice) List(guildID string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	users := make([]string, 0, len(v.defended[guildID]))
	for userID := range v.defended[guildID] {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Clear removes every defended user in the guild and returns how many.
func (v *Voice) Clear(guildID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.defended[guildID])
	delete(v.defended, guildID)
	return n
}
