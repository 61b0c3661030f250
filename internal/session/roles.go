package session

import (
	"sort"
	"sync"
)

// RoleSets maps a guild to a set of role ids. It backs the quarantine
// bypass list and the np allow list.
type RoleSets struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func NewRoleSets() *RoleSets {
	return &RoleSets{sets: make(map[string]map[string]struct{})}
}

// Add reports whether the role was newly added.
func (r *RoleSets) Add(guildID, roleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[guildID]
	if !ok {
		set = make(map[string]struct{})
		r.sets[guildID] = set
	}
	if _, exists := set[roleID]; exists {
		return false
	}
	set[roleID] = struct{}{}
	return true
}

func (r *RoleSets) Remove(guildID, roleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[guildID]
	if !ok {
		return false
	}
	if _, exists := set[roleID]; !exists {
		return false
	}
	delete(set, roleID)
	if len(set) == 0 {
		delete(r.sets, guildID)
	}
	return true
}

func (r *RoleSets) Has(guildID, roleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sets[guildID][roleID]
	return ok
}

// HasAny reports whether any of roleIDs is in the guild's set.
func (r *RoleSets) HasAny(guildID string, roleIDs []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.sets[guildID]
	for _, roleID := range roleIDs {
		if _, ok := set[roleID]; ok {
			return true
		}
	}
	return false
}

func (r *RoleSets) List(guildID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]string, 0, len(r.sets[guildID]))
	for roleID := range r.sets[guildID] {
		roles = append(roles, roleID)
	}
	sort.Strings(roles)
	return roles
}
