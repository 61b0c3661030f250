package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryBackend keeps every record in process maps. It is the only backend
// when no database is configured and the fallback target otherwise.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]HelpSession
	channels map[string]string
	audit    map[string][]AuditLog
	nextID   int64
}

func NewMemory() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]HelpSession),
		channels: make(map[string]string),
		audit:    make(map[string][]AuditLog),
	}
}

func (m *MemoryBackend) Kind() string { return KindMemory }

func sessionKey(userID, guildID string) string {
	return userID + "_" + guildID
}

func (m *MemoryBackend) SaveHelpSession(_ context.Context, session HelpSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(session.UserID, session.GuildID)
	if existing, ok := m.sessions[key]; ok && existing.InteractionID == session.InteractionID {
		session.CreatedAt = existing.CreatedAt
	}
	m.sessions[key] = session
	return nil
}

func (m *MemoryBackend) GetHelpSession(_ context.Context, userID, guildID string, cutoff time.Time) (HelpSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, guildID)
	session, ok := m.sessions[key]
	if !ok {
		return HelpSession{}, ErrNotFound
	}
	if !session.CreatedAt.After(cutoff) {
		delete(m.sessions, key)
		return HelpSession{}, ErrNotFound
	}
	return session, nil
}

func (m *MemoryBackend) DeleteHelpSession(_ context.Context, userID, guildID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, guildID)
	if _, ok := m.sessions[key]; !ok {
		return false, nil
	}
	delete(m.sessions, key)
	return true, nil
}

func (m *MemoryBackend) CleanupHelpSessions(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key, session := range m.sessions {
		if !session.CreatedAt.After(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) HelpSessionStats(_ context.Context, cutoff time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, session := range m.sessions {
		if session.CreatedAt.After(cutoff) {
			active++
		}
	}
	return len(m.sessions), active, nil
}

func (m *MemoryBackend) SaveLoggingChannel(_ context.Context, guildID, channelID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[guildID] = channelID
	return nil
}

func (m *MemoryBackend) GetLoggingChannel(_ context.Context, guildID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	channelID, ok := m.channels[guildID]
	if !ok {
		return "", ErrNotFound
	}
	return channelID, nil
}

func (m *MemoryBackend) DeleteLoggingChannel(_ context.Context, guildID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[guildID]; !ok {
		return false, nil
	}
	delete(m.channels, guildID)
	return true, nil
}

func (m *MemoryBackend) AddAuditLog(_ context.Context, entry AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	m.audit[entry.GuildID] = append(m.audit[entry.GuildID], entry)
	return nil
}

func (m *MemoryBackend) ListAuditLogs(_ context.Context, guildID, logType string, limit int) ([]AuditLog, error) {
	m.mu.Lock()
	var logs []AuditLog
	for _, entry := range m.audit[guildID] {
		if logType != "" && entry.LogType != logType {
			continue
		}
		logs = append(logs, entry)
	}
	m.mu.Unlock()

	return newestFirst(logs, limit), nil
}

func (m *MemoryBackend) ListAllAuditLogs(_ context.Context, limit int) ([]AuditLog, error) {
	m.mu.Lock()
	var logs []AuditLog
	for _, entries := range m.audit {
		logs = append(logs, entries...)
	}
	m.mu.Unlock()

	return newestFirst(logs, limit), nil
}

// Reset drops every record.
func (m *MemoryBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]HelpSession)
	m.channels = make(map[string]string)
	m.audit = make(map[string][]AuditLog)
}

func (m *MemoryBackend) Close() {
	m.Reset()
}

// newestFirst orders by creation time descending, ties broken by insertion
// order, then truncates to limit.
func newestFirst(logs []AuditLog, limit int) []AuditLog {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].ID > logs[j].ID
		}
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs
}
