package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultAuditLimit = 50
)

// Store is what command handlers talk to. Calls go to the durable backend
// when one is active; a durable failure is logged and the call is replayed
// against the in-memory backend, so callers only ever see a result.
type Store struct {
	durable Backend
	memory  *MemoryBackend
	tickets *Tickets
	logger  *zap.Logger
	clock   Clock
	ttl     time.Duration

	closeOnce sync.Once
}

// NewStore wraps durable, which may be nil for a memory-only store.
func NewStore(durable Backend, logger *zap.Logger, ttl time.Duration) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		durable: durable,
		memory:  NewMemory(),
		tickets: NewTickets(),
		logger:  logger,
		clock:   realClock{},
		ttl:     ttl,
	}
}

func (s *Store) WithClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// Backend names the engine selected at startup.
func (s *Store) Backend() string {
	if s.durable == nil {
		return KindMemory
	}
	return s.durable.Kind()
}

func (s *Store) Tickets() *Tickets {
	return s.tickets
}

func (s *Store) SessionTTL() time.Duration {
	return s.ttl
}

func (s *Store) cutoff() time.Time {
	return s.clock.Now().Add(-s.ttl)
}

// run executes call on the durable backend, then on memory if that failed.
// ErrNotFound is an answer, not a failure, and is never replayed.
func run[T any](s *Store, op string, call func(Backend) (T, error)) (T, bool, error) {
	if s.durable != nil {
		value, err := call(s.durable)
		if err == nil || errors.Is(err, ErrNotFound) {
			return value, false, err
		}
		s.logger.Warn("durable storage failed, using memory",
			zap.String("op", op),
			zap.String("backend", s.durable.Kind()),
			zap.Error(err),
		)
	}
	value, err := call(s.memory)
	return value, s.durable != nil, err
}

// SaveHelpSession records the wizard position for a user. It reports false
// when the write only reached memory.
func (s *Store) SaveHelpSession(ctx context.Context, interactionID, userID, guildID string, card int) bool {
	now := s.clock.Now()
	session := HelpSession{
		InteractionID: interactionID,
		UserID:        userID,
		GuildID:       guildID,
		CurrentCard:   card,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, degraded, err := run(s, "save_help_session", func(b Backend) (struct{}, error) {
		return struct{}{}, b.SaveHelpSession(ctx, session)
	})
	return err == nil && !degraded
}

// HelpSession returns the live session for a user, if any. A durable miss
// also consults memory, which holds writes made while the database was down.
func (s *Store) HelpSession(ctx context.Context, userID, guildID string) (HelpSession, bool) {
	cutoff := s.cutoff()
	session, degraded, err := run(s, "get_help_session", func(b Backend) (HelpSession, error) {
		return b.GetHelpSession(ctx, userID, guildID, cutoff)
	})
	if err == nil {
		return session, true
	}
	if errors.Is(err, ErrNotFound) && s.durable != nil && !degraded {
		if session, err := s.memory.GetHelpSession(ctx, userID, guildID, cutoff); err == nil {
			return session, true
		}
	}
	return HelpSession{}, false
}

func (s *Store) DeleteHelpSession(ctx context.Context, userID, guildID string) bool {
	removed, _, err := run(s, "delete_help_session", func(b Backend) (bool, error) {
		return b.DeleteHelpSession(ctx, userID, guildID)
	})
	if s.durable != nil {
		if fromMemory, _ := s.memory.DeleteHelpSession(ctx, userID, guildID); fromMemory {
			removed = true
		}
	}
	return err == nil && removed
}

// CleanupHelpSessions evicts expired sessions from the durable backend and
// from memory. A failure in one does not stop the other.
func (s *Store) CleanupHelpSessions(ctx context.Context) (int64, error) {
	cutoff := s.cutoff()
	var total int64
	var errs []error

	if s.durable != nil {
		removed, err := s.durable.CleanupHelpSessions(ctx, cutoff)
		if err != nil {
			errs = append(errs, err)
		}
		total += removed
	}
	removed, err := s.memory.CleanupHelpSessions(ctx, cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	total += removed

	return total, errors.Join(errs...)
}

func (s *Store) Stats(ctx context.Context) Stats {
	cutoff := s.cutoff()
	type counts struct{ total, active int }
	result, degraded, err := run(s, "help_session_stats", func(b Backend) (counts, error) {
		total, active, err := b.HelpSessionStats(ctx, cutoff)
		return counts{total, active}, err
	})
	stats := Stats{Backend: s.Backend(), Degraded: degraded}
	if err == nil {
		stats.TotalSessions = result.total
		stats.ActiveSessions = result.active
	}
	return stats
}

func (s *Store) SaveLoggingChannel(ctx context.Context, guildID, channelID string) bool {
	now := s.clock.Now()
	_, degraded, err := run(s, "save_logging_channel", func(b Backend) (struct{}, error) {
		return struct{}{}, b.SaveLoggingChannel(ctx, guildID, channelID, now)
	})
	return err == nil && !degraded
}

func (s *Store) LoggingChannel(ctx context.Context, guildID string) (string, bool) {
	channelID, degraded, err := run(s, "get_logging_channel", func(b Backend) (string, error) {
		return b.GetLoggingChannel(ctx, guildID)
	})
	if err == nil {
		return channelID, true
	}
	if errors.Is(err, ErrNotFound) && s.durable != nil && !degraded {
		if channelID, err := s.memory.GetLoggingChannel(ctx, guildID); err == nil {
			return channelID, true
		}
	}
	return "", false
}

func (s *Store) ClearLoggingChannel(ctx context.Context, guildID string) bool {
	removed, _, err := run(s, "delete_logging_channel", func(b Backend) (bool, error) {
		return b.DeleteLoggingChannel(ctx, guildID)
	})
	if s.durable != nil {
		if fromMemory, _ := s.memory.DeleteLoggingChannel(ctx, guildID); fromMemory {
			removed = true
		}
	}
	return err == nil && removed
}

// AddAuditLog appends entry. CreatedAt defaults to now.
func (s *Store) AddAuditLog(ctx context.Context, entry AuditLog) bool {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	_, degraded, err := run(s, "add_audit_log", func(b Backend) (struct{}, error) {
		return struct{}{}, b.AddAuditLog(ctx, entry)
	})
	return err == nil && !degraded
}

// AuditLogs lists a guild's entries newest first. An empty logType matches
// every type; the filter is applied before limit.
func (s *Store) AuditLogs(ctx context.Context, guildID, logType string, limit int) []AuditLog {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	list := func(b Backend) ([]AuditLog, error) {
		return b.ListAuditLogs(ctx, guildID, logType, limit)
	}
	logs, degraded, err := run(s, "list_audit_logs", list)
	if err != nil {
		return nil
	}
	return s.withMemoryLogs(logs, degraded, limit, list)
}

func (s *Store) AllAuditLogs(ctx context.Context, limit int) []AuditLog {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	list := func(b Backend) ([]AuditLog, error) {
		return b.ListAllAuditLogs(ctx, limit)
	}
	logs, degraded, err := run(s, "list_all_audit_logs", list)
	if err != nil {
		return nil
	}
	return s.withMemoryLogs(logs, degraded, limit, list)
}

// withMemoryLogs merges entries appended to memory during an outage into a
// durable listing. Memory only receives writes the database refused, so the
// two sets never overlap.
func (s *Store) withMemoryLogs(logs []AuditLog, degraded bool, limit int, list func(Backend) ([]AuditLog, error)) []AuditLog {
	if s.durable == nil || degraded {
		return logs
	}
	pending, err := list(s.memory)
	if err != nil || len(pending) == 0 {
		return logs
	}
	merged := make([]AuditLog, 0, len(logs)+len(pending))
	merged = append(merged, logs...)
	merged = append(merged, pending...)
	return newestFirst(merged, limit)
}

// Close releases the durable backend and clears memory. Safe to call twice.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.durable != nil {
			s.durable.Close()
		}
		s.memory.Reset()
		s.tickets.Reset()
	})
}
