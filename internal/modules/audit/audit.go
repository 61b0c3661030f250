package audit

import (
	"context"
	"time"

	"quarantianizo/internal/storage"

	"go.uber.org/zap"
)

const (
	TypeBan        = "ban"
	TypeKick       = "kick"
	TypeTimeout    = "timeout"
	TypeQuarantine = "quarantine"
	TypeRelease    = "release"
	TypeOwner      = "owner"
	TypeVoice      = "voice"
	TypeTicket     = "ticket"
	TypeConfig     = "config"
)

type Entry struct {
	GuildID     string
	LogType     string
	UserID      string
	ModeratorID string
	Reason      string
	Details     string
}

type Logger struct {
	store  *storage.Store
	logger *zap.Logger
	clock  storage.Clock
	notify func(context.Context, storage.AuditLog)
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger, clock: wallClock{}}
}

func (l *Logger) WithClock(clock storage.Clock) {
	l.clock = clock
}

// SetNotifier registers a hook that runs after every recorded entry; the
// bot uses it to mirror entries into the guild's logging channel.
func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

// Log appends the entry and reports whether it reached durable storage.
func (l *Logger) Log(ctx context.Context, e Entry) bool {
	record := storage.AuditLog{
		GuildID:     e.GuildID,
		LogType:     e.LogType,
		UserID:      e.UserID,
		ModeratorID: e.ModeratorID,
		Reason:      e.Reason,
		Details:     e.Details,
		CreatedAt:   l.clock.Now(),
	}
	durable := false
	if l.store != nil {
		durable = l.store.AddAuditLog(ctx, record)
	}
	if l.notify != nil {
		l.notify(ctx, record)
	}
	l.logger.Info("audit",
		zap.String("guild_id", e.GuildID),
		zap.String("type", e.LogType),
		zap.String("user_id", e.UserID),
		zap.String("moderator_id", e.ModeratorID),
		zap.String("reason", e.Reason),
		zap.Bool("durable", durable),
	)
	return durable
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
