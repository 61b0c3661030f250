package audit

import (
	"context"
	"testing"
	"time"

	"quarantianizo/internal/storage"

	"go.uber.org/zap"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestLogWritesAndNotifies(t *testing.T) {
	store := storage.NewStore(nil, zap.NewNop(), 0)
	defer store.Close()
	logger := NewLogger(store, zap.NewNop())
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	logger.WithClock(fixedClock{now: at})

	var notified []storage.AuditLog
	logger.SetNotifier(func(_ context.Context, entry storage.AuditLog) {
		notified = append(notified, entry)
	})

	ctx := context.Background()
	logger.Log(ctx, Entry{GuildID: "g1", LogType: TypeBan, UserID: "u1", ModeratorID: "m1", Reason: "spam"})

	logs := store.AuditLogs(ctx, "g1", TypeBan, 10)
	if len(logs) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(logs))
	}
	if logs[0].Reason != "spam" || !logs[0].CreatedAt.Equal(at) {
		t.Fatalf("unexpected entry %+v", logs[0])
	}
	if len(notified) != 1 || notified[0].UserID != "u1" {
		t.Fatalf("expected notifier call, got %+v", notified)
	}
}
