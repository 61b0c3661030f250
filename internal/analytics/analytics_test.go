package analytics

import (
	"context"
	"testing"
	"time"

	"quarantianizo/internal/storage"

	"go.uber.org/zap"
)

func TestReportCountsByType(t *testing.T) {
	store := storage.NewStore(nil, zap.NewNop(), 0)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := []storage.AuditLog{
		{GuildID: "g1", LogType: "ban", ModeratorID: "m1", CreatedAt: base},
		{GuildID: "g1", LogType: "ban", ModeratorID: "m1", CreatedAt: base.Add(time.Minute)},
		{GuildID: "g1", LogType: "kick", ModeratorID: "m2", CreatedAt: base.Add(2 * time.Minute)},
		{GuildID: "g2", LogType: "kick", CreatedAt: base},
	}
	for _, entry := range entries {
		store.AddAuditLog(ctx, entry)
	}

	report := New(store).Report(ctx, "g1", 50)
	if report.Total != 3 {
		t.Fatalf("expected 3 entries, got %d", report.Total)
	}
	types := report.Types()
	if types[0].Key != "ban" || types[0].Count != 2 {
		t.Fatalf("unexpected ranking %+v", types)
	}
	if report.Moderators[0].Key != "m1" {
		t.Fatalf("expected m1 first, got %+v", report.Moderators)
	}
	if !report.Oldest.Equal(base) || !report.Newest.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected range %s..%s", report.Oldest, report.Newest)
	}
}
