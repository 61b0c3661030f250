package analytics

import (
	"context"
	"sort"
	"time"

	"quarantianizo/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Count struct {
	Key   string
	Count int
}

type Report struct {
	Total      int
	ByType     map[string]int
	Moderators []Count
	Oldest     time.Time
	Newest     time.Time
}

// Report summarises a guild's most recent audit entries, at most limit.
func (s *Service) Report(ctx context.Context, guildID string, limit int) Report {
	logs := s.store.AuditLogs(ctx, guildID, "", limit)

	report := Report{ByType: make(map[string]int)}
	moderators := make(map[string]int)
	for _, log := range logs {
		report.Total++
		report.ByType[log.LogType]++
		if log.ModeratorID != "" {
			moderators[log.ModeratorID]++
		}
		if report.Newest.IsZero() || log.CreatedAt.After(report.Newest) {
			report.Newest = log.CreatedAt
		}
		if report.Oldest.IsZero() || log.CreatedAt.Before(report.Oldest) {
			report.Oldest = log.CreatedAt
		}
	}
	report.Moderators = ranked(moderators)
	return report
}

// Types returns the log types of r ordered by count, then name.
func (r Report) Types() []Count {
	return ranked(r.ByType)
}

func ranked(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for key, n := range counts {
		out = append(out, Count{Key: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
