package storage

import (
	"context"
	"embed"
	"errors"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// ErrNotFound is returned by backends when a lookup matches nothing.
var ErrNotFound = errors.New("storage: record not found")

const (
	KindPostgres = "postgresql"
	KindSQLite   = "sqlite"
	KindMemory   = "in-memory"
)

// HelpSession tracks one user's position in the paginated help wizard.
type HelpSession struct {
	InteractionID string
	UserID        string
	GuildID       string
	CurrentCard   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AuditLog is an append-only moderation record. Empty optional fields are
// stored as NULL by the durable backends.
type AuditLog struct {
	ID          int64
	GuildID     string
	LogType     string
	UserID      string
	ModeratorID string
	Reason      string
	Details     string
	CreatedAt   time.Time
}

type Stats struct {
	Backend        string `json:"backend"`
	Degraded       bool   `json:"degraded"`
	TotalSessions  int    `json:"total_sessions"`
	ActiveSessions int    `json:"active_sessions"`
}

// Backend is implemented by every storage engine. Lookups that match
// nothing return ErrNotFound; any other error is a backend failure.
type Backend interface {
	Kind() string

	SaveHelpSession(ctx context.Context, session HelpSession) error
	GetHelpSession(ctx context.Context, userID, guildID string, cutoff time.Time) (HelpSession, error)
	DeleteHelpSession(ctx context.Context, userID, guildID string) (bool, error)
	CleanupHelpSessions(ctx context.Context, cutoff time.Time) (int64, error)
	HelpSessionStats(ctx context.Context, cutoff time.Time) (total, active int, err error)

	SaveLoggingChannel(ctx context.Context, guildID, channelID string, now time.Time) error
	GetLoggingChannel(ctx context.Context, guildID string) (string, error)
	DeleteLoggingChannel(ctx context.Context, guildID string) (bool, error)

	AddAuditLog(ctx context.Context, entry AuditLog) error
	ListAuditLogs(ctx context.Context, guildID, logType string, limit int) ([]AuditLog, error)
	ListAllAuditLogs(ctx context.Context, limit int) ([]AuditLog, error)

	Close()
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// migrationStatements returns the DDL statements for a dialect directory in
// file order.
func migrationStatements(dialect string) ([]string, error) {
	dir := path.Join("migrations", dialect)
	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	var statements []string
	for _, file := range files {
		content, err := migrations.ReadFile(path.Join(dir, file))
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(content), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
	}
	return statements, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
