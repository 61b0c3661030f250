package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend is the embedded durable engine, selected by sqlite: URLs.
type SQLiteBackend struct {
	db *sql.DB
}

// SQLitePath converts a sqlite: descriptor into a driver DSN.
// sqlite::memory: and sqlite:///var/lib/bot.db are both accepted.
func SQLitePath(url string) string {
	rest := strings.TrimPrefix(url, "sqlite:")
	switch {
	case rest == ":memory:" || rest == "":
		return ":memory:"
	case strings.HasPrefix(rest, "//"):
		return strings.TrimPrefix(rest, "//")
	default:
		return rest
	}
}

func NewSQLite(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Kind() string { return KindSQLite }

func (s *SQLiteBackend) Migrate(ctx context.Context) error {
	statements, err := migrationStatements("sqlite")
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteBackend) SaveHelpSession(ctx context.Context, session HelpSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM help_interactions
		WHERE user_id = ? AND guild_id = ? AND interaction_id <> ?
	`, session.UserID, session.GuildID, session.InteractionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO help_interactions (interaction_id, user_id, guild_id, current_card, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(interaction_id) DO UPDATE SET
			current_card = excluded.current_card,
			updated_at = excluded.updated_at
	`, session.InteractionID, session.UserID, session.GuildID, session.CurrentCard,
		session.CreatedAt.UnixMilli(), session.UpdatedAt.UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteBackend) GetHelpSession(ctx context.Context, userID, guildID string, cutoff time.Time) (HelpSession, error) {
	var session HelpSession
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT interaction_id, user_id, guild_id, current_card, created_at, updated_at
		FROM help_interactions
		WHERE user_id = ? AND guild_id = ? AND created_at > ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID, guildID, cutoff.UnixMilli()).Scan(
		&session.InteractionID,
		&session.UserID,
		&session.GuildID,
		&session.CurrentCard,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return HelpSession{}, ErrNotFound
	}
	if err != nil {
		return HelpSession{}, err
	}
	session.CreatedAt = time.UnixMilli(createdAt)
	session.UpdatedAt = time.UnixMilli(updatedAt)
	return session, nil
}

func (s *SQLiteBackend) DeleteHelpSession(ctx context.Context, userID, guildID string) (bool, error) {
	removed, err := s.exec(ctx, `DELETE FROM help_interactions WHERE user_id = ? AND guild_id = ?`, userID, guildID)
	return removed > 0, err
}

func (s *SQLiteBackend) CleanupHelpSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.exec(ctx, `DELETE FROM help_interactions WHERE created_at <= ?`, cutoff.UnixMilli())
}

func (s *SQLiteBackend) HelpSessionStats(ctx context.Context, cutoff time.Time) (int, int, error) {
	var total int
	var active sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN created_at > ? THEN 1 ELSE 0 END)
		FROM help_interactions
	`, cutoff.UnixMilli()).Scan(&total, &active)
	return total, int(active.Int64), err
}

func (s *SQLiteBackend) SaveLoggingChannel(ctx context.Context, guildID, channelID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logging_channels (guild_id, channel_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			updated_at = excluded.updated_at
	`, guildID, channelID, now.UnixMilli(), now.UnixMilli())
	return err
}

func (s *SQLiteBackend) GetLoggingChannel(ctx context.Context, guildID string) (string, error) {
	var channelID string
	err := s.db.QueryRowContext(ctx, `SELECT channel_id FROM logging_channels WHERE guild_id = ?`, guildID).Scan(&channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return channelID, err
}

func (s *SQLiteBackend) DeleteLoggingChannel(ctx context.Context, guildID string) (bool, error) {
	removed, err := s.exec(ctx, `DELETE FROM logging_channels WHERE guild_id = ?`, guildID)
	return removed > 0, err
}

func (s *SQLiteBackend) AddAuditLog(ctx context.Context, entry AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (guild_id, log_type, user_id, moderator_id, reason, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.GuildID, entry.LogType, nullable(entry.UserID), nullable(entry.ModeratorID),
		nullable(entry.Reason), nullable(entry.Details), entry.CreatedAt.UnixMilli())
	return err
}

func (s *SQLiteBackend) ListAuditLogs(ctx context.Context, guildID, logType string, limit int) ([]AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE guild_id = ?`
	args := []any{guildID}
	if logType != "" {
		query += ` AND log_type = ?`
		args = append(args, logType)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return s.queryAuditLogs(ctx, query, args...)
}

func (s *SQLiteBackend) ListAllAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	return s.queryAuditLogs(ctx, `SELECT `+auditColumns+` FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (s *SQLiteBackend) queryAuditLogs(ctx context.Context, query string, args ...any) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var entry AuditLog
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.GuildID, &entry.LogType, &entry.UserID, &entry.ModeratorID, &entry.Reason, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = time.UnixMilli(createdAt)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *SQLiteBackend) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SQLiteBackend) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
