package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolOptions struct {
	MaxConns       int
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
}

// PostgresBackend runs every operation on a connection borrowed from the
// pool; AcquireFunc releases it whether the callback succeeds or not.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string, opts PoolOptions) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.IdleTimeout > 0 {
		cfg.MaxConnIdleTime = opts.IdleTimeout
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Kind() string { return KindPostgres }

func (p *PostgresBackend) Migrate(ctx context.Context) error {
	statements, err := migrationStatements("postgres")
	if err != nil {
		return err
	}
	return p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		for _, stmt := range statements {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement failed: %w", err)
			}
		}
		return nil
	})
}

func (p *PostgresBackend) SaveHelpSession(ctx context.Context, session HelpSession) error {
	return p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `
				DELETE FROM help_interactions
				WHERE user_id = $1 AND guild_id = $2 AND interaction_id <> $3
			`, session.UserID, session.GuildID, session.InteractionID); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO help_interactions (interaction_id, user_id, guild_id, current_card, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (interaction_id) DO UPDATE SET
					current_card = EXCLUDED.current_card,
					updated_at = EXCLUDED.updated_at
			`, session.InteractionID, session.UserID, session.GuildID, session.CurrentCard, session.CreatedAt, session.UpdatedAt)
			return err
		})
	})
}

func (p *PostgresBackend) GetHelpSession(ctx context.Context, userID, guildID string, cutoff time.Time) (HelpSession, error) {
	var session HelpSession
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT interaction_id, user_id, guild_id, current_card, created_at, updated_at
			FROM help_interactions
			WHERE user_id = $1 AND guild_id = $2 AND created_at > $3
			ORDER BY updated_at DESC
			LIMIT 1
		`, userID, guildID, cutoff).Scan(
			&session.InteractionID,
			&session.UserID,
			&session.GuildID,
			&session.CurrentCard,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return HelpSession{}, ErrNotFound
	}
	if err != nil {
		return HelpSession{}, err
	}
	return session, nil
}

func (p *PostgresBackend) DeleteHelpSession(ctx context.Context, userID, guildID string) (bool, error) {
	var removed int64
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM help_interactions WHERE user_id = $1 AND guild_id = $2`, userID, guildID)
		removed = tag.RowsAffected()
		return err
	})
	return removed > 0, err
}

func (p *PostgresBackend) CleanupHelpSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM help_interactions WHERE created_at <= $1`, cutoff)
		removed = tag.RowsAffected()
		return err
	})
	return removed, err
}

func (p *PostgresBackend) HelpSessionStats(ctx context.Context, cutoff time.Time) (int, int, error) {
	var total, active int
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at > $1)
			FROM help_interactions
		`, cutoff).Scan(&total, &active)
	})
	return total, active, err
}

func (p *PostgresBackend) SaveLoggingChannel(ctx context.Context, guildID, channelID string, now time.Time) error {
	return p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO logging_channels (guild_id, channel_id, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (guild_id) DO UPDATE SET
				channel_id = EXCLUDED.channel_id,
				updated_at = EXCLUDED.updated_at
		`, guildID, channelID, now)
		return err
	})
}

func (p *PostgresBackend) GetLoggingChannel(ctx context.Context, guildID string) (string, error) {
	var channelID string
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `SELECT channel_id FROM logging_channels WHERE guild_id = $1`, guildID).Scan(&channelID)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return channelID, err
}

func (p *PostgresBackend) DeleteLoggingChannel(ctx context.Context, guildID string) (bool, error) {
	var removed int64
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM logging_channels WHERE guild_id = $1`, guildID)
		removed = tag.RowsAffected()
		return err
	})
	return removed > 0, err
}

func (p *PostgresBackend) AddAuditLog(ctx context.Context, entry AuditLog) error {
	return p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO audit_logs (guild_id, log_type, user_id, moderator_id, reason, details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, entry.GuildID, entry.LogType, nullable(entry.UserID), nullable(entry.ModeratorID), nullable(entry.Reason), nullable(entry.Details), entry.CreatedAt)
		return err
	})
}

const auditColumns = `id, guild_id, log_type, COALESCE(user_id, ''), COALESCE(moderator_id, ''),
	COALESCE(reason, ''), COALESCE(details, ''), created_at`

func (p *PostgresBackend) ListAuditLogs(ctx context.Context, guildID, logType string, limit int) ([]AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE guild_id = $1`
	args := []any{guildID}
	if logType != "" {
		query += ` AND log_type = $2 ORDER BY created_at DESC, id DESC LIMIT $3`
		args = append(args, logType, limit)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, limit)
	}
	return p.queryAuditLogs(ctx, query, args...)
}

func (p *PostgresBackend) ListAllAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	return p.queryAuditLogs(ctx, `SELECT `+auditColumns+` FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (p *PostgresBackend) queryAuditLogs(ctx context.Context, query string, args ...any) ([]AuditLog, error) {
	var logs []AuditLog
	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		logs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditLog, error) {
			var entry AuditLog
			err := row.Scan(&entry.ID, &entry.GuildID, &entry.LogType, &entry.UserID, &entry.ModeratorID, &entry.Reason, &entry.Details, &entry.CreatedAt)
			return entry, err
		})
		return err
	})
	return logs, err
}

func (p *PostgresBackend) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
