package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// postgresUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const postgresUniqueViolation = "23505"

// PoolConfig bounds the connection pool, per spec.md §6 DB_POOL_MIN/MAX.
type PoolConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	MinConns int32
	MaxConns int32
}

func (c PoolConfig) connString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// PostgresStore implements Store over a pooled PostgreSQL connection,
// following the teacher's PostgresStore shape: a thin struct wrapping
// *pgxpool.Pool, a Connect/Close pair, and an InitSchema that loads a
// schema file (here embedded in the binary rather than read from disk).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool and pings it once so startup
// fails fast on a bad connection string, matching spec.md's StorageFatal
// classification for connect-time failures.
func Connect(ctx context.Context, cfg PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing connection string: %v", ErrSchemaMismatch, err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates the mentions and alert_history tables and their
// indexes if absent. Failure here is fatal at startup.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Close gracefully closes the connection pool. Safe to call more than
// once.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// IsHealthy performs a fast liveness probe via the pool's Ping.
func (s *PostgresStore) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx) == nil
}

// Record inserts one mention. A unique-constraint violation on
// (contract, conversation_id, message_id) is caught and mapped to
// Duplicate rather than propagated as an error.
func (s *PostgresStore) Record(ctx context.Context, m models.Match) (RecordStatus, error) {
	const insertSQL = `
		INSERT INTO mentions (contract, chain, conversation_id, message_id, observed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, insertSQL, m.Contract, m.Chain, m.ConversationID, m.MessageID, m.ObservedAt.UTC())
	if err == nil {
		return Inserted, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation {
		return Duplicate, nil
	}
	return Failed, fmt.Errorf("%w: recording mention: %v", ErrTransient, err)
}

// Trending returns aggregates for the half-open window [since, now).
func (s *PostgresStore) Trending(ctx context.Context, since time.Time, minMentions, minUnique int, chain string) ([]models.Aggregate, error) {
	const querySQL = `
		SELECT contract, chain,
		       COUNT(*) AS mentions,
		       COUNT(DISTINCT conversation_id) AS unique_conversations,
		       MIN(observed_at) AS first_seen,
		       MAX(observed_at) AS last_seen
		FROM mentions
		WHERE observed_at >= $1 AND observed_at < NOW()
		  AND ($2 = '' OR chain = $2)
		GROUP BY contract, chain
		HAVING COUNT(*) >= $3 AND COUNT(DISTINCT conversation_id) >= $4
	`
	rows, err := s.pool.Query(ctx, querySQL, since.UTC(), chain, minMentions, minUnique)
	if err != nil {
		return nil, fmt.Errorf("%w: querying trending aggregates: %v", ErrTransient, err)
	}
	defer rows.Close()

	var out []models.Aggregate
	for rows.Next() {
		var a models.Aggregate
		if err := rows.Scan(&a.Contract, &a.Chain, &a.MentionsInWindow, &a.UniqueConversationsInWindow, &a.FirstSeenInWindow, &a.LastSeenInWindow); err != nil {
			return nil, fmt.Errorf("%w: scanning trending row: %v", ErrTransient, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating trending rows: %v", ErrTransient, err)
	}
	return out, nil
}

// Count returns total mentions for one contract in [since, until).
func (s *PostgresStore) Count(ctx context.Context, contract string, since, until time.Time) (int, error) {
	const countSQL = `
		SELECT COUNT(*) FROM mentions
		WHERE contract = $1 AND observed_at >= $2 AND observed_at < $3
	`
	var n int
	err := s.pool.QueryRow(ctx, countSQL, contract, since.UTC(), until.UTC()).Scan(&n)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: counting mentions: %v", ErrTransient, err)
	}
	return n, nil
}

// Purge deletes mentions observed before the given instant.
func (s *PostgresStore) Purge(ctx context.Context, before time.Time) (int, error) {
	const deleteSQL = `DELETE FROM mentions WHERE observed_at < $1`
	tag, err := s.pool.Exec(ctx, deleteSQL, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: purging mentions: %v", ErrTransient, err)
	}
	return int(tag.RowsAffected()), nil
}

// AppendAlertHistory inserts one audit row.
func (s *PostgresStore) AppendAlertHistory(ctx context.Context, entry models.AlertHistoryEntry) error {
	const insertSQL = `
		INSERT INTO alert_history (contract, chain, score, mentions, unique_conversations, velocity, alerted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, insertSQL, entry.Contract, entry.Chain, entry.Score, entry.Mentions, entry.UniqueConversations, entry.Velocity, entry.AlertedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: appending alert history: %v", ErrTransient, err)
	}
	return nil
}
