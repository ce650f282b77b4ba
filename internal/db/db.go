package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/session"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// SessionRecord stores one session as a jsonb document.
type SessionRecord struct {
	bun.BaseModel `bun:"table:study_sessions,alias:s"`
	ID            string           `bun:"id,pk"`
	State         *session.Session `bun:"state,type:jsonb,notnull"`
	ExpiresAt     time.Time        `bun:"expires_at,notnull"`
	UpdatedAt     time.Time        `bun:"updated_at,notnull"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with pgdriver, or lib/pq when the driver is
// set to "postgres".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}
	switch cfg.Driver {
	case "postgres":
		return sql.Open("postgres", cfg.DSN)
	case "pgdriver", "":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*SessionRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	n, err := PurgeExpired(ctx, db, time.Now().UTC())
	if err != nil {
		return err
	}
	log.Debug().Int64("purged", n).Msg("Expired sessions removed")
	return nil
}

// PurgeExpired deletes sessions whose expiry is before now.
func PurgeExpired(ctx context.Context, db *bun.DB, now time.Time) (int64, error) {
	res, err := db.NewDelete().Model((*SessionRecord)(nil)).Where("expires_at < ?", now).Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// drop table study_sessions
func DropSessions(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*SessionRecord)(nil)).IfExists().Exec(ctx)
	return err
}

// PostgresStore implements session.Store on top of bun.
type PostgresStore struct {
	db  *bun.DB
	ttl time.Duration
}

func NewPostgresStore(db *bun.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*session.Session, error) {
	rec := new(SessionRecord)
	err := p.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("get session", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return nil, apperrors.NotFound("get session", nil)
	}
	return rec.State, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *session.Session) error {
	if _, err := p.upsert(s, time.Now().UTC()).Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *PostgresStore) upsert(s *session.Session, now time.Time) *bun.InsertQuery {
	rec := &SessionRecord{
		ID:        s.ID,
		State:     s,
		ExpiresAt: now.Add(p.ttl),
		UpdatedAt: now,
	}
	return p.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("state = EXCLUDED.state").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at")
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := p.db.NewDelete().Model((*SessionRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("delete session", nil)
	}
	return nil
}

func (p *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := p.db.NewSelect().
		Model((*SessionRecord)(nil)).
		Where("id = ?", id).
		Where("expires_at > ?", time.Now().UTC()).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return ok, nil
}

// Sweep deletes expired rows.
func (p *PostgresStore) Sweep(ctx context.Context) (int, error) {
	n, err := PurgeExpired(ctx, p.db, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return int(n), nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
