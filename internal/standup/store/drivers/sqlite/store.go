package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every repository works
// inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// The answers batch insert relies on a single connection seeing its own
	// transaction; in-memory databases additionally require it.
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Rollback is a no-op after a successful commit.
	defer func() { _ = tx.Rollback() }()

	if err := fn(newTx(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Configs() store.Configs               { return &configsRepo{db: s.db} }
func (s *Store) Instances() store.Instances           { return &instancesRepo{db: s.db} }
func (s *Store) Members() store.Members               { return &membersRepo{db: s.db} }
func (s *Store) Answers() store.Answers               { return &answersRepo{db: s.db} }
func (s *Store) WorkspaceLinks() store.WorkspaceLinks { return &workspaceLinksRepo{db: s.db} }

func mapNotFound(err error) error {
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	return err
}

// mapConflict translates the engine's uniqueness violation onto the store
// sentinel. modernc/sqlite reports these as extended-result-code messages.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func encodeQuestions(qs []string) (string, error) {
	raw, err := json.Marshal(qs)
	return string(raw), err
}

func decodeQuestions(raw string) ([]string, error) {
	var qs []string
	err := json.Unmarshal([]byte(raw), &qs)
	return qs, err
}

func encodeSnapshot(s domain.ConfigSnapshot) (string, error) {
	raw, err := json.Marshal(s)
	return string(raw), err
}

func decodeSnapshot(raw string) (domain.ConfigSnapshot, error) {
	var s domain.ConfigSnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}

func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(raw string) []time.Weekday {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
