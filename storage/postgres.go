package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"pricepipe/utils"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repository functions can
// run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store owns the single PostgreSQL handle used by a run.
type Store struct {
	db     *sql.DB
	logger *utils.Logger
}

// Open connects to PostgreSQL and waits for it to answer a ping.
func Open(ctx context.Context, dsn string, logger *utils.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return NewStore(db, logger), nil
}

// NewStore wraps an already-open handle.
func NewStore(db *sql.DB, logger *utils.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB returns the underlying handle for read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx runs fn inside one transaction. It commits only when fn returns nil and
// rolls back everything otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("[postgres] rollback failed: %v", rbErr)
			} else {
				s.logger.Warn("[postgres] transaction rolled back")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
