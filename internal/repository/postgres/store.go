// Package postgres implements the repository contract on PostgreSQL using
// sqlx and lib/pq.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/repository"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Store is the PostgreSQL backed repository.Store.
type Store struct {
	db     *sqlx.DB
	ext    sqlx.ExtContext
	tx     *sqlx.Tx
	logger *zap.Logger
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, ext: db, logger: logger}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Users() repository.UserRepository { return &userRepository{store: s} }
func (s *Store) ClassTypes() repository.ClassTypeRepository { return &classTypeRepository{store: s} }
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepository{store: s} }
func (s *Store) Packages() repository.PackageRepository { return &packageRepository{store: s} }
func (s *Store) Purchases() repository.PurchaseRepository { return &purchaseRepository{store: s} }
func (s *Store) Availability() repository.AvailabilityRepository { return &availabilityRepository{store: s} }
func (s *Store) Blockouts() repository.BlockoutRepository { return &blockoutRepository{store: s} }
func (s *Store) Progress() repository.ProgressRepository { return &progressRepository{store: s} }
func (s *Store) Settings() repository.SettingsRepository { return &settingsRepository{store: s} }

// WithinTx implements repository.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.atomic(ctx, func(tx *sqlx.Tx) error {
		return fn(&Store{db: s.db, ext: tx, tx: tx, logger: s.logger})
	})
}

// atomic runs fn in the current transaction or a new one.
func (s *Store) atomic(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

func rowsAffected(result interface{ RowsAffected() (int64, error) }) int64 {
	n, err := result.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
