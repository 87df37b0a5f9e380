package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories over one connection or transaction.
type Store struct {
	db   *sql.DB
	inTx bool

	Users       *UserRepository
	Profiles    *ProfileRepository
	Codes       *CodeRepository
	Courses     *CourseRepository
	Categories  *CategoryRepository
	Sections    *SectionRepository
	SubSections *SubSectionRepository
	Ratings     *RatingRepository
	Progress    *ProgressRepository
	Assets      *AssetRepository
}

func New(db *sql.DB) *Store {
	return newStore(db, db, false)
}

func newStore(db *sql.DB, q DBTX, inTx bool) *Store {
	return &Store{
		db:          db,
		inTx:        inTx,
		Users:       NewUserRepository(q),
		Profiles:    NewProfileRepository(q),
		Codes:       NewCodeRepository(q),
		Courses:     NewCourseRepository(q),
		Categories:  NewCategoryRepository(q),
		Sections:    NewSectionRepository(q),
		SubSections: NewSubSectionRepository(q),
		Ratings:     NewRatingRepository(q),
		Progress:    NewProgressRepository(q),
		Assets:      NewAssetRepository(q),
	}
}

// InTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Calls
// nested inside a transaction reuse it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(newStore(s.db, tx, true)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func queryIDs(ctx context.Context, q DBTX, query string, args ...any) ([]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}
