// Package store handles SQLite persistence of the course catalog.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/verte-zerg/coursepick/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a course id has no row.
var ErrNotFound = errors.New("course not found")

// Store wraps SQLite access for catalog data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			required INTEGER NOT NULL,
			credit INTEGER NOT NULL CHECK (credit > 0)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCourses swaps the whole catalog in one transaction.
func (s *Store) ReplaceCourses(ctx context.Context, courses []model.Course) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return err
	}
	if err = insertCourses(ctx, tx, courses); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertCourses inserts or updates courses by id.
func (s *Store) UpsertCourses(ctx context.Context, courses []model.Course) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = insertCourses(ctx, tx, courses); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCourses(ctx context.Context, tx *sql.Tx, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO courses (id, name, required, credit) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, required = excluded.required, credit = excluded.credit`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, c := range courses {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Required, c.Credit); err != nil {
			return err
		}
	}
	return nil
}

// ListCourses returns the catalog ordered by id.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, required, credit FROM courses ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Required, &c.Credit); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourse returns one course by id.
func (s *Store) GetCourse(ctx context.Context, id int64) (model.Course, error) {
	var c model.Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, required, credit FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Required, &c.Credit)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, ErrNotFound
	}
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// DeleteCourse removes a course by id.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCourses returns the number of stored courses.
func (s *Store) CountCourses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
