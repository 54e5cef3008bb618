// Package catalog provides the sources courses are fetched from.
package catalog

import (
	"context"
	"errors"

	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/store"
)

// ErrNotFound is returned when a source has no course with the requested id.
var ErrNotFound = errors.New("course not found in catalog source")

// Source fetches the list of available courses.
type Source interface {
	FetchCourses(ctx context.Context) ([]model.CourseDTO, error)
}

// Remover is implemented by sources that can delete a course.
type Remover interface {
	RemoveCourse(ctx context.Context, id int64) error
}

// StoreSource serves the catalog from the local SQLite store.
type StoreSource struct {
	store *store.Store
}

// NewStoreSource wraps an open store.
func NewStoreSource(st *store.Store) *StoreSource {
	return &StoreSource{store: st}
}

// FetchCourses implements Source.
func (s *StoreSource) FetchCourses(ctx context.Context) ([]model.CourseDTO, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	return model.FromCourses(courses), nil
}

// RemoveCourse implements Remover.
func (s *StoreSource) RemoveCourse(ctx context.Context, id int64) error {
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// StaticSource returns a fixed list. It is handy for tests and demos.
type StaticSource struct {
	Courses []model.CourseDTO
	Err     error
}

// FetchCourses implements Source.
func (s StaticSource) FetchCourses(context.Context) ([]model.CourseDTO, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]model.CourseDTO(nil), s.Courses...), nil
}
