package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/coursepick/internal/catalog"
	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := store.Open(filepath.Join(t.TempDir(), "coursepick.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	require.NoError(t, st.ReplaceCourses(context.Background(), []model.Course{
		{ID: 1, Name: "Algorithms", Required: true, Credit: 4},
		{ID: 2, Name: "Art", Credit: 2},
	}))
	return NewRouter(st, zerolog.Nop()), st
}

func TestListCourses(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courseList", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.CourseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []model.CourseDTO{
		{CourseID: 1, CourseName: "Algorithms", Required: true, Credit: 4},
		{CourseID: 2, CourseName: "Art", Credit: 2},
	}, got)
}

func TestGetAndDeleteCourse(t *testing.T) {
	router, st := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courseList/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"courseId":2,"courseName":"Art","required":false,"credit":2}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/courseList/2", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	n, err := st.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/courseList/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courseList/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPSourceAgainstRouter(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	src := catalog.NewHTTPSource(srv.URL)
	ctx := context.Background()
	courses, err := src.FetchCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	require.NoError(t, src.RemoveCourse(ctx, 1))
	require.ErrorIs(t, src.RemoveCourse(ctx, 1), catalog.ErrNotFound)

	courses, err = src.FetchCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(2), courses[0].CourseID)
}
