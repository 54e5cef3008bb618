// Package server exposes the stored catalog over HTTP in the wire format the
// HTTP catalog source consumes.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/coursepick/internal/catalog"
	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/store"
)

// CourseStore is the subset of the store the server needs.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CourseController handles course routes.
type CourseController struct {
	store CourseStore
	log   zerolog.Logger
}

// NewCourseController creates a CourseController.
func NewCourseController(st CourseStore, log zerolog.Logger) *CourseController {
	return &CourseController{store: st, log: log}
}

// NewRouter builds the gin engine with all catalog routes.
func NewRouter(st CourseStore, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	c := NewCourseController(st, log)
	courses := router.Group("/" + catalog.CoursePath)
	{
		courses.GET("", c.ListCourses)
		courses.GET("/:id", c.GetCourse)
		courses.DELETE("/:id", c.DeleteCourse)
	}
	return router
}

// ListCourses returns the whole catalog.
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.store.ListCourses(ctx.Request.Context())
	if err != nil {
		c.internalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, model.FromCourses(courses))
}

// GetCourse returns one course.
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	course, err := c.store.GetCourse(ctx.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "course not found"})
		return
	}
	if err != nil {
		c.internalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, model.FromCourse(course))
}

// DeleteCourse removes one course.
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	err := c.store.DeleteCourse(ctx.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "course not found"})
		return
	}
	if err != nil {
		c.internalError(ctx, err)
		return
	}
	c.log.Info().Int64("course_id", id).Msg("course deleted")
	ctx.Status(http.StatusNoContent)
}

func (c *CourseController) internalError(ctx *gin.Context, err error) {
	c.log.Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
	ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid course id"})
		return 0, false
	}
	return id, true
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Debug().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Run serves router on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, router http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("catalog server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
