// Package controller wires presenter events to the selection engine and
// engine results back to the presenter.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/coursepick/internal/catalog"
	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/selection"
)

// Messages shown to the student.
const (
	CapMessage       = "You can only choose up to 18 credits in one semester"
	CanceledMessage  = "You canceled!"
	CommittedMessage = "Your selection has already been submitted"
	NotLoadedMessage = "Courses are still loading"
	RemovingMessage  = "Removal in progress, try again when it finishes"
)

// ErrRemoveUnsupported is returned when the catalog source cannot delete courses.
var ErrRemoveUnsupported = errors.New("catalog source does not support removing courses")

// Presenter renders engine state.
type Presenter interface {
	RenderCatalog(courses []model.Course)
	RenderSelection(courses []model.Course)
	RenderTotal(n int)
	Highlight(id int64, selected bool, parity int)
	Alert(msg string)
}

// Events are the user intents a presenter raises. I/O steps (Fetch,
// RemoteRemove) are split from the state steps so a presenter can run the
// former off its event loop and deliver the result back.
type Events interface {
	Fetch(ctx context.Context) ([]model.CourseDTO, error)
	CatalogLoaded(dtos []model.CourseDTO, err error) error
	CourseClicked(id int64) (selection.ToggleResult, error)
	CommitClicked(confirm func(total int) bool) (selection.CommitResult, error)
	RemoteRemove(ctx context.Context, id int64) error
	CourseRemoved(id int64, err error) error
}

// Controller implements Events.
type Controller struct {
	engine *selection.Engine
	view   Presenter
	source catalog.Source
	log    zerolog.Logger
}

// New builds a controller. view may be set later with SetPresenter.
func New(engine *selection.Engine, view Presenter, source catalog.Source, log zerolog.Logger) *Controller {
	return &Controller{engine: engine, view: view, source: source, log: log}
}

// SetPresenter attaches the presenter when it is built after the controller.
func (c *Controller) SetPresenter(view Presenter) {
	c.view = view
}

// ConfirmText is the prompt shown before committing.
func ConfirmText(total int) string {
	return fmt.Sprintf("You have chosen %d credits for this semester. You cannot change once you submit. Do you want to confirm?", total)
}

// Parity is the row parity used for striping.
func Parity(id int64) int {
	p := int(id % 2)
	if p < 0 {
		p = -p
	}
	return p
}

// Load fetches and loads the catalog synchronously.
func (c *Controller) Load(ctx context.Context) error {
	dtos, err := c.Fetch(ctx)
	return c.CatalogLoaded(dtos, err)
}

// Fetch implements Events.
func (c *Controller) Fetch(ctx context.Context) ([]model.CourseDTO, error) {
	return c.source.FetchCourses(ctx)
}

// CatalogLoaded implements Events.
func (c *Controller) CatalogLoaded(dtos []model.CourseDTO, err error) error {
	if err != nil {
		c.log.Error().Err(err).Msg("failed to fetch courses")
		c.view.Alert("Failed to load courses: " + err.Error())
		return fmt.Errorf("failed to fetch courses: %w", err)
	}
	if err := c.engine.LoadCatalog(model.ToCourses(dtos)); err != nil {
		c.log.Error().Err(err).Int("courses", len(dtos)).Msg("catalog rejected")
		c.view.Alert(alertFor(err))
		return err
	}
	c.log.Info().Int("courses", len(dtos)).Msg("catalog loaded")
	c.view.RenderCatalog(c.engine.Catalog())
	c.view.RenderTotal(c.engine.Total())
	return nil
}

// CourseClicked implements Events. Clicks that arrive before the catalog has
// loaded are dropped; the engine reports them as unknown courses.
func (c *Controller) CourseClicked(id int64) (selection.ToggleResult, error) {
	res, err := c.engine.ToggleCourse(id)
	if err != nil {
		if errors.Is(err, selection.ErrUnknownCourse) && !c.engine.Loaded() {
			c.log.Debug().Int64("course_id", id).Msg("toggle dropped before catalog load")
		} else {
			c.log.Warn().Err(err).Int64("course_id", id).Msg("toggle rejected")
		}
		c.view.Alert(c.alert(err))
		return res, err
	}
	c.log.Debug().Int64("course_id", id).Bool("removed", res.Removed).Int("total", res.Total).Msg("course toggled")
	c.view.Highlight(id, !res.Removed, Parity(id))
	c.view.RenderTotal(res.Total)
	return res, nil
}

// CommitClicked implements Events.
func (c *Controller) CommitClicked(confirm func(total int) bool) (selection.CommitResult, error) {
	pending := c.engine.Pending()
	res, err := c.engine.RequestCommit(confirm)
	if err != nil {
		c.log.Warn().Err(err).Msg("commit rejected")
		c.view.Alert(c.alert(err))
		return res, err
	}
	if !res.Committed {
		c.view.Alert(CanceledMessage)
		return res, nil
	}
	c.log.Info().Int("credits", res.FinalCredits).Int("courses", len(pending)).Msg("selection committed")
	for _, course := range pending {
		c.view.Highlight(course.ID, false, Parity(course.ID))
	}
	c.view.RenderSelection(c.engine.Committed())
	c.view.RenderTotal(res.FinalCredits)
	return res, nil
}

// RemoteRemove implements Events. It only talks to the source.
func (c *Controller) RemoteRemove(ctx context.Context, id int64) error {
	if c.engine.State() == selection.Committed {
		return selection.ErrAlreadyCommitted
	}
	if _, ok := c.engine.Course(id); !ok {
		return fmt.Errorf("%w: %d", selection.ErrUnknownCourse, id)
	}
	remover, ok := c.source.(catalog.Remover)
	if !ok {
		return ErrRemoveUnsupported
	}
	err := remover.RemoveCourse(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		// Already gone upstream; still purge it locally.
		return nil
	}
	return err
}

// CourseRemoved implements Events. A course removed from the source is also
// purged from the pending picks.
func (c *Controller) CourseRemoved(id int64, err error) error {
	if err == nil {
		err = c.engine.RemoveCourse(id)
	}
	if err != nil {
		c.log.Warn().Err(err).Int64("course_id", id).Msg("remove failed")
		c.view.Alert(c.alert(err))
		return err
	}
	c.log.Info().Int64("course_id", id).Msg("course removed")
	c.view.RenderCatalog(c.engine.Catalog())
	for _, course := range c.engine.Pending() {
		c.view.Highlight(course.ID, true, Parity(course.ID))
	}
	c.view.RenderTotal(c.engine.Total())
	return nil
}

// RemoveClicked removes a course synchronously.
func (c *Controller) RemoveClicked(ctx context.Context, id int64) error {
	return c.CourseRemoved(id, c.RemoteRemove(ctx, id))
}

func (c *Controller) alert(err error) string {
	if errors.Is(err, selection.ErrUnknownCourse) && !c.engine.Loaded() {
		return NotLoadedMessage
	}
	return alertFor(err)
}

func alertFor(err error) string {
	switch {
	case errors.Is(err, selection.ErrCreditCapExceeded):
		return CapMessage
	case errors.Is(err, selection.ErrAlreadyCommitted):
		return CommittedMessage
	default:
		return err.Error()
	}
}
