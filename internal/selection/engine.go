// Package selection holds the course selection state: the loaded catalog,
// the in-progress picks and the committed, final selection.
package selection

import (
	"fmt"
	"sync"

	"github.com/verte-zerg/coursepick/internal/model"
)

// MaxCredits is the per-semester credit cap for pending picks.
const MaxCredits = 18

// State is the engine lifecycle state.
type State int

const (
	// Browsing accepts toggles and commit requests.
	Browsing State = iota
	// Committed is terminal.
	Committed
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ToggleResult describes an accepted toggle.
type ToggleResult struct {
	Accepted bool
	Removed  bool
	Total    int
}

// CommitResult describes the outcome of a commit request.
type CommitResult struct {
	Committed    bool
	FinalCredits int
}

// Engine enforces the credit cap and the one-way commit transition.
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	catalog   []model.Course
	byID      map[int64]model.Course
	loaded    bool
	pending   []model.Course
	committed []model.Course
	state     State
}

// New returns an engine in the Browsing state with an empty catalog.
func New() *Engine {
	return &Engine{byID: map[int64]model.Course{}}
}

// LoadCatalog replaces the catalog and clears pending picks. An invalid
// catalog is rejected and the previous one is kept.
func (e *Engine) LoadCatalog(courses []model.Course) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Committed {
		return ErrAlreadyCommitted
	}
	byID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		if c.Credit <= 0 {
			return fmt.Errorf("%w: course %d has non-positive credit %d", ErrInvalidCatalog, c.ID, c.Credit)
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("%w: duplicate course id %d", ErrInvalidCatalog, c.ID)
		}
		byID[c.ID] = c
	}
	e.catalog = append([]model.Course(nil), courses...)
	e.byID = byID
	e.pending = nil
	e.loaded = true
	return nil
}

// ToggleCourse adds the course to the front of the pending picks, or removes
// it if already picked. Adding fails when the cap would be exceeded.
func (e *Engine) ToggleCourse(id int64) (ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Committed {
		return ToggleResult{}, ErrAlreadyCommitted
	}
	course, ok := e.byID[id]
	if !ok {
		return ToggleResult{}, fmt.Errorf("%w: %d", ErrUnknownCourse, id)
	}

	if idx := e.pendingIndex(id); idx >= 0 {
		e.pending = append(e.pending[:idx:idx], e.pending[idx+1:]...)
		return ToggleResult{Accepted: true, Removed: true, Total: e.total()}, nil
	}

	current := e.total()
	if current+course.Credit > MaxCredits {
		return ToggleResult{}, &CapError{
			CourseID: id,
			Total:    current,
			Credit:   course.Credit,
			Limit:    MaxCredits,
		}
	}
	next := make([]model.Course, 0, len(e.pending)+1)
	next = append(next, course)
	e.pending = append(next, e.pending...)
	return ToggleResult{Accepted: true, Removed: false, Total: e.total()}, nil
}

// Total returns the sum of pending credits.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total()
}

// RequestCommit asks confirm once with the current total. On true the pending
// picks become the committed selection and the engine stops accepting changes.
// confirm runs under the engine lock and must not call back into the engine.
func (e *Engine) RequestCommit(confirm func(total int) bool) (CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Committed {
		return CommitResult{}, ErrAlreadyCommitted
	}
	total := e.total()
	if confirm == nil || !confirm(total) {
		return CommitResult{Committed: false}, nil
	}
	e.committed = e.pending
	e.pending = nil
	e.state = Committed
	return CommitResult{Committed: true, FinalCredits: total}, nil
}

// RemoveCourse drops a course from the catalog and from the pending picks.
func (e *Engine) RemoveCourse(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Committed {
		return ErrAlreadyCommitted
	}
	if _, ok := e.byID[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCourse, id)
	}
	delete(e.byID, id)
	for i, c := range e.catalog {
		if c.ID == id {
			e.catalog = append(e.catalog[:i:i], e.catalog[i+1:]...)
			break
		}
	}
	if idx := e.pendingIndex(id); idx >= 0 {
		e.pending = append(e.pending[:idx:idx], e.pending[idx+1:]...)
	}
	return nil
}

// Catalog returns a copy of the loaded catalog in load order.
func (e *Engine) Catalog() []model.Course {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Course(nil), e.catalog...)
}

// Pending returns a copy of the pending picks, most recent first.
func (e *Engine) Pending() []model.Course {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Course(nil), e.pending...)
}

// Committed returns a copy of the committed selection.
func (e *Engine) Committed() []model.Course {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Course(nil), e.committed...)
}

// Course looks up a catalog course by id.
func (e *Engine) Course(id int64) (model.Course, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.byID[id]
	return c, ok
}

// IsPending reports whether the course is among the pending picks.
func (e *Engine) IsPending(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingIndex(id) >= 0
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Loaded reports whether a catalog has been loaded.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Engine) total() int {
	return model.TotalCredits(e.pending)
}

func (e *Engine) pendingIndex(id int64) int {
	for i, c := range e.pending {
		if c.ID == id {
			return i
		}
	}
	return -1
}
