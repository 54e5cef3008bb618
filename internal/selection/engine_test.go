package selection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/coursepick/internal/model"
)

func scenarioCatalog() []model.Course {
	return []model.Course{
		{ID: 1, Name: "Algorithms", Required: true, Credit: 10},
		{ID: 2, Name: "Databases", Required: false, Credit: 5},
		{ID: 3, Name: "Compilers", Required: false, Credit: 9},
	}
}

func loadedEngine(t *testing.T, courses []model.Course) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.LoadCatalog(courses))
	return e
}

func pendingIDs(e *Engine) []int64 {
	var ids []int64
	for _, c := range e.Pending() {
		ids = append(ids, c.ID)
	}
	return ids
}

func committedIDs(e *Engine) []int64 {
	var ids []int64
	for _, c := range e.Committed() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestToggleRejectsOverCap(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())

	res, err := e.ToggleCourse(1)
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Accepted: true, Removed: false, Total: 10}, res)

	res, err = e.ToggleCourse(2)
	require.NoError(t, err)
	assert.Equal(t, 15, res.Total)

	_, err = e.ToggleCourse(3)
	require.ErrorIs(t, err, ErrCreditCapExceeded)
	var capErr *CapError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 15, capErr.Total)
	assert.Equal(t, 9, capErr.Credit)
	assert.Equal(t, MaxCredits, capErr.Limit)

	assert.Equal(t, 15, e.Total())
	assert.Equal(t, []int64{2, 1}, pendingIDs(e))
}

func TestToggleTwiceRemoves(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())

	_, err := e.ToggleCourse(1)
	require.NoError(t, err)
	res, err := e.ToggleCourse(1)
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Accepted: true, Removed: true, Total: 0}, res)
	assert.Empty(t, e.Pending())
	assert.Equal(t, 0, e.Total())
}

func TestToggleRemovesFromAnyPosition(t *testing.T) {
	e := loadedEngine(t, []model.Course{
		{ID: 1, Credit: 3}, {ID: 2, Credit: 3}, {ID: 3, Credit: 3},
	})
	for _, id := range []int64{1, 2, 3} {
		_, err := e.ToggleCourse(id)
		require.NoError(t, err)
	}
	require.Equal(t, []int64{3, 2, 1}, pendingIDs(e))

	res, err := e.ToggleCourse(2)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, []int64{3, 1}, pendingIDs(e))
}

func TestDeclinedCommitKeepsState(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)
	_, err = e.ToggleCourse(2)
	require.NoError(t, err)

	calls := 0
	seen := -1
	res, err := e.RequestCommit(func(total int) bool {
		calls++
		seen = total
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Committed: false}, res)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 15, seen)
	assert.Equal(t, []int64{2, 1}, pendingIDs(e))
	assert.Equal(t, 15, e.Total())
	assert.Equal(t, Browsing, e.State())
	assert.Empty(t, e.Committed())
}

func TestConfirmedCommitIsTerminal(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)
	_, err = e.ToggleCourse(2)
	require.NoError(t, err)
	_, err = e.RequestCommit(func(int) bool { return false })
	require.NoError(t, err)

	res, err := e.RequestCommit(func(int) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Committed: true, FinalCredits: 15}, res)
	assert.Equal(t, []int64{2, 1}, committedIDs(e))
	assert.Empty(t, e.Pending())
	assert.Equal(t, 0, e.Total())
	assert.Equal(t, Committed, e.State())

	_, err = e.ToggleCourse(3)
	require.ErrorIs(t, err, ErrAlreadyCommitted)
	_, err = e.ToggleCourse(1)
	require.ErrorIs(t, err, ErrAlreadyCommitted)

	called := false
	_, err = e.RequestCommit(func(int) bool {
		called = true
		return true
	})
	require.ErrorIs(t, err, ErrAlreadyCommitted)
	assert.False(t, called)

	require.ErrorIs(t, e.LoadCatalog(scenarioCatalog()), ErrAlreadyCommitted)
	require.ErrorIs(t, e.RemoveCourse(1), ErrAlreadyCommitted)
	assert.Equal(t, []int64{2, 1}, committedIDs(e))
}

func TestCommitEmptySelection(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	res, err := e.RequestCommit(func(total int) bool {
		assert.Equal(t, 0, total)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Committed: true, FinalCredits: 0}, res)
	_, err = e.ToggleCourse(1)
	require.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestNilConfirmDeclines(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	res, err := e.RequestCommit(nil)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, Browsing, e.State())
}

func TestCreditBoundary(t *testing.T) {
	tests := []struct {
		name   string
		credit int
		wantOK bool
	}{
		{name: "exactly cap", credit: 18, wantOK: true},
		{name: "over cap", credit: 19, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadedEngine(t, []model.Course{{ID: 7, Name: "Thesis", Credit: tt.credit}})
			res, err := e.ToggleCourse(7)
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, tt.credit, res.Total)
				return
			}
			require.ErrorIs(t, err, ErrCreditCapExceeded)
			assert.Empty(t, e.Pending())
			assert.Equal(t, 0, e.Total())
		})
	}
}

func TestToggleUnknownCourse(t *testing.T) {
	e := New()
	_, err := e.ToggleCourse(1)
	require.ErrorIs(t, err, ErrUnknownCourse)
	assert.False(t, e.Loaded())

	e = loadedEngine(t, scenarioCatalog())
	_, err = e.ToggleCourse(42)
	require.ErrorIs(t, err, ErrUnknownCourse)
	assert.Empty(t, e.Pending())
}

func TestLoadCatalogValidation(t *testing.T) {
	tests := []struct {
		name    string
		courses []model.Course
	}{
		{name: "zero credit", courses: []model.Course{{ID: 1, Credit: 0}}},
		{name: "negative credit", courses: []model.Course{{ID: 1, Credit: -3}}},
		{name: "duplicate id", courses: []model.Course{{ID: 1, Credit: 3}, {ID: 1, Credit: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadedEngine(t, scenarioCatalog())
			_, err := e.ToggleCourse(2)
			require.NoError(t, err)

			err = e.LoadCatalog(tt.courses)
			require.ErrorIs(t, err, ErrInvalidCatalog)
			assert.Len(t, e.Catalog(), 3)
			assert.Equal(t, []int64{2}, pendingIDs(e))
		})
	}

	e := New()
	require.ErrorIs(t, e.LoadCatalog([]model.Course{{ID: 1, Credit: 0}}), ErrInvalidCatalog)
	assert.Empty(t, e.Catalog())
	assert.False(t, e.Loaded())
}

func TestReloadClearsPending(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)

	require.NoError(t, e.LoadCatalog([]model.Course{{ID: 9, Credit: 2}}))
	assert.Empty(t, e.Pending())
	assert.Equal(t, 0, e.Total())
	_, err = e.ToggleCourse(1)
	require.ErrorIs(t, err, ErrUnknownCourse)
	_, ok := e.Course(9)
	assert.True(t, ok)
}

func TestRemoveCoursePurgesPending(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)
	_, err = e.ToggleCourse(2)
	require.NoError(t, err)

	require.NoError(t, e.RemoveCourse(1))
	assert.Equal(t, []int64{2}, pendingIDs(e))
	assert.Equal(t, 5, e.Total())
	assert.Len(t, e.Catalog(), 2)
	_, ok := e.Course(1)
	assert.False(t, ok)

	require.ErrorIs(t, e.RemoveCourse(1), ErrUnknownCourse)

	// Freed credits can be used again.
	_, err = e.ToggleCourse(3)
	require.NoError(t, err)
	assert.Equal(t, 14, e.Total())
}

func TestSnapshotsAreCopies(t *testing.T) {
	e := loadedEngine(t, scenarioCatalog())
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)

	pending := e.Pending()
	pending[0].Credit = 99
	catalog := e.Catalog()
	catalog[0].Name = "changed"

	assert.Equal(t, 10, e.Total())
	c, _ := e.Course(1)
	assert.Equal(t, "Algorithms", c.Name)
	assert.Equal(t, "Algorithms", e.Catalog()[0].Name)
}

func TestToggleSequencesKeepInvariants(t *testing.T) {
	courses := make([]model.Course, 0, 12)
	for i := int64(1); i <= 12; i++ {
		courses = append(courses, model.Course{ID: i, Credit: int(i%6) + 1})
	}
	rnd := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		e := loadedEngine(t, courses)
		for step := 0; step < 100; step++ {
			id := int64(rnd.Intn(len(courses)) + 1)
			before := pendingIDs(e)
			beforeTotal := e.Total()

			res, err := e.ToggleCourse(id)
			if err != nil {
				require.ErrorIs(t, err, ErrCreditCapExceeded)
				require.Equal(t, before, pendingIDs(e))
				require.Equal(t, beforeTotal, e.Total())
				continue
			}
			require.Equal(t, res.Total, e.Total())

			pending := e.Pending()
			require.Equal(t, model.TotalCredits(pending), e.Total())
			require.LessOrEqual(t, e.Total(), MaxCredits)
			seen := map[int64]struct{}{}
			for _, c := range pending {
				_, dup := seen[c.ID]
				require.False(t, dup, "duplicate id %d", c.ID)
				seen[c.ID] = struct{}{}
			}

			if !res.Removed && rnd.Intn(2) == 0 {
				// Toggling back restores the exact prior sequence.
				_, err := e.ToggleCourse(id)
				require.NoError(t, err)
				require.Equal(t, before, pendingIDs(e))
				require.Equal(t, beforeTotal, e.Total())
			}
			if res.Removed && rnd.Intn(2) == 0 {
				// Re-adding puts the course back at the front.
				_, err := e.ToggleCourse(id)
				require.NoError(t, err)
				require.Equal(t, moveToFront(before, id), pendingIDs(e))
				require.Equal(t, beforeTotal, e.Total())
			}
		}
	}
}

func moveToFront(ids []int64, id int64) []int64 {
	out := []int64{id}
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func TestRemoveThenAddMovesToFront(t *testing.T) {
	e := loadedEngine(t, []model.Course{
		{ID: 1, Name: "Algorithms", Credit: 3},
		{ID: 2, Name: "Databases", Credit: 3},
		{ID: 3, Name: "Compilers", Credit: 3},
	})
	for _, id := range []int64{1, 2, 3} {
		_, err := e.ToggleCourse(id)
		require.NoError(t, err)
	}
	require.Equal(t, []int64{3, 2, 1}, pendingIDs(e))

	// Not at the head: the prior order is not restored.
	_, err := e.ToggleCourse(1)
	require.NoError(t, err)
	res, err := e.ToggleCourse(1)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, []int64{1, 3, 2}, pendingIDs(e))
	assert.Equal(t, 9, res.Total)

	// At the head: remove then add restores it exactly.
	_, err = e.ToggleCourse(1)
	require.NoError(t, err)
	_, err = e.ToggleCourse(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, pendingIDs(e))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "browsing", Browsing.String())
	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "state(5)", State(5).String())
}
