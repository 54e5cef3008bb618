package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCatalog reports a rejected catalog load.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrUnknownCourse reports an id that is not in the loaded catalog.
	ErrUnknownCourse = errors.New("unknown course")
	// ErrCreditCapExceeded reports a toggle that would exceed MaxCredits.
	ErrCreditCapExceeded = errors.New("credit cap exceeded")
	// ErrAlreadyCommitted reports a mutating call after the selection was committed.
	ErrAlreadyCommitted = errors.New("selection already committed")
)

// CapError carries the numbers behind a rejected toggle.
type CapError struct {
	CourseID int64
	Total    int
	Credit   int
	Limit    int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("%s: course %d adds %d credits to %d (limit %d)",
		ErrCreditCapExceeded, e.CourseID, e.Credit, e.Total, e.Limit)
}

// Unwrap lets errors.Is match ErrCreditCapExceeded.
func (e *CapError) Unwrap() error {
	return ErrCreditCapExceeded
}
