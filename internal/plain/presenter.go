// Package plain renders selection state as text for non-interactive use.
package plain

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/verte-zerg/coursepick/internal/controller"
	"github.com/verte-zerg/coursepick/internal/model"
)

// Presenter writes renders to an io.Writer. Write errors are kept and
// reported by Err so callers can check once at the end.
type Presenter struct {
	out   io.Writer
	names map[int64]string
	err   error
}

// NewPresenter returns a presenter writing to out.
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out, names: map[int64]string{}}
}

// Err returns the first write error.
func (p *Presenter) Err() error {
	return p.err
}

// RenderCatalog implements controller.Presenter.
func (p *Presenter) RenderCatalog(courses []model.Course) {
	p.names = make(map[int64]string, len(courses))
	for _, c := range courses {
		p.names[c.ID] = c.Name
	}
	p.writeLines(CourseTable(courses))
}

// RenderSelection implements controller.Presenter.
func (p *Presenter) RenderSelection(courses []model.Course) {
	p.printf("Selected courses:\n")
	if len(courses) == 0 {
		p.printf("  (none)\n")
		return
	}
	p.writeLines(CourseTable(courses))
}

// RenderTotal implements controller.Presenter.
func (p *Presenter) RenderTotal(n int) {
	p.printf("Total credit: %d\n", n)
}

// Highlight implements controller.Presenter.
func (p *Presenter) Highlight(id int64, selected bool, _ int) {
	mark := "-"
	if selected {
		mark = "+"
	}
	name := p.names[id]
	if name == "" {
		name = "course " + strconv.FormatInt(id, 10)
	}
	p.printf("%s %s\n", mark, name)
}

// Alert implements controller.Presenter.
func (p *Presenter) Alert(msg string) {
	p.printf("! %s\n", msg)
}

func (p *Presenter) writeLines(lines []string) {
	for _, line := range lines {
		p.printf("%s\n", line)
	}
}

func (p *Presenter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.err = err
	}
}

// CourseTable formats courses as aligned rows with a header.
func CourseTable(courses []model.Course) []string {
	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			c.Kind(),
			strconv.Itoa(c.Credit),
		})
	}
	return formatTable([]string{"ID", "Course", "Type", "Credit"}, rows, map[int]bool{0: true, 3: true})
}

// Confirmer answers the commit prompt. On a terminal it asks with a huh
// confirm; otherwise it returns AssumeYes.
type Confirmer struct {
	AssumeYes   bool
	Interactive bool
	// Prompt overrides the interactive prompt, mainly for tests.
	Prompt func(title string) (bool, error)
}

// NewConfirmer detects whether stdin is a terminal.
func NewConfirmer(assumeYes bool) *Confirmer {
	return &Confirmer{AssumeYes: assumeYes, Interactive: IsTerminal(os.Stdin)}
}

// Confirm is passed to the engine as the commit predicate.
func (c *Confirmer) Confirm(total int) bool {
	if c.AssumeYes || !c.Interactive {
		return c.AssumeYes
	}
	prompt := c.Prompt
	if prompt == nil {
		prompt = huhPrompt
	}
	ok, err := prompt(controller.ConfirmText(total))
	if err != nil {
		return false
	}
	return ok
}

func huhPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Submit").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
