package domain

import (
	"context"
	"fmt"
	"slices"
)

// job builds a six-cell rendered row.
func job(class, errText string) []string {
	return []string{"", "  1 hour ago ", " default ", " " + class + " ", " [1] ", "\n  " + errText + "\n"}
}

// fakeConsole simulates the dead job console. Each page holds a backing list
// of jobs of which only the first pageSize are rendered, so removing rows
// reveals rows that were previously hidden.
type fakeConsole struct {
	pages    map[int][][]string
	current  int
	pageSize int
	lastPage int

	selected   map[int]bool
	submitErrs []error

	lastPageErr error
	openErrs    map[int]error
	readErr     error
	selectErr   error

	opened  []int
	submits []Action
	selects int
	acted   map[Action][]string
}

func newFakeConsole(rows ...[]string) *fakeConsole {
	return &fakeConsole{
		pages:    map[int][][]string{1: rows},
		current:  1,
		lastPage: 1,
		selected: make(map[int]bool),
		openErrs: make(map[int]error),
		acted:    make(map[Action][]string),
	}
}

func (f *fakeConsole) visible() [][]string {
	rows := f.pages[f.current]
	if f.pageSize > 0 && len(rows) > f.pageSize {
		return rows[:f.pageSize]
	}
	return rows
}

func (f *fakeConsole) ReadRows(ctx context.Context) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([][]string, 0, len(f.visible()))
	for _, row := range f.visible() {
		out = append(out, slices.Clone(row))
	}
	return out, nil
}

func (f *fakeConsole) Select(ctx context.Context, index int) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	if index < 0 || index >= len(f.visible()) {
		return fmt.Errorf("no row %d", index)
	}
	f.selects++
	f.selected[index] = true
	return nil
}

func (f *fakeConsole) SubmitBulk(ctx context.Context, action Action) error {
	f.submits = append(f.submits, action)
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			// The page did not reload, so checkboxes stay ticked.
			return err
		}
	}

	var kept [][]string
	for i, row := range f.pages[f.current] {
		if f.selected[i] {
			f.acted[action] = append(f.acted[action], row[len(row)-1])
			continue
		}
		kept = append(kept, row)
	}
	f.pages[f.current] = kept
	f.selected = make(map[int]bool)
	return nil
}

func (f *fakeConsole) Open(ctx context.Context, page int) error {
	f.opened = append(f.opened, page)
	if err := f.openErrs[page]; err != nil {
		return err
	}
	f.current = page
	f.selected = make(map[int]bool)
	return nil
}

func (f *fakeConsole) LastPage(ctx context.Context) (int, error) {
	if f.lastPageErr != nil {
		return 0, f.lastPageErr
	}
	return f.lastPage, nil
}
