package domain

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestPageScanner_Scan(t *testing.T) {
	console := newFakeConsole(
		job(LinkCrawlWorker, "SomeOtherError: x"),
		job(RedownloadMediaWorker, "HTTP::TimeoutError: connection reset"),
	)
	s := NewPageScanner(console, nil)

	rows, skipped, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	want := []JobRow{
		{Index: 0, JobClass: LinkCrawlWorker, ErrorText: "SomeOtherError: x"},
		{Index: 1, JobClass: RedownloadMediaWorker, ErrorText: "HTTP::TimeoutError: connection reset"},
	}
	if !slices.Equal(rows, want) {
		t.Errorf("Scan() = %+v, want %+v", rows, want)
	}
}

func TestPageScanner_EmptyTable(t *testing.T) {
	s := NewPageScanner(newFakeConsole(), nil)

	rows, skipped, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(rows) != 0 || skipped != 0 {
		t.Errorf("Scan() = %d rows, %d skipped, want none", len(rows), skipped)
	}
}

func TestPageScanner_SkipsMalformedRows(t *testing.T) {
	console := newFakeConsole(
		[]string{"", "now", "default", LinkCrawlWorker},
		job(LinkCrawlWorker, "NoMethodError: boom"),
	)
	s := NewPageScanner(console, nil)

	rows, skipped, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	// Index keeps the rendered position so selection hits the right row.
	if rows[0].Index != 1 {
		t.Errorf("Index = %d, want 1", rows[0].Index)
	}
}

func TestPageScanner_ReadError(t *testing.T) {
	console := newFakeConsole()
	console.readErr = errors.New("node detached")
	s := NewPageScanner(console, nil)

	if _, _, err := s.Scan(context.Background()); !errors.Is(err, console.readErr) {
		t.Errorf("Scan() error = %v, want %v", err, console.readErr)
	}
}
