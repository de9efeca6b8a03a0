package domain

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Rendered columns: checkbox, latest retry, queue, job, arguments, error.
const (
	jobClassColumn = 3
	minColumns     = jobClassColumn + 2
)

// PageScanner extracts job rows from the rendered table.
type PageScanner struct {
	reader RowReader
	logger *slog.Logger
}

// NewPageScanner creates a scanner over a row reader.
func NewPageScanner(reader RowReader, logger *slog.Logger) *PageScanner {
	if logger == nil {
		logger = discardLogger()
	}
	return &PageScanner{reader: reader, logger: logger}
}

// Scan reads the current rows. Rows without a separate error cell are
// skipped and counted. An empty result means the page has no jobs left.
func (s *PageScanner) Scan(ctx context.Context) (rows []JobRow, skipped int, err error) {
	cells, err := s.reader.ReadRows(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows = make([]JobRow, 0, len(cells))
	for i, row := range cells {
		if len(row) < minColumns {
			s.logger.Warn("skipping malformed row", "row", i, "cells", len(row))
			skipped++
			continue
		}
		rows = append(rows, JobRow{
			Index:     i,
			JobClass:  strings.TrimSpace(row[jobClassColumn]),
			ErrorText: strings.TrimSpace(row[len(row)-1]),
		})
	}
	return rows, skipped, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
