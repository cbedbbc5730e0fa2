package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/models"
)

// WorkbookSource serves grids from a local XLSX export of the spreadsheet.
// The file is reopened on every call so edits show up on the next fetch.
type WorkbookSource struct {
	path   string
	logger *logrus.Logger
}

func NewWorkbookSource(path string, logger *logrus.Logger) *WorkbookSource {
	return &WorkbookSource{path: path, logger: logger}
}

func (w *WorkbookSource) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceError{Err: ErrNotFound, Message: w.path}
		}
		return nil, &SourceError{Err: ErrUnavailable, Message: err.Error()}
	}
	return f, nil
}

func (w *WorkbookSource) FetchGrid(ctx context.Context, sheet, rangeSpec string) (models.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &SourceError{
			Sheet:     sheet,
			Range:     rangeSpec,
			Err:       ErrInvalidRange,
			Message:   fmt.Sprintf("Unable to parse range: %s", A1Range(sheet, rangeSpec)),
			Available: f.GetSheetList(),
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &SourceError{Sheet: sheet, Err: ErrUnavailable, Message: err.Error()}
	}

	grid := crop(rows, rangeSpec)
	w.logger.WithFields(logrus.Fields{
		"sheet": sheet,
		"rows":  len(grid),
		"file":  w.path,
	}).Debug("Read workbook sheet")
	return grid, nil
}

func (w *WorkbookSource) ListSheetNames(ctx context.Context) ([]string, error) {
	f, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// crop keeps the cells of an "A1:Z1000" range. Cells keep their text; empty
// cells become nil. A range that does not parse keeps everything.
func crop(rows [][]string, rangeSpec string) models.Grid {
	startCol, startRow, endCol, endRow := 1, 1, -1, -1
	if from, to, ok := strings.Cut(rangeSpec, ":"); ok {
		c1, r1, err1 := excelize.CellNameToCoordinates(strings.TrimSpace(from))
		c2, r2, err2 := excelize.CellNameToCoordinates(strings.TrimSpace(to))
		if err1 == nil && err2 == nil {
			startCol, startRow, endCol, endRow = c1, r1, c2, r2
		}
	}

	var grid models.Grid
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < startRow {
			continue
		}
		if endRow > 0 && rowNum > endRow {
			break
		}

		last := len(row)
		if endCol > 0 && endCol < last {
			last = endCol
		}
		out := make([]interface{}, 0, max(last-startCol+1, 0))
		for c := startCol - 1; c < last; c++ {
			if row[c] == "" {
				out = append(out, nil)
				continue
			}
			out = append(out, row[c])
		}
		grid = append(grid, out)
	}
	return grid
}
