package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"timeclock/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// WorkbookGateway keeps the ledger in a local or network-share .xlsx file
// with the same worksheets as the spreadsheet.
type WorkbookGateway struct {
	path       string
	worksheets Worksheets
	mu         sync.Mutex
	logger     *zerolog.Logger
}

// NewWorkbookGateway opens path, creating the workbook and any missing
// worksheet with its header row.
func NewWorkbookGateway(path string, ws Worksheets, logger *zerolog.Logger) (*WorkbookGateway, error) {
	if ws == (Worksheets{}) {
		ws = DefaultWorksheets()
	}
	g := &WorkbookGateway{path: path, worksheets: ws, logger: logger}
	if err := g.init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *WorkbookGateway) init() error {
	var f *excelize.File
	created := false
	if _, err := os.Stat(g.path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
			return fmt.Errorf("create workbook directory: %w", err)
		}
		f = excelize.NewFile()
		created = true
	} else {
		f, err = excelize.OpenFile(g.path)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
	}
	defer f.Close()

	sheets := []struct {
		name    string
		headers []string
	}{
		{g.worksheets.Events, EventHeaders},
		{g.worksheets.Subjects, SubjectHeaders},
		{g.worksheets.Activities, ActivityHeaders},
		{g.worksheets.Orders, OrderHeaders},
	}
	for i, s := range sheets {
		idx, err := f.GetSheetIndex(s.name)
		if err != nil {
			return fmt.Errorf("workbook sheet %s: %w", s.name, err)
		}
		if idx >= 0 {
			continue
		}
		if created && i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		header := headerRow(s.headers)
		if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
			return fmt.Errorf("write header %s: %w", s.name, err)
		}
	}

	if created {
		return f.SaveAs(g.path)
	}
	return f.Save()
}

func (g *WorkbookGateway) readRows(sheet string) ([][]interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := excelize.OpenFile(g.path)
	if err != nil {
		return nil, unavailable("open workbook", err)
	}
	defer f.Close()

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, unavailable("read "+sheet, err)
	}
	rows := make([][]interface{}, len(raw))
	for i, r := range raw {
		row := make([]interface{}, len(r))
		for j, c := range r {
			row[j] = c
		}
		rows[i] = row
	}
	return rows, nil
}

func (g *WorkbookGateway) FindEvents(_ context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error) {
	rows, err := g.readRows(g.worksheets.Events)
	if err != nil {
		return nil, err
	}
	return decodeEvents(rows, subjectID, date), nil
}

// Append writes the row below the last used row and saves the workbook.
func (g *WorkbookGateway) Append(_ context.Context, event models.WorkEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := excelize.OpenFile(g.path)
	if err != nil {
		return unavailable("open workbook", err)
	}
	defer f.Close()

	rows, err := f.GetRows(g.worksheets.Events)
	if err != nil {
		return unavailable("read events", err)
	}
	cell, err := appendCell(len(rows))
	if err != nil {
		return err
	}
	values := eventRowValues(event)
	if err := f.SetSheetRow(g.worksheets.Events, cell, &values); err != nil {
		return unavailable("write row", err)
	}
	if err := f.Save(); err != nil {
		return unavailable("save workbook", err)
	}

	g.logger.Debug().
		Str("subject_id", event.SubjectID).
		Str("cell", cell).
		Msg("workbook row appended")
	return nil
}

func (g *WorkbookGateway) Subjects(_ context.Context) ([]models.Subject, error) {
	rows, err := g.readRows(g.worksheets.Subjects)
	if err != nil {
		return nil, err
	}
	return decodeSubjects(rows), nil
}

func (g *WorkbookGateway) Activities(_ context.Context) ([]models.Activity, error) {
	rows, err := g.readRows(g.worksheets.Activities)
	if err != nil {
		return nil, err
	}
	return decodeActivities(rows), nil
}

func (g *WorkbookGateway) Orders(_ context.Context) ([]models.Order, error) {
	rows, err := g.readRows(g.worksheets.Orders)
	if err != nil {
		return nil, err
	}
	return decodeOrders(rows), nil
}

// appendCell names the first cell of the row after the last of rows.
func appendCell(rows int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(1, rows+1)
	if err != nil {
		return "", fmt.Errorf("append cell after row %d: %w", rows, err)
	}
	return cell, nil
}
