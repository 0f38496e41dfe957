// =============================================================================
// Kasir - Local Workbook Ledger
// =============================================================================
//
// This backend appends rows to a worksheet of a local .xlsx workbook. It has
// the same append-only contract as the Sheets backend and is used when the
// studio has no network, or on a bench with no service account.
//
// WORKBOOK LAYOUT:
//
//   | Column A    | Column B   | Column C    | Column D | Column E     | Column F     |
//   |-------------|------------|-------------|----------|--------------|--------------|
//   | Client Name | Date       | Tattoo Type | Payment  | Tattoo Price | Artist Price |
//   | John Doe    | 05/03/2024 | Medium Tattoo | Card   | Rp100.000    | Rp45.000     |
//
// The header row is written only when the workbook or worksheet is created.
// Existing workbooks are appended to as they are.
//
// =============================================================================

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/doryinkbali/kasir/internal/types"
)

// HeaderRow is written to a freshly created worksheet.
var HeaderRow = []string{
	"Client Name",
	"Date",
	"Tattoo Type",
	"Payment",
	"Tattoo Price",
	"Artist Price",
}

// Workbook appends rows to one worksheet of a local .xlsx file.
// The file is reopened for every append so edits made in a spreadsheet
// program between submissions are kept.
type Workbook struct {
	mu        sync.Mutex
	path      string
	worksheet string
}

// OpenWorkbook prepares path for appending, creating the workbook and the
// worksheet when either is missing.
//
// PARAMETERS:
//   - path: The .xlsx file.
//   - worksheet: The worksheet that receives the rows.
//
// RETURNS:
//   - The Workbook ledger.
//   - A KindNotFound error if the directory does not exist, KindRemote for
//     any other file error.
func OpenWorkbook(path, worksheet string) (*Workbook, error) {
	if strings.TrimSpace(worksheet) == "" {
		return nil, &Error{Kind: KindNotFound, Op: "open", Err: errors.New("worksheet name is empty")}
	}

	w := &Workbook{path: path, worksheet: worksheet}

	f, err := w.openOrCreate()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := w.ensureWorksheet(f); err != nil {
		return nil, err
	}

	if err := f.SaveAs(path); err != nil {
		return nil, workbookError("open", err)
	}

	return w, nil
}

// Append writes row below the last used row of the worksheet.
func (w *Workbook) Append(ctx context.Context, row types.Row) error {
	if err := ctx.Err(); err != nil {
		return classify("append", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return workbookError("append", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(w.worksheet); idx < 0 {
		return &Error{
			Kind: KindNotFound,
			Op:   "append",
			Err:  fmt.Errorf("worksheet %q not found in %s", w.worksheet, w.path),
		}
	}

	rows, err := f.GetRows(w.worksheet)
	if err != nil {
		return workbookError("append", fmt.Errorf("failed to read rows: %w", err))
	}

	// GetRows drops trailing empty rows, so len(rows) is the last used row.
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return workbookError("append", err)
	}

	if err := f.SetSheetRow(w.worksheet, cell, toCells(row.Values())); err != nil {
		return workbookError("append", err)
	}

	if err := f.Save(); err != nil {
		return workbookError("append", err)
	}

	return nil
}

// rows returns every row of the worksheet, header included.
func (w *Workbook) rows() ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, workbookError("read", err)
	}
	defer f.Close()

	rows, err := f.GetRows(w.worksheet)
	if err != nil {
		return nil, workbookError("read", err)
	}
	return rows, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// openOrCreate opens the workbook, or returns a new one when the file does
// not exist yet. A new workbook's default sheet is renamed to the worksheet.
func (w *Workbook) openOrCreate() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, workbookError("open", err)
	}

	if _, statErr := os.Stat(filepath.Dir(w.path)); statErr != nil {
		return nil, workbookError("open", statErr)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), w.worksheet); err != nil {
		f.Close()
		return nil, workbookError("open", err)
	}
	if err := f.SetSheetRow(w.worksheet, "A1", toCells(HeaderRow)); err != nil {
		f.Close()
		return nil, workbookError("open", err)
	}
	return f, nil
}

// ensureWorksheet adds the worksheet, with its header row, if it is missing.
func (w *Workbook) ensureWorksheet(f *excelize.File) error {
	if idx, _ := f.GetSheetIndex(w.worksheet); idx >= 0 {
		return nil
	}

	if _, err := f.NewSheet(w.worksheet); err != nil {
		return workbookError("open", err)
	}
	if err := f.SetSheetRow(w.worksheet, "A1", toCells(HeaderRow)); err != nil {
		return workbookError("open", err)
	}
	return nil
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}

func workbookError(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	if errors.Is(err, fs.ErrPermission) {
		return &Error{Kind: KindPermission, Op: op, Err: err}
	}
	return classify(op, err)
}
