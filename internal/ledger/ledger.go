// =============================================================================
// Kasir - Ledger Writer
// =============================================================================
//
// The ledger is the external, append-only table that records one row per
// transaction. This package formats a validated transaction into its display
// row and appends it to one of two backends:
//
//   | Backend | Storage                               | Use                  |
//   |---------|---------------------------------------|----------------------|
//   | sheets  | Google Sheets spreadsheet + worksheet | the studio's ledger  |
//   | xlsx    | local .xlsx workbook + worksheet      | development, bench   |
//
// GUARANTEES:
//   - One append is one remote call. There are no retries.
//   - There is no idempotency key: submitting twice appends two rows.
//   - Every failure is an *Error carrying its Kind.
//
// =============================================================================

package ledger

import (
	"context"
	"fmt"

	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/types"
)

// Writer appends rows to the ledger.
type Writer interface {
	Append(ctx context.Context, row types.Row) error
}

// Open builds the Writer selected by cfg.Backend. It is meant to be called
// once at process start; the returned Writer holds only the session handle.
//
// PARAMETERS:
//   - ctx: bounds credential resolution and the spreadsheet lookup.
//   - cfg: the ledger section of the main configuration.
func Open(ctx context.Context, cfg config.LedgerConfig) (Writer, error) {
	switch cfg.Backend {
	case config.BackendSheets:
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		sl, err := OpenSheets(ctx, SheetsOptions{
			SpreadsheetName: cfg.SpreadsheetName,
			SpreadsheetID:   cfg.SpreadsheetID,
			Worksheet:       cfg.Worksheet,
			Credentials:     creds,
		})
		if err != nil {
			return nil, err
		}
		return sl, nil
	case config.BackendXLSX:
		wb, err := OpenWorkbook(cfg.WorkbookPath, cfg.Worksheet)
		if err != nil {
			return nil, err
		}
		return wb, nil
	default:
		return nil, &Error{
			Kind: KindCredentials,
			Op:   "open",
			Err:  fmt.Errorf("unknown ledger backend %q", cfg.Backend),
		}
	}
}

// =============================================================================
// UNAVAILABLE LEDGER
// =============================================================================

// Unavailable is a Writer standing in for a ledger that failed to open.
// A long-running server uses it so that the failure is reported on every
// submission instead of taking the whole process down.
type Unavailable struct {
	Err error
}

// Append always fails with the startup error.
func (u Unavailable) Append(context.Context, types.Row) error {
	return classify("open", u.Err)
}
