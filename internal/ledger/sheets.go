// =============================================================================
// Kasir - Google Sheets Ledger
// =============================================================================
//
// This backend appends rows to a worksheet inside a Google Sheets document.
//
// SESSION SETUP (once, at process start):
//   1. Parse the service account credential bundle
//   2. Resolve the spreadsheet: by ID, or by title through the Drive API
//   3. Check that the worksheet exists in that spreadsheet
//
// APPEND (once per submission):
//   values.append on the worksheet range with RAW input, so the formatted
//   text ("Rp100.000", "05/03/2024") lands in the sheet exactly as shown on
//   the receipt.
//
// =============================================================================

package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/types"
)

// Scopes requested for the service account: spreadsheet data and the
// file-level API used to find the spreadsheet by title.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveScope,
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsOptions addresses a worksheet and carries the credential bundle.
type SheetsOptions struct {
	// SpreadsheetName is looked up through Drive when SpreadsheetID is empty.
	SpreadsheetName string
	SpreadsheetID   string
	Worksheet       string

	// Credentials is a service account JSON key.
	Credentials []byte

	// ClientOptions replace the credential-based options when set.
	ClientOptions []option.ClientOption
}

// SheetsLedger appends rows to one worksheet of one spreadsheet.
type SheetsLedger struct {
	sheets        *sheets.Service
	spreadsheetID string
	worksheet     string
}

// loadCredentials returns the credential bundle from the environment or from
// the configured file.
func loadCredentials(cfg config.LedgerConfig) ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}

	if cfg.CredentialsFile == "" {
		return nil, &Error{
			Kind: KindCredentials,
			Op:   "credentials",
			Err:  errors.New("no credential bundle configured (set KASIR_SERVICE_ACCOUNT or ledger.credentials_file)"),
		}
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, &Error{Kind: KindCredentials, Op: "credentials", Err: err}
	}
	return data, nil
}

// OpenSheets authenticates, resolves the spreadsheet and checks the worksheet.
func OpenSheets(ctx context.Context, opts SheetsOptions) (*SheetsLedger, error) {
	clientOptions := opts.ClientOptions
	if len(clientOptions) == 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.Credentials, Scopes...)
		if err != nil {
			return nil, &Error{Kind: KindCredentials, Op: "credentials", Err: err}
		}
		clientOptions = []option.ClientOption{option.WithCredentials(creds)}
	}

	sheetsService, err := sheets.NewService(ctx, clientOptions...)
	if err != nil {
		return nil, classify("open", fmt.Errorf("sheets client: %w", err))
	}

	id := opts.SpreadsheetID
	if id == "" {
		driveService, err := drive.NewService(ctx, clientOptions...)
		if err != nil {
			return nil, classify("open", fmt.Errorf("drive client: %w", err))
		}
		id, err = findSpreadsheet(ctx, driveService, opts.SpreadsheetName)
		if err != nil {
			return nil, err
		}
	}

	if err := checkWorksheet(ctx, sheetsService, id, opts.Worksheet); err != nil {
		return nil, err
	}

	return &SheetsLedger{
		sheets:        sheetsService,
		spreadsheetID: id,
		worksheet:     opts.Worksheet,
	}, nil
}

// findSpreadsheet returns the ID of the first spreadsheet titled name.
func findSpreadsheet(ctx context.Context, svc *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), spreadsheetMimeType)

	list, err := svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("open", fmt.Errorf("find spreadsheet %q: %w", name, err))
	}

	if len(list.Files) == 0 {
		return "", &Error{
			Kind: KindNotFound,
			Op:   "open",
			Err:  fmt.Errorf("spreadsheet %q not found or not shared with the service account", name),
		}
	}

	return list.Files[0].Id, nil
}

// checkWorksheet fails with KindNotFound when the spreadsheet has no tab
// titled worksheet.
func checkWorksheet(ctx context.Context, svc *sheets.Service, spreadsheetID, worksheet string) error {
	doc, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return classify("open", fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, err))
	}

	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == worksheet {
			return nil
		}
	}

	return &Error{
		Kind: KindNotFound,
		Op:   "open",
		Err:  fmt.Errorf("worksheet %q not found in spreadsheet %s", worksheet, spreadsheetID),
	}
}

// Append writes row as a new last row of the worksheet.
func (l *SheetsLedger) Append(ctx context.Context, row types.Row) error {
	values := make([]interface{}, 0, 6)
	for _, v := range row.Values() {
		values = append(values, v)
	}

	_, err := l.sheets.Spreadsheets.Values.
		Append(l.spreadsheetID, worksheetRange(l.worksheet), &sheets.ValueRange{
			Values: [][]interface{}{values},
		}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classify("append", err)
	}

	return nil
}

// worksheetRange quotes a worksheet title for use as an A1 range.
func worksheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// escapeQuery escapes a value for a Drive query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
