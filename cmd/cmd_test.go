package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/pkg/utils"
)

func TestMain(m *testing.M) {
	logger = zerolog.Nop()
	os.Exit(m.Run())
}

// xlsxConfig returns the default configuration writing to a workbook and a
// receipt directory inside dir.
func xlsxConfig(t *testing.T, dir string) *config.MainConfig {
	t.Helper()

	cfg, err := config.LoadMainConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	cfg.Ledger.Backend = config.BackendXLSX
	cfg.Ledger.WorkbookPath = filepath.Join(dir, "ledger.xlsx")
	cfg.Ledger.Worksheet = "Transaksi"
	cfg.Receipt.OutputDir = filepath.Join(dir, "receipts")
	cfg.Receipt.FilePrefix = "Struk"
	cfg.Receipt.DateSubdirs = false
	cfg.Form.MinPrice = 50000
	return cfg
}

func validOptions() submitOptions {
	return submitOptions{
		name:        "John Doe",
		service:     "Medium",
		payment:     "Card",
		price:       "100.000",
		artistShare: 45,
		confirm:     true,
	}
}

func workbookRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transaksi")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func receiptFiles(t *testing.T, pattern string) []string {
	t.Helper()

	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return files
}

func TestRunSubmitWritesRowAndReceipt(t *testing.T) {
	dir := t.TempDir()
	cfg := xlsxConfig(t, dir)

	if err := runSubmit(context.Background(), cfg, validOptions()); err != nil {
		t.Fatalf("runSubmit: %v", err)
	}

	rows := workbookRows(t, cfg.Ledger.WorkbookPath)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	got := strings.Join(rows[1], "|")
	if !strings.HasPrefix(got, "John Doe|") || !strings.HasSuffix(got, "|Medium Tattoo|Card|Rp100.000|Rp45.000") {
		t.Fatalf("row = %v", rows[1])
	}

	files := receiptFiles(t, filepath.Join(cfg.Receipt.OutputDir, "*.pdf"))
	if len(files) != 1 || !strings.HasPrefix(filepath.Base(files[0]), "Struk_John_Doe_") {
		t.Fatalf("receipts = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read receipt: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatal("receipt is not a PDF")
	}
}

func TestRunSubmitTwiceKeepsBothReceipts(t *testing.T) {
	dir := t.TempDir()
	cfg := xlsxConfig(t, dir)

	for i := 0; i < 2; i++ {
		if err := runSubmit(context.Background(), cfg, validOptions()); err != nil {
			t.Fatalf("runSubmit %d: %v", i, err)
		}
	}

	if rows := workbookRows(t, cfg.Ledger.WorkbookPath); len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if files := receiptFiles(t, filepath.Join(cfg.Receipt.OutputDir, "*.pdf")); len(files) != 2 {
		t.Fatalf("receipts = %v, want 2", files)
	}
}

func TestRunSubmitInvalidTouchesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*submitOptions)
	}{
		{name: "blank name", mutate: func(o *submitOptions) { o.name = "   " }},
		{name: "unconfirmed", mutate: func(o *submitOptions) { o.confirm = false }},
		{name: "below minimum", mutate: func(o *submitOptions) { o.price = "10000" }},
		{name: "unreadable date", mutate: func(o *submitOptions) { o.date = "yesterday" }},
		{name: "future date", mutate: func(o *submitOptions) { o.date = "2999-01-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := xlsxConfig(t, dir)
			opts := validOptions()
			tt.mutate(&opts)

			err := runSubmit(context.Background(), cfg, opts)

			if !errors.Is(err, errNotSaved) {
				t.Fatalf("err = %v, want errNotSaved", err)
			}
			if utils.FileExists(cfg.Ledger.WorkbookPath) {
				t.Fatal("workbook created for a rejected submission")
			}
			if utils.FileExists(cfg.Receipt.OutputDir) {
				t.Fatal("receipt directory created for a rejected submission")
			}
		})
	}
}

func TestRunSubmitValidatesBeforeCredentials(t *testing.T) {
	cfg := xlsxConfig(t, t.TempDir())
	cfg.Ledger.Backend = config.BackendSheets
	cfg.Ledger.CredentialsJSON = ""
	cfg.Ledger.CredentialsFile = ""

	opts := validOptions()
	opts.name = ""

	err := runSubmit(context.Background(), cfg, opts)

	if !errors.Is(err, errNotSaved) {
		t.Fatalf("err = %v, want the validation failure", err)
	}
	if ledger.KindOf(err) == ledger.KindCredentials {
		t.Fatal("credentials were resolved before validation")
	}
}

func TestRunSubmitLedgerFailureWritesNoReceipt(t *testing.T) {
	dir := t.TempDir()
	cfg := xlsxConfig(t, dir)
	cfg.Ledger.WorkbookPath = filepath.Join(dir, "missing", "ledger.xlsx")

	err := runSubmit(context.Background(), cfg, validOptions())

	if err == nil {
		t.Fatal("expected a ledger error")
	}
	if ledger.KindOf(err) != ledger.KindNotFound {
		t.Fatalf("kind = %s (%v)", ledger.KindOf(err), err)
	}
	if files := receiptFiles(t, filepath.Join(cfg.Receipt.OutputDir, "*.pdf")); len(files) != 0 {
		t.Fatalf("receipts written after ledger failure: %v", files)
	}
}

func TestRunSubmitDateSubdirs(t *testing.T) {
	tests := []struct {
		name   string
		config bool
		flag   bool
	}{
		{name: "config", config: true},
		{name: "flag", flag: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := xlsxConfig(t, t.TempDir())
			cfg.Receipt.DateSubdirs = tt.config
			opts := validOptions()
			opts.dateSubdirs = tt.flag

			if err := runSubmit(context.Background(), cfg, opts); err != nil {
				t.Fatalf("runSubmit: %v", err)
			}

			if files := receiptFiles(t, filepath.Join(cfg.Receipt.OutputDir, "*.pdf")); len(files) != 0 {
				t.Fatalf("receipt written to the top level: %v", files)
			}
			if files := receiptFiles(t, filepath.Join(cfg.Receipt.OutputDir, "*", "*", "*", "*.pdf")); len(files) != 1 {
				t.Fatalf("receipts = %v, want one under YYYY/MM/DD", files)
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()

	cfg := xlsxConfig(t, dir)
	if err := runCheck(context.Background(), cfg); err != nil {
		t.Fatalf("runCheck: %v", err)
	}

	cfg.Ledger.WorkbookPath = filepath.Join(dir, "missing", "ledger.xlsx")
	if err := runCheck(context.Background(), cfg); ledger.KindOf(err) != ledger.KindNotFound {
		t.Fatalf("kind = %s (%v)", ledger.KindOf(err), err)
	}
}
