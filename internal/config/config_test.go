package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kasir.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}

	if cfg.Studio.Name != "DORY INK BALI" {
		t.Fatalf("studio name = %q", cfg.Studio.Name)
	}
	if cfg.Ledger.Backend != BackendSheets {
		t.Fatalf("backend = %q, want %q", cfg.Ledger.Backend, BackendSheets)
	}
	if cfg.Ledger.SpreadsheetName != "Data Kasir Studio" || cfg.Ledger.Worksheet != "Transaksi" {
		t.Fatalf("ledger target = %q/%q", cfg.Ledger.SpreadsheetName, cfg.Ledger.Worksheet)
	}
	if cfg.Ledger.Timeout != 30*time.Second {
		t.Fatalf("timeout = %s, want 30s", cfg.Ledger.Timeout)
	}
	if cfg.Form.MinPrice != 50000 {
		t.Fatalf("min price = %d, want 50000", cfg.Form.MinPrice)
	}
	if cfg.Receipt.FilePrefix != "Struk" {
		t.Fatalf("file prefix = %q", cfg.Receipt.FilePrefix)
	}
	if cfg.Studio.Location().String() != "Asia/Makassar" {
		t.Fatalf("location = %s", cfg.Studio.Location())
	}
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
studio:
  name: TEST INK
ledger:
  backend: xlsx
  workbook_path: /tmp/ledger.xlsx
  worksheet: Sales
  timeout: 5s
form:
  min_price: 100000
receipt:
  date_subdirs: true
server:
  addr: 127.0.0.1:9000
  cors_origins: ["http://localhost:3000"]
log_level: debug
`)

	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}

	if cfg.Studio.Name != "TEST INK" {
		t.Fatalf("studio name = %q", cfg.Studio.Name)
	}
	if cfg.Studio.Address == "" {
		t.Fatal("expected default address to fill unset field")
	}
	if cfg.Ledger.Backend != BackendXLSX || cfg.Ledger.Worksheet != "Sales" {
		t.Fatalf("ledger = %+v", cfg.Ledger)
	}
	if cfg.Ledger.Timeout != 5*time.Second {
		t.Fatalf("timeout = %s, want 5s", cfg.Ledger.Timeout)
	}
	if cfg.Form.MinPrice != 100000 {
		t.Fatalf("min price = %d", cfg.Form.MinPrice)
	}
	if !cfg.Receipt.DateSubdirs {
		t.Fatal("date_subdirs not read from file")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadMainConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "ledger:\n  worksheet: FromFile\n")
	t.Setenv("KASIR_LEDGER_WORKSHEET", "FromEnv")
	t.Setenv("KASIR_SERVICE_ACCOUNT", `{"type":"service_account"}`)
	t.Setenv("KASIR_FORM_MIN_PRICE", "75000")

	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.Ledger.Worksheet != "FromEnv" {
		t.Fatalf("worksheet = %q, want FromEnv", cfg.Ledger.Worksheet)
	}
	if cfg.Ledger.CredentialsJSON == "" {
		t.Fatal("expected credentials from environment")
	}
	if cfg.Form.MinPrice != 75000 {
		t.Fatalf("min price = %d, want 75000", cfg.Form.MinPrice)
	}
}

func TestLoadMainConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "backend", body: "ledger:\n  backend: csv\n", want: "unknown ledger backend"},
		{name: "min price", body: "form:\n  min_price: -5\n", want: "min_price"},
		{name: "timezone", body: "studio:\n  timezone: Mars/Olympus\n", want: "timezone"},
		{name: "log level", body: "log_level: loud\n", want: "log level"},
		{name: "yaml", body: "studio: [\n", want: "failed to parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
