// =============================================================================
// Kasir - Check Command
// =============================================================================
//
// This file defines the 'check' command. It loads the configuration and opens
// the ledger exactly as 'serve' and 'submit' do, without writing anything.
//
// COMMAND USAGE:
//   kasir check
//
// CHECKS:
//   1. Configuration file and environment parse and validate
//   2. Credential bundle is present and well formed
//   3. Spreadsheet (or workbook) and worksheet can be opened
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/ledger"
)

// checkCmd represents the 'check' command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and ledger access without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context(), mainConfig)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, cfg *config.MainConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Println("=== Kasir Check ===")
	fmt.Printf("  ✓ Configuration: %s\n", cfgFile)
	fmt.Printf("    Studio:        %s (%s)\n", cfg.Studio.Name, cfg.Studio.Timezone)
	fmt.Printf("    Minimum price: %d\n", cfg.Form.MinPrice)

	if _, err := openLedger(ctx, cfg); err != nil {
		fmt.Printf("  ✗ Ledger:        %s\n", ledgerTarget(cfg.Ledger))
		var le *ledger.Error
		if errors.As(err, &le) {
			fmt.Printf("    %s\n", le.Summary())
		}
		return err
	}

	fmt.Printf("  ✓ Ledger:        %s (%s)\n", ledgerTarget(cfg.Ledger), cfg.Ledger.Backend)
	return nil
}
