// =============================================================================
// Kasir - Main Entry Point
// =============================================================================
//
// This is the main entry point for the tattoo studio cashier. It initializes
// the Cobra CLI framework and delegates command execution to the cmd package.
//
// USAGE:
//   kasir serve       - Run the operator form over HTTP
//   kasir submit      - Record one transaction from the terminal
//   kasir check       - Verify configuration and ledger access
//   kasir version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (validation, ledger, receipt, checkout)
//   - pkg/           : Shared utilities
//
// =============================================================================

package main

import (
	// The studio time zone must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/doryinkbali/kasir/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
