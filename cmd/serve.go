// =============================================================================
// Kasir - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the operator form and the
// JSON API until interrupted.
//
// COMMAND USAGE:
//   kasir serve [flags]
//
// FLAGS:
//   --addr : Listen address (overrides server.addr)
//
// STARTUP:
//   The ledger is opened once. If that fails the server still starts: every
//   submission is answered with the startup error and /healthz reports the
//   ledger as degraded, so the operator sees the problem on the form.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/internal/server"
)

// addr overrides the configured listen address.
var addr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transaction form over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := mainConfig
	if addr != "" {
		cfg.Server.Addr = addr
	}

	var ledgerErr error
	w, err := openLedger(ctx, cfg)
	if err != nil {
		ledgerErr = err
		w = ledger.Unavailable{Err: err}
		logger.Error().Err(err).
			Str("target", ledgerTarget(cfg.Ledger)).
			Msg("ledger unavailable, submissions will fail until restart")
	} else {
		logger.Info().
			Str("backend", cfg.Ledger.Backend).
			Str("target", ledgerTarget(cfg.Ledger)).
			Msg("ledger ready")
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(server.Options{
		Checkout:    newCheckout(cfg, w, logger),
		StudioName:  cfg.Studio.Name,
		Location:    cfg.Studio.Location(),
		MinPrice:    cfg.Form.MinPrice,
		LedgerErr:   ledgerErr,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	return server.Run(ctx, cfg.Server.Addr, router, cfg.Ledger.Timeout+5*time.Second, logger)
}
