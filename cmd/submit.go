// =============================================================================
// Kasir - Submit Command
// =============================================================================
//
// This file defines the 'submit' command, which records one transaction from
// the terminal and saves its receipt to the output directory.
//
// COMMAND USAGE:
//   kasir submit --name "John Doe" --service Medium --payment Card \
//                --price 100000 --artist-share 45 --confirm
//
// FLAGS:
//   --name         : Client name (required)
//   --date         : Transaction date, YYYY-MM-DD or DD/MM/YYYY (default today)
//   --service      : Small, Medium or Big
//   --payment      : Cash, Card or Transfer
//   --price        : Price in Rupiah, "100000" or "100.000"
//   --artist-share : Artist commission percent (40-70 in steps of 5)
//   --confirm      : Confirm the transaction has been checked
//   --output-dir   : Receipt directory (overrides receipt.output_dir)
//   --date-subdirs : Group receipts in YYYY/MM/DD subdirectories
//
// ORDER:
//   The submission is validated before the ledger is opened, so a rejected
//   transaction never touches the spreadsheet or the workbook file.
//
// EXIT STATUS:
//   0 when the row was saved and the receipt written, 1 otherwise.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doryinkbali/kasir/internal/checkout"
	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/types"
	"github.com/doryinkbali/kasir/internal/validation"
	"github.com/doryinkbali/kasir/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// submitOptions holds the flags of one submit run.
type submitOptions struct {
	name        string
	date        string
	service     string
	payment     string
	price       string
	artistShare int
	confirm     bool
	outputDir   string
	dateSubdirs bool
}

var submitFlags submitOptions

// errNotSaved reports a submission rejected by the form rules.
var errNotSaved = errors.New("transaction not saved")

// submitCmd represents the 'submit' command.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record one transaction and save its receipt",
	Long: `The submit command validates one transaction, appends it to the ledger and
writes the PDF receipt to the receipt directory.

Nothing is retried. Running the same command twice records two rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd.Context(), mainConfig, submitFlags)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	f := submitCmd.Flags()
	f.StringVar(&submitFlags.name, "name", "", "Client name")
	f.StringVar(&submitFlags.date, "date", "", "Transaction date (default today in the studio time zone)")
	f.StringVar(&submitFlags.service, "service", string(types.ServiceSmall), "Tattoo size: Small, Medium or Big")
	f.StringVar(&submitFlags.payment, "payment", string(types.PaymentCash), "Payment method: Cash, Card or Transfer")
	f.StringVar(&submitFlags.price, "price", "", "Tattoo price in Rupiah")
	f.IntVar(&submitFlags.artistShare, "artist-share", 50, "Artist share percent")
	f.BoolVar(&submitFlags.confirm, "confirm", false, "Confirm the transaction has been checked")
	f.StringVar(&submitFlags.outputDir, "output-dir", "", "Receipt directory (default from receipt.output_dir)")
	f.BoolVar(&submitFlags.dateSubdirs, "date-subdirs", false, "Group receipts in YYYY/MM/DD subdirectories (default from receipt.date_subdirs)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runSubmit(ctx context.Context, cfg *config.MainConfig, opts submitOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// STEP 1: READ FLAGS
	// =========================================================================

	dateText := opts.date
	if dateText == "" {
		dateText = time.Now().In(cfg.Studio.Location()).Format("2006-01-02")
	}

	var parseErrs []*validation.ValidationError
	date, verr := validation.ParseDate("date", dateText)
	if verr != nil {
		parseErrs = append(parseErrs, verr)
	}
	price, verr := validation.ParsePrice("price", opts.price)
	if verr != nil {
		parseErrs = append(parseErrs, verr)
	}

	sub := types.Submission{
		CustomerName:       opts.name,
		Date:               date,
		ServiceType:        types.ServiceType(opts.service),
		PaymentMethod:      types.PaymentMethod(opts.payment),
		Price:              price,
		ArtistSharePercent: opts.artistShare,
		Confirmed:          opts.confirm,
	}

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	_, warnings := newValidator(cfg).Validate(sub)
	if len(parseErrs) > 0 || len(warnings) > 0 {
		fmt.Println(checkout.Result{Status: checkout.StatusInvalid}.Message())
		fmt.Println(validation.FormatErrors(validation.MergeErrors(parseErrs, warnings)))
		return errNotSaved
	}

	// =========================================================================
	// STEP 3: OPEN LEDGER
	// =========================================================================
	// A terminal session has nobody to show a degraded form to, so a ledger
	// that cannot be opened ends the command.

	w, err := openLedger(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ledger %s: %w", ledgerTarget(cfg.Ledger), err)
	}

	// =========================================================================
	// STEP 4: SUBMIT
	// =========================================================================

	res := newCheckout(cfg, w, logger).Submit(ctx, sub)

	fmt.Println(res.Message())

	switch res.Status {
	case checkout.StatusInvalid:
		fmt.Println(validation.FormatErrors(res.Warnings))
		return errNotSaved
	case checkout.StatusCredentialFailed, checkout.StatusLedgerFailed:
		return res.Err
	}

	printRow(res.Row)

	if res.Status == checkout.StatusReceiptFailed {
		return res.Err
	}

	// =========================================================================
	// STEP 5: SAVE RECEIPT
	// =========================================================================

	outputDir := cfg.Receipt.OutputDir
	if opts.outputDir != "" {
		outputDir = opts.outputDir
	}

	fm := utils.NewFileManager(outputDir)
	fm.UseTimestampSubdirs = cfg.Receipt.DateSubdirs || opts.dateSubdirs
	if err := fm.EnsureDirectories(); err != nil {
		return fmt.Errorf("transaction saved, receipt not written: %w", err)
	}

	path, err := fm.WriteReceipt(res.Receipt.FileName, res.Receipt.Data)
	if err != nil {
		return fmt.Errorf("transaction saved, receipt not written: %w", err)
	}

	fmt.Printf("  ✓ Receipt: %s\n", path)
	logger.Info().Str("submission_id", res.ID).Str("path", path).Msg("receipt saved")

	return nil
}

func printRow(row types.Row) {
	fmt.Printf("  Date:         %s\n", row.Date)
	fmt.Printf("  Client Name:  %s\n", row.CustomerName)
	fmt.Printf("  Tattoo Type:  %s\n", row.ServiceType)
	fmt.Printf("  Payment:      %s\n", row.PaymentMethod)
	fmt.Printf("  Tattoo Price: %s\n", row.Price)
	fmt.Printf("  Artist Price: %s\n", row.ArtistPrice)
}
