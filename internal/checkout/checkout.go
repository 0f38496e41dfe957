// =============================================================================
// Kasir - Checkout Workflow
// =============================================================================
//
// This module runs one submission through the whole pipeline. It is the only
// place that knows the order of the steps.
//
// PIPELINE:
//   1. Validate the submission (no external calls on failure)
//   2. Format the ledger row
//   3. Append the row to the ledger (bounded by the ledger timeout)
//   4. Render the receipt from the same row
//
// OUTCOMES:
//
//   | Status           | Ledger row | Receipt | Operator sees                     |
//   |------------------|------------|---------|-----------------------------------|
//   | Completed        | yes        | yes     | success + download                |
//   | Invalid          | no         | no      | one warning per violated rule     |
//   | CredentialFailed | no         | no      | credentials problem               |
//   | LedgerFailed     | no         | no      | "not saved" + reason              |
//   | ReceiptFailed    | yes        | no      | "saved, but no receipt"           |
//
// CONCURRENCY:
//   A Service holds no per-submission state and may be shared by concurrent
//   HTTP requests. Two submissions of the same data append two rows.
//
// =============================================================================

package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/internal/receipt"
	"github.com/doryinkbali/kasir/internal/types"
	"github.com/doryinkbali/kasir/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Status is the outcome of a submission.
type Status int

const (
	StatusCompleted Status = iota
	StatusInvalid
	StatusCredentialFailed
	StatusLedgerFailed
	StatusReceiptFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInvalid:
		return "invalid"
	case StatusCredentialFailed:
		return "credential_failed"
	case StatusLedgerFailed:
		return "ledger_failed"
	case StatusReceiptFailed:
		return "receipt_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result represents the outcome of processing a single submission.
type Result struct {
	// ID correlates the log lines of one submission. It is never written to
	// the ledger.
	ID string

	Status Status

	// Warnings holds one entry per violated rule when Status is StatusInvalid.
	Warnings []*validation.ValidationError

	// Row is the ledger row. It is set once validation passed.
	Row types.Row

	// Receipt is set only when Status is StatusCompleted.
	Receipt *receipt.Document

	// Err is the diagnostic error for the failure statuses.
	Err error

	// Duration is the time spent in Submit.
	Duration time.Duration
}

// Saved reports whether the ledger row was written.
func (r Result) Saved() bool {
	return r.Status == StatusCompleted || r.Status == StatusReceiptFailed
}

// Downloadable reports whether a receipt can be offered.
func (r Result) Downloadable() bool {
	return r.Status == StatusCompleted && r.Receipt != nil
}

// Message is the one-line summary shown to the operator.
func (r Result) Message() string {
	switch r.Status {
	case StatusCompleted:
		return "Transaction saved. The receipt is ready to download."
	case StatusInvalid:
		return "The form has errors. Nothing was saved."
	case StatusCredentialFailed:
		return "Could not connect to the ledger. Nothing was saved. " + ledgerSummary(r.Err)
	case StatusLedgerFailed:
		return "The transaction was NOT saved. " + ledgerSummary(r.Err)
	case StatusReceiptFailed:
		return "The transaction was saved, but the receipt could not be generated. Do not submit it again."
	default:
		return "Unknown result."
	}
}

func ledgerSummary(err error) string {
	var le *ledger.Error
	if errors.As(err, &le) {
		return le.Summary()
	}
	return "The ledger rejected the request."
}

// =============================================================================
// SERVICE STRUCTURE
// =============================================================================

// Service runs submissions against one ledger and one receipt renderer.
type Service struct {
	validator     *validation.Validator
	ledger        ledger.Writer
	renderer      receipt.Renderer
	ledgerTimeout time.Duration
	logger        zerolog.Logger
	newID         func() string
}

// Options configures a Service.
type Options struct {
	Validator *validation.Validator
	Ledger    ledger.Writer
	Renderer  receipt.Renderer

	// LedgerTimeout bounds each append. Zero means no extra bound.
	LedgerTimeout time.Duration

	Logger zerolog.Logger
}

// New creates a new Service instance.
func New(opts Options) *Service {
	return &Service{
		validator:     opts.Validator,
		ledger:        opts.Ledger,
		renderer:      opts.Renderer,
		ledgerTimeout: opts.LedgerTimeout,
		logger:        opts.Logger,
		newID:         uuid.NewString,
	}
}

// Validate runs only the validation step. It makes no external calls.
func (s *Service) Validate(sub types.Submission) []*validation.ValidationError {
	_, warnings := s.validator.Validate(sub)
	return warnings
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Submit validates sub, appends it to the ledger and renders its receipt.
// Nothing is retried.
func (s *Service) Submit(ctx context.Context, sub types.Submission) Result {
	start := time.Now()
	result := Result{ID: s.newID()}
	log := s.logger.With().Str("submission_id", result.ID).Logger()

	// =========================================================================
	// STEP 1: VALIDATE
	// =========================================================================

	tx, warnings := s.validator.Validate(sub)
	if len(warnings) > 0 {
		result.Status = StatusInvalid
		result.Warnings = warnings
		log.Info().Int("violations", len(warnings)).Msg("submission rejected by validation")
		return s.finish(result, start)
	}

	// =========================================================================
	// STEP 2: FORMAT ROW
	// =========================================================================

	result.Row = ledger.FormatRow(tx)

	log.Debug().
		Str("customer", result.Row.CustomerName).
		Str("date", result.Row.Date).
		Str("service", result.Row.ServiceType).
		Str("price", result.Row.Price).
		Msg("submission validated")

	// =========================================================================
	// STEP 3: APPEND TO LEDGER
	// =========================================================================

	appendCtx := ctx
	if s.ledgerTimeout > 0 {
		var cancel context.CancelFunc
		appendCtx, cancel = context.WithTimeout(ctx, s.ledgerTimeout)
		defer cancel()
	}

	if err := s.ledger.Append(appendCtx, result.Row); err != nil {
		result.Err = err
		switch ledger.KindOf(err) {
		case ledger.KindCredentials, ledger.KindAuthentication:
			result.Status = StatusCredentialFailed
		default:
			result.Status = StatusLedgerFailed
		}
		log.Error().Err(err).
			Str("kind", ledger.KindOf(err).String()).
			Msg("ledger append failed, transaction not saved")
		return s.finish(result, start)
	}

	log.Info().Str("customer", result.Row.CustomerName).Msg("transaction appended to ledger")

	// =========================================================================
	// STEP 4: RENDER RECEIPT
	// =========================================================================

	doc, err := s.render(result.Row)
	if err != nil {
		result.Status = StatusReceiptFailed
		result.Err = err
		log.Error().Err(err).Msg("receipt rendering failed after the row was saved")
		return s.finish(result, start)
	}

	result.Status = StatusCompleted
	result.Receipt = doc
	log.Info().Str("file", doc.FileName).Int("bytes", len(doc.Data)).Msg("receipt rendered")

	return s.finish(result, start)
}

// render calls the renderer and turns a panic inside it into a RenderError.
func (s *Service) render(row types.Row) (doc *receipt.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &receipt.RenderError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	doc, err = s.renderer.Render(row)
	if err != nil {
		var re *receipt.RenderError
		if !errors.As(err, &re) {
			err = &receipt.RenderError{Err: err}
		}
		return nil, err
	}
	if doc == nil {
		return nil, &receipt.RenderError{Err: errors.New("renderer returned no document")}
	}
	return doc, nil
}

func (s *Service) finish(result Result, start time.Time) Result {
	result.Duration = time.Since(start)
	return result
}
