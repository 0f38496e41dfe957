// =============================================================================
// Kasir - HTTP Server
// =============================================================================
//
// This module serves the operator form and a JSON API over the same checkout
// service.
//
// ROUTES:
//   GET  /                   the transaction form
//   POST /transactions       form submit, answers with an HTML result page
//   POST /api/transactions   JSON submit, answers with JSON
//   GET  /healthz            liveness plus ledger availability
//
// STATUS CODES (both submit routes):
//   200 saved (with or without a receipt), 422 invalid input,
//   503 ledger credentials, 502 ledger write failed.
//
// =============================================================================

package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/doryinkbali/kasir/internal/checkout"
	"github.com/doryinkbali/kasir/internal/logging"
	"github.com/doryinkbali/kasir/internal/money"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the router.
type Options struct {
	Checkout *checkout.Service

	// StudioName is shown in page titles.
	StudioName string

	// Location decides the default date on the form.
	Location *time.Location

	// MinPrice is shown as a hint next to the price field.
	MinPrice int64

	// LedgerErr is the startup error when the ledger could not be opened.
	LedgerErr error

	// CORSOrigins enables CORS on /api for these origins.
	CORSOrigins []string

	Logger zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	opts Options
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := gin.New()
	r.Use(logging.GinLogger(opts.Logger), gin.Recovery())

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"rupiah": money.FormatRupiah,
	}).ParseFS(templatesFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	h := &handler{opts: opts}

	r.GET("/", h.showForm)
	r.POST("/transactions", h.submitForm)
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	if len(opts.CORSOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
		// Preflight requests only reach group middleware through a route.
		api.OPTIONS("/transactions", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	{
		api.POST("/transactions", h.submitJSON)
	}

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down,
// waiting up to grace for in-flight submissions.
func Run(ctx context.Context, addr string, handler http.Handler, grace time.Duration, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// statusCode maps a checkout outcome to its HTTP status.
func statusCode(res checkout.Result) int {
	switch res.Status {
	case checkout.StatusInvalid:
		return http.StatusUnprocessableEntity
	case checkout.StatusCredentialFailed:
		return http.StatusServiceUnavailable
	case checkout.StatusLedgerFailed:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
