package server

import (
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/doryinkbali/kasir/internal/checkout"
	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/internal/types"
	"github.com/doryinkbali/kasir/internal/validation"
)

// transactionForm is the urlencoded body of POST /transactions.
type transactionForm struct {
	CustomerName       string `form:"customer_name"`
	Date               string `form:"date"`
	ServiceType        string `form:"service_type"`
	PaymentMethod      string `form:"payment_method"`
	Price              string `form:"price"`
	ArtistSharePercent string `form:"artist_share_percent"`
	Confirmed          bool   `form:"confirmed"`
}

// transactionRequest is the JSON body of POST /api/transactions.
type transactionRequest struct {
	CustomerName       string `json:"customer_name"`
	Date               string `json:"date"`
	ServiceType        string `json:"service_type"`
	PaymentMethod      string `json:"payment_method"`
	Price              int64  `json:"price"`
	ArtistSharePercent int    `json:"artist_share_percent"`
	Confirmed          bool   `json:"confirmed"`
}

type warningResponse struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type receiptResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type transactionResponse struct {
	ID       string            `json:"id,omitempty"`
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Error    string            `json:"error,omitempty"`
	Saved    bool              `json:"saved"`
	Warnings []warningResponse `json:"warnings,omitempty"`
	Row      *types.Row        `json:"row,omitempty"`
	Receipt  *receiptResponse  `json:"receipt,omitempty"`
}

// formView feeds templates/form.html.
type formView struct {
	StudioName     string
	MinPrice       int64
	ServiceTypes   []types.ServiceType
	PaymentMethods []types.PaymentMethod
	ArtistShares   []int
	Values         transactionForm
	Warnings       []*validation.ValidationError
	Message        string
}

// resultView feeds templates/result.html.
type resultView struct {
	StudioName string
	ID         string
	Status     string
	Message    string
	Error      string
	Saved      bool
	Row        types.Row
	FileName   string
	Download   template.URL
}

// =============================================================================
// HTML FORM
// =============================================================================

func (h *handler) showForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", h.newFormView(transactionForm{
		Date:               h.opts.Now().In(h.opts.Location).Format("2006-01-02"),
		ServiceType:        string(types.ServiceSmall),
		PaymentMethod:      string(types.PaymentCash),
		ArtistSharePercent: "50",
	}))
}

func (h *handler) submitForm(c *gin.Context) {
	var form transactionForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(err)
		view := h.newFormView(form)
		view.Message = "The form could not be read. Please check every field."
		c.HTML(http.StatusBadRequest, "form.html", view)
		return
	}

	sub, parseErrs := submissionFromForm(form)
	if len(parseErrs) > 0 {
		view := h.newFormView(form)
		view.Warnings = validation.MergeErrors(parseErrs, h.opts.Checkout.Validate(sub))
		view.Message = checkout.Result{Status: checkout.StatusInvalid}.Message()
		c.HTML(http.StatusUnprocessableEntity, "form.html", view)
		return
	}

	res := h.opts.Checkout.Submit(c.Request.Context(), sub)

	if res.Status == checkout.StatusInvalid {
		view := h.newFormView(form)
		view.Warnings = res.Warnings
		view.Message = res.Message()
		c.HTML(http.StatusUnprocessableEntity, "form.html", view)
		return
	}

	view := resultView{
		StudioName: h.opts.StudioName,
		ID:         res.ID,
		Status:     res.Status.String(),
		Message:    res.Message(),
		Error:      errorDetail(res.Err),
		Saved:      res.Saved(),
		Row:        res.Row,
	}
	if res.Downloadable() {
		view.FileName = res.Receipt.FileName
		view.Download = template.URL("data:" + res.Receipt.ContentType + ";base64," +
			base64.StdEncoding.EncodeToString(res.Receipt.Data))
	}

	c.HTML(statusCode(res), "result.html", view)
}

func (h *handler) newFormView(values transactionForm) formView {
	return formView{
		StudioName:     h.opts.StudioName,
		MinPrice:       h.opts.MinPrice,
		ServiceTypes:   types.ServiceTypes,
		PaymentMethods: types.PaymentMethods,
		ArtistShares:   types.ArtistShares,
		Values:         values,
	}
}

// submissionFromForm converts the text fields. Conversion problems are
// reported the same way as rule violations.
func submissionFromForm(form transactionForm) (types.Submission, []*validation.ValidationError) {
	var errs []*validation.ValidationError

	date, verr := validation.ParseDate("date", form.Date)
	if verr != nil {
		errs = append(errs, verr)
	}

	price, verr := validation.ParsePrice("price", form.Price)
	if verr != nil {
		errs = append(errs, verr)
	}

	share := 0
	if form.ArtistSharePercent != "" {
		n, err := strconv.Atoi(form.ArtistSharePercent)
		if err != nil {
			errs = append(errs, &validation.ValidationError{
				Field:   "artist_share_percent",
				Value:   form.ArtistSharePercent,
				Rule:    "number",
				Message: "Choose one of the artist share percentages.",
			})
		}
		share = n
	}

	return types.Submission{
		CustomerName:       form.CustomerName,
		Date:               date,
		ServiceType:        types.ServiceType(form.ServiceType),
		PaymentMethod:      types.PaymentMethod(form.PaymentMethod),
		Price:              price,
		ArtistSharePercent: share,
		Confirmed:          form.Confirmed,
	}, errs
}

// =============================================================================
// JSON API
// =============================================================================

func (h *handler) submitJSON(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, verr := validation.ParseDate("date", req.Date)
	sub := types.Submission{
		CustomerName:       req.CustomerName,
		Date:               date,
		ServiceType:        types.ServiceType(req.ServiceType),
		PaymentMethod:      types.PaymentMethod(req.PaymentMethod),
		Price:              req.Price,
		ArtistSharePercent: req.ArtistSharePercent,
		Confirmed:          req.Confirmed,
	}
	if verr != nil {
		res := checkout.Result{
			Status:   checkout.StatusInvalid,
			Warnings: validation.MergeErrors([]*validation.ValidationError{verr}, h.opts.Checkout.Validate(sub)),
		}
		c.JSON(statusCode(res), toResponse(res))
		return
	}

	res := h.opts.Checkout.Submit(c.Request.Context(), sub)

	c.JSON(statusCode(res), toResponse(res))
}

func toResponse(res checkout.Result) transactionResponse {
	out := transactionResponse{
		ID:      res.ID,
		Status:  res.Status.String(),
		Message: res.Message(),
		Error:   errorDetail(res.Err),
		Saved:   res.Saved(),
	}

	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, warningResponse{Field: w.Field, Rule: w.Rule, Message: w.Message})
	}

	if res.Saved() {
		row := res.Row
		out.Row = &row
	}

	if res.Downloadable() {
		out.Receipt = &receiptResponse{
			FileName:    res.Receipt.FileName,
			ContentType: res.Receipt.ContentType,
			Data:        res.Receipt.Data,
		}
	}

	return out
}

// errorDetail is the full diagnostic text shown under the summary.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *handler) health(c *gin.Context) {
	if h.opts.LedgerErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"ledger": ledger.KindOf(h.opts.LedgerErr).String(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ledger": "ready"})
}
