package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/doryinkbali/kasir/internal/checkout"
	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/internal/receipt"
	"github.com/doryinkbali/kasir/internal/types"
	"github.com/doryinkbali/kasir/internal/validation"
)

var bali = time.FixedZone("WITA", 8*60*60)

func fixedNow() time.Time {
	return time.Date(2024, 3, 5, 12, 0, 0, 0, bali)
}

type memoryLedger struct {
	rows []types.Row
	err  error
}

func (m *memoryLedger) Append(_ context.Context, row types.Row) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func newTestRouter(l ledger.Writer, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := checkout.New(checkout.Options{
		Validator: validation.NewValidator(validation.ValidationOptions{
			MinPrice: 50000,
			Location: bali,
			Now:      fixedNow,
		}),
		Ledger:        l,
		Renderer:      receipt.NewPDFRenderer(receipt.Studio{Name: "DORY INK BALI"}, "Struk"),
		LedgerTimeout: time.Second,
		Logger:        zerolog.Nop(),
	})

	opts.Checkout = svc
	opts.StudioName = "DORY INK BALI"
	opts.Location = bali
	opts.MinPrice = 50000
	opts.Now = fixedNow
	opts.Logger = zerolog.Nop()
	return NewRouter(opts)
}

func validForm() url.Values {
	return url.Values{
		"customer_name":        {"John Doe"},
		"date":                 {"2024-03-05"},
		"service_type":         {"Medium"},
		"payment_method":       {"Card"},
		"price":                {"100.000"},
		"artist_share_percent": {"45"},
		"confirmed":            {"true"},
	}
}

func postForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestShowForm(t *testing.T) {
	r := newTestRouter(&memoryLedger{}, Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`value="2024-03-05"`, "Medium Tattoo", "Rp50.000", `name="confirmed"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form is missing %q", want)
		}
	}
}

func TestSubmitFormCompleted(t *testing.T) {
	l := &memoryLedger{}
	r := newTestRouter(l, Options{})

	rec := postForm(r, validForm())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(l.rows) != 1 || l.rows[0].Price != "Rp100.000" || l.rows[0].ArtistPrice != "Rp45.000" {
		t.Fatalf("rows = %v", l.rows)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="data:application/pdf;base64,`) {
		t.Fatal("result page has no receipt download")
	}
	if !strings.Contains(body, `download="Struk_John_Doe_05-03-2024.pdf"`) {
		t.Fatal("download has the wrong file name")
	}
}

func TestSubmitFormInvalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{name: "empty name", field: "customer_name", value: " ", want: "Please fill in the customer name."},
		{name: "future date", field: "date", value: "2024-03-06", want: "The date cannot be in the future."},
		{name: "bad date", field: "date", value: "yesterday", want: "Enter the date as YYYY-MM-DD or DD/MM/YYYY."},
		{name: "cheap", field: "price", value: "10000", want: "Price must be at least Rp50.000."},
		{name: "unconfirmed", field: "confirmed", value: "", want: "Tick the confirmation box before saving."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &memoryLedger{}
			r := newTestRouter(l, Options{})

			form := validForm()
			if tt.value == "" {
				form.Del(tt.field)
			} else {
				form.Set(tt.field, tt.value)
			}

			rec := postForm(r, form)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Fatalf("body does not contain %q", tt.want)
			}
			if len(l.rows) != 0 {
				t.Fatal("invalid submission reached the ledger")
			}
		})
	}
}

func TestSubmitFormLedgerFailure(t *testing.T) {
	l := &memoryLedger{err: &ledger.Error{Kind: ledger.KindNetwork, Op: "append", Err: errors.New("dial tcp")}}
	r := newTestRouter(l, Options{})

	rec := postForm(r, validForm())

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "NOT saved") || strings.Contains(body, "data:application/pdf") {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestSubmitJSON(t *testing.T) {
	l := &memoryLedger{}
	r := newTestRouter(l, Options{})

	rec := postJSON(r, `{
		"customer_name": "John Doe",
		"date": "2024-03-05",
		"service_type": "Medium",
		"payment_method": "Card",
		"price": 100000,
		"artist_share_percent": 45,
		"confirmed": true
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "completed" || !resp.Saved || resp.ID == "" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Row == nil || resp.Row.Date != "05/03/2024" {
		t.Fatalf("row = %+v", resp.Row)
	}
	if resp.Receipt == nil || !strings.HasPrefix(string(resp.Receipt.Data), "%PDF-") {
		t.Fatal("response has no PDF receipt")
	}
}

func TestSubmitJSONStatusCodes(t *testing.T) {
	valid := `{"customer_name":"A","date":"2024-03-05","service_type":"Small","payment_method":"Cash","price":50000,"artist_share_percent":50,"confirmed":true}`

	tests := []struct {
		name   string
		ledger *memoryLedger
		body   string
		want   int
		status string
	}{
		{name: "invalid", ledger: &memoryLedger{}, body: `{"customer_name":""}`, want: http.StatusUnprocessableEntity, status: "invalid"},
		{name: "bad date", ledger: &memoryLedger{}, body: `{"date":"tomorrow"}`, want: http.StatusUnprocessableEntity, status: "invalid"},
		{
			name:   "credentials",
			ledger: &memoryLedger{err: &ledger.Error{Kind: ledger.KindCredentials, Op: "credentials", Err: errors.New("missing")}},
			body:   valid,
			want:   http.StatusServiceUnavailable,
			status: "credential_failed",
		},
		{
			name:   "permission",
			ledger: &memoryLedger{err: &ledger.Error{Kind: ledger.KindPermission, Op: "append", Err: errors.New("403")}},
			body:   valid,
			want:   http.StatusBadGateway,
			status: "ledger_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(newTestRouter(tt.ledger, Options{}), tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}

			var resp transactionResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status || resp.Saved || resp.Receipt != nil {
				t.Fatalf("response = %+v", resp)
			}
		})
	}
}

func TestSubmitJSONMalformed(t *testing.T) {
	rec := postJSON(newTestRouter(&memoryLedger{}, Options{}), `{"price":"lots"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		ledgerErr error
		want      int
	}{
		{name: "ready", want: http.StatusOK},
		{
			name:      "degraded",
			ledgerErr: &ledger.Error{Kind: ledger.KindCredentials, Op: "credentials", Err: errors.New("missing")},
			want:      http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&memoryLedger{}, Options{LedgerErr: tt.ledgerErr})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(&memoryLedger{}, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestFailureDetailReachesOperator(t *testing.T) {
	detail := "googleapi: Error 403: The caller does not have permission"
	newLedger := func() *memoryLedger {
		return &memoryLedger{err: &ledger.Error{Kind: ledger.KindPermission, Op: "append", Err: errors.New(detail)}}
	}

	t.Run("form", func(t *testing.T) {
		rec := postForm(newTestRouter(newLedger(), Options{}), validForm())
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "not allowed to write") || !strings.Contains(body, detail) {
			t.Fatalf("body lacks summary or detail: %s", body)
		}
	})

	t.Run("json", func(t *testing.T) {
		valid := `{"customer_name":"A","date":"2024-03-05","service_type":"Small","payment_method":"Cash","price":50000,"artist_share_percent":50,"confirmed":true}`
		rec := postJSON(newTestRouter(newLedger(), Options{}), valid)

		var resp transactionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(resp.Error, detail) {
			t.Fatalf("error = %q, want it to contain %q", resp.Error, detail)
		}
	})
}

type failingRenderer struct{}

func (failingRenderer) Render(types.Row) (*receipt.Document, error) {
	return nil, errors.New("font metrics missing for helvetica")
}

func TestReceiptFailureDetailIsShown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := checkout.New(checkout.Options{
		Validator: validation.NewValidator(validation.ValidationOptions{MinPrice: 50000, Location: bali, Now: fixedNow}),
		Ledger:    &memoryLedger{},
		Renderer:  failingRenderer{},
		Logger:    zerolog.Nop(),
	})
	r := NewRouter(Options{Checkout: svc, StudioName: "DORY INK BALI", Location: bali, MinPrice: 50000, Now: fixedNow, Logger: zerolog.Nop()})

	rec := postForm(r, validForm())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "saved, but the receipt") || !strings.Contains(body, "font metrics missing for helvetica") {
		t.Fatalf("body lacks summary or detail: %s", body)
	}
}

func TestParseErrorsReportedWithRuleWarnings(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		form := validForm()
		form.Set("date", "tomorrow")
		form.Del("confirmed")

		rec := postForm(newTestRouter(&memoryLedger{}, Options{}), form)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Tick the confirmation box") {
			t.Fatalf("confirmation warning missing: %s", body)
		}
	})

	t.Run("json", func(t *testing.T) {
		l := &memoryLedger{}
		rec := postJSON(newTestRouter(l, Options{}), `{"customer_name":"A","date":"tomorrow","service_type":"Small","payment_method":"Cash","price":50000,"artist_share_percent":50}`)

		var resp transactionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		var fields []string
		for _, w := range resp.Warnings {
			fields = append(fields, w.Field)
		}
		if strings.Join(fields, ",") != "date,confirmed" {
			t.Fatalf("warning fields = %v, want date,confirmed", fields)
		}
		if len(l.rows) != 0 {
			t.Fatal("invalid submission reached the ledger")
		}
	})
}
