// =============================================================================
// Kasir - Shared Types
// =============================================================================
//
// This package contains types shared by several modules to avoid import
// cycles. Types defined here are used by:
//   - validation (Submission -> Transaction)
//   - ledger     (Transaction -> Row)
//   - receipt    (Row -> Document)
//   - checkout   (the whole pipeline)
//
// =============================================================================

package types

import "time"

// =============================================================================
// ENUMERATED FIELDS
// =============================================================================

// ServiceType is the size class of the tattoo being paid for.
type ServiceType string

const (
	ServiceSmall  ServiceType = "Small"
	ServiceMedium ServiceType = "Medium"
	ServiceBig    ServiceType = "Big"
)

// ServiceTypes lists the accepted service types in form order.
var ServiceTypes = []ServiceType{ServiceSmall, ServiceMedium, ServiceBig}

// Label returns the text written to the ledger and printed on the receipt.
func (s ServiceType) Label() string {
	return string(s) + " Tattoo"
}

// Valid reports whether s is one of ServiceTypes.
func (s ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if v == s {
			return true
		}
	}
	return false
}

// PaymentMethod is how the client paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
)

// PaymentMethods lists the accepted payment methods in form order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer}

// Label returns the display text for the payment method.
func (p PaymentMethod) Label() string {
	return string(p)
}

// Valid reports whether p is one of PaymentMethods.
func (p PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == p {
			return true
		}
	}
	return false
}

// ArtistShares lists the commission percentages an artist can receive.
var ArtistShares = []int{40, 45, 50, 55, 60, 65, 70}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submission is the raw input collected from the operator, before validation.
type Submission struct {
	// CustomerName is the client name as typed (untrimmed).
	CustomerName string

	// Date is the transaction date. Only the calendar day is meaningful.
	Date time.Time

	ServiceType   ServiceType
	PaymentMethod PaymentMethod

	// Price is the tattoo price in whole Rupiah.
	Price int64

	// ArtistSharePercent is the artist's commission, one of ArtistShares.
	ArtistSharePercent int

	// Confirmed is the operator's explicit "I have checked this" flag.
	Confirmed bool
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is a submission that passed every validation rule.
// It lives for a single submission cycle and is never stored locally.
type Transaction struct {
	CustomerName       string
	Date               time.Time
	ServiceType        ServiceType
	PaymentMethod      PaymentMethod
	Price              int64
	ArtistSharePercent int

	// ArtistPrice is Price * ArtistSharePercent / 100, rounded to whole Rupiah.
	ArtistPrice int64
}

// =============================================================================
// ROW
// =============================================================================

// Row holds the six display fields of a transaction, in ledger column order.
// The receipt is rendered from the same Row so both always agree.
type Row struct {
	CustomerName  string `json:"customer_name"`
	Date          string `json:"date"` // DD/MM/YYYY
	ServiceType   string `json:"service_type"`
	PaymentMethod string `json:"payment_method"`
	Price         string `json:"price"` // e.g. Rp100.000
	ArtistPrice   string `json:"artist_price"`
}

// Values returns the row as an ordered slice for the ledger append call.
func (r Row) Values() []string {
	return []string{
		r.CustomerName,
		r.Date,
		r.ServiceType,
		r.PaymentMethod,
		r.Price,
		r.ArtistPrice,
	}
}
