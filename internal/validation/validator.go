// =============================================================================
// Kasir - Validation Engine
// =============================================================================
//
// This module validates an operator submission before anything leaves the
// process. A submission either becomes a Transaction or produces one
// ValidationError per violated rule; nothing else happens in between.
//
// RULES:
//   - customer_name       : required after trimming whitespace
//   - date                : required, not after today (studio time zone)
//   - service_type        : one of Small, Medium, Big
//   - payment_method      : one of Cash, Card, Transfer
//   - price               : greater than zero and at least the configured minimum
//   - artist_share_percent: one of 40, 45, 50, 55, 60, 65, 70
//   - confirmed           : explicitly set by the operator
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error carries the field, the rule and an operator-facing message
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/doryinkbali/kasir/internal/money"
	"github.com/doryinkbali/kasir/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single violated rule.
type ValidationError struct {
	// Field is the form field that failed validation.
	Field string

	// Value is the submitted value, rendered as text.
	Value string

	// Rule is the rule that was violated (e.g. "required", "min_price").
	Rule string

	// Message is the warning shown to the operator.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("Field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks submissions against the form rules.
type Validator struct {
	options  ValidationOptions
	validate *validator.Validate
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// MinPrice is the smallest accepted price (inclusive).
	MinPrice int64

	// Location decides which calendar day "today" is.
	Location *time.Location

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// form mirrors types.Submission with the struct-tag rules. The name is
// trimmed before the struct is built.
type form struct {
	CustomerName       string    `validate:"required"`
	Date               time.Time `validate:"required,notfuture"`
	ServiceType        string    `validate:"oneof=Small Medium Big"`
	PaymentMethod      string    `validate:"oneof=Cash Card Transfer"`
	Price              int64     `validate:"gt=0"`
	ArtistSharePercent int       `validate:"oneof=40 45 50 55 60 65 70"`
	Confirmed          bool      `validate:"confirmed"`
}

// fieldNames maps struct fields to form field names used in messages.
var fieldNames = map[string]string{
	"CustomerName":       "customer_name",
	"Date":               "date",
	"ServiceType":        "service_type",
	"PaymentMethod":      "payment_method",
	"Price":              "price",
	"ArtistSharePercent": "artist_share_percent",
	"Confirmed":          "confirmed",
}

// NewValidator creates a new Validator instance.
func NewValidator(options ValidationOptions) *Validator {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	v := &Validator{
		options:  options,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	// RegisterValidation only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("notfuture", v.notFuture)
	_ = v.validate.RegisterValidation("confirmed", func(fl validator.FieldLevel) bool {
		return fl.Field().Bool()
	})

	return v
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks every rule and returns either the validated Transaction or
// the list of violations. It has no side effects.
func (v *Validator) Validate(sub types.Submission) (types.Transaction, []*ValidationError) {
	f := form{
		CustomerName:       strings.TrimSpace(sub.CustomerName),
		Date:               sub.Date,
		ServiceType:        string(sub.ServiceType),
		PaymentMethod:      string(sub.PaymentMethod),
		Price:              sub.Price,
		ArtistSharePercent: sub.ArtistSharePercent,
		Confirmed:          sub.Confirmed,
	}

	var errs []*ValidationError

	if err := v.validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			// InvalidValidationError: a programming error, not operator input.
			panic(err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, v.toValidationError(fe))
		}
	}

	// The minimum is configuration, so it cannot live in a struct tag.
	if f.Price > 0 && f.Price < v.options.MinPrice {
		errs = append(errs, &ValidationError{
			Field:   "price",
			Value:   strconv.FormatInt(f.Price, 10),
			Rule:    "min_price",
			Message: fmt.Sprintf("Price must be at least %s.", money.FormatRupiah(v.options.MinPrice)),
		})
	}

	if len(errs) > 0 {
		return types.Transaction{}, errs
	}

	return types.Transaction{
		CustomerName:       f.CustomerName,
		Date:               v.calendarDay(f.Date),
		ServiceType:        sub.ServiceType,
		PaymentMethod:      sub.PaymentMethod,
		Price:              f.Price,
		ArtistSharePercent: f.ArtistSharePercent,
		ArtistPrice:        money.ArtistPrice(f.Price, f.ArtistSharePercent),
	}, nil
}

// notFuture accepts dates on or before today in the studio's time zone.
func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !v.calendarDay(date).After(v.today())
}

// today returns midnight of the current day in the studio location.
func (v *Validator) today() time.Time {
	return v.calendarDay(v.options.Now().In(v.options.Location))
}

// calendarDay keeps the year, month and day of t as written and drops the
// time of day. Submitted dates are plain calendar dates.
func (v *Validator) calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.options.Location)
}

// toValidationError turns a validator field error into an operator warning.
func (v *Validator) toValidationError(fe validator.FieldError) *ValidationError {
	field := fieldNames[fe.StructField()]
	ve := &ValidationError{
		Field: field,
		Value: fmt.Sprint(fe.Value()),
		Rule:  fe.Tag(),
	}

	switch fe.Tag() {
	case "required":
		if field == "date" {
			ve.Value = ""
			ve.Message = "Please fill in the date."
		} else {
			ve.Message = "Please fill in the customer name."
		}
	case "notfuture":
		ve.Value = fe.Value().(time.Time).Format("2006-01-02")
		ve.Message = "The date cannot be in the future."
	case "oneof":
		ve.Message = fmt.Sprintf("Choose one of: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		ve.Message = "Price must be greater than zero."
	case "confirmed":
		ve.Message = "Tick the confirmation box before saving."
	default:
		ve.Message = fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}

	return ve
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
