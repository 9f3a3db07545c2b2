package order

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

// ErrConstraint is returned by Store implementations when the commit fails on
// a database constraint (unique, foreign key, check). The pipeline surfaces
// it under the "database" error key.
var ErrConstraint = errors.New("database constraint violated")

// Error map keys returned by PlaceOrder. Validation keys may appear together;
// FieldDelivery and FieldDatabase are always reported alone because they
// occur after validation has passed.
const (
	FieldCustomer     = "customer"
	FieldPizzas       = "pizzas"
	FieldDrinks       = "drinks"
	FieldDesserts     = "desserts"
	FieldDiscountCode = "discount_code"
	FieldDelivery     = "delivery"
	FieldDatabase     = "database"
)

// ValidationError maps input field names to human-readable messages. It is
// the only error type PlaceOrder returns for expected failures; anything else
// is an infrastructure fault.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("order validation failed:")
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// fieldErrors accumulates field messages during validation.
type fieldErrors map[string]string

// set records a message for the key, overwriting any previous one.
func (f fieldErrors) set(key, msg string) { f[key] = msg }

// setDefault records a message only if the key is not yet present. Used where
// repeated failures collapse into one generic message.
func (f fieldErrors) setDefault(key, msg string) {
	if _, ok := f[key]; !ok {
		f[key] = msg
	}
}

// asError returns a *ValidationError when any field is set, else nil.
func (f fieldErrors) asError() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// singleFieldError builds a ValidationError with exactly one populated key.
func singleFieldError(key, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{key: msg}}
}
