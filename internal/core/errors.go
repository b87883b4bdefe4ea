package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the validation taxonomy. Services detect these before
// any write, so a caller receiving one can assume zero side effects.
var (
	ErrOrgNotFound       = errors.New("organization not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInvoiceNotFound   = errors.New("invoice not found")

	// ErrNoStockRecord is returned for a REDUCE against an (item, warehouse)
	// pair that has never received stock. Only ADD may create a row.
	ErrNoStockRecord = errors.New("cannot reduce stock with no stock record")

	// ErrInvalidOperation covers malformed inputs: zero delta, unknown
	// operation type, bad state transitions.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrUnauthorized = errors.New("not authorized for this organization")
)

// InsufficientStockError is returned when a REDUCE exceeds the quantity
// available in the target warehouse. Carries available vs requested for
// display.
type InsufficientStockError struct {
	ItemID      int
	WarehouseID int
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %s, requested %s",
		e.Available.String(), e.Requested.String())
}

// ErrInsufficientStock is the sentinel matched by errors.Is for any
// *InsufficientStockError.
var ErrInsufficientStock = errors.New("insufficient stock")

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsValidation reports whether err is a pre-write validation failure, i.e.
// the operation is guaranteed to have made no state change.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoStockRecord) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound reports whether err indicates a missing referenced record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrgNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrWarehouseNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}
