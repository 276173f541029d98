package types

import (
	"errors"
	"strings"
	"time"
)

// PaymentType indicates the direction of a payment.
type PaymentType string

const (
	PaymentIncoming PaymentType = "INCOMING"
	PaymentOutgoing PaymentType = "OUTGOING"
)

// Valid reports whether the payment type is one of the known types.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentIncoming, PaymentOutgoing:
		return true
	default:
		return false
	}
}

// PaymentCategory classifies what a payment is for.
type PaymentCategory string

const (
	CategorySalary     PaymentCategory = "SALARY"
	CategoryVendor     PaymentCategory = "VENDOR"
	CategoryInvoice    PaymentCategory = "INVOICE"
	CategoryInvestment PaymentCategory = "INVESTMENT"
)

// Valid reports whether the category is one of the known categories.
func (c PaymentCategory) Valid() bool {
	switch c {
	case CategorySalary, CategoryVendor, CategoryInvoice, CategoryInvestment:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks a payment through its lifecycle.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusProcessing PaymentStatus = "PROCESSING"
	StatusCompleted  PaymentStatus = "COMPLETED"
)

// Valid reports whether the status is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted:
		return true
	default:
		return false
	}
}

// Payment represents a payment record in the ledger.
type Payment struct {
	// ID is the unique identifier of the payment.
	ID int `json:"id" db:"id"`

	// Amount is the monetary value as a fixed two-decimal string, e.g. "100.00".
	// Stored as NUMERIC(15,2); always positive.
	Amount string `json:"amount" db:"amount"`

	// PaymentType is the direction of the payment (INCOMING or OUTGOING).
	PaymentType PaymentType `json:"paymentType" db:"payment_type"`

	// Category classifies the payment (SALARY, VENDOR, INVOICE, INVESTMENT).
	Category PaymentCategory `json:"category" db:"category"`

	// Status is the current lifecycle state of the payment.
	Status PaymentStatus `json:"status" db:"status"`

	// Date is the server-assigned creation timestamp. Immutable after creation.
	Date time.Time `json:"date" db:"date"`

	// CreatedByID references the user that created the payment.
	// Immutable after creation.
	CreatedByID int `json:"-" db:"created_by"`

	// CreatedBy is the display name of the creating user, resolved on read.
	CreatedBy string `json:"createdBy" db:"created_by_name"`

	// ReceiptKey is the object storage key of the attached receipt, if any.
	ReceiptKey string `json:"receiptKey,omitempty" db:"receipt_key"`

	// CreatedAt and UpdatedAt are audit timestamps for the record itself.
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// NUMERIC(15,2) leaves 13 digits before the decimal point.
const maxAmountIntegerDigits = 13

// ParseAmount validates a monetary amount and normalizes it to a
// two-decimal string. The amount must be a plain positive decimal with at
// most two fraction digits; signs, exponents, and group separators are
// rejected.
func ParseAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("amount is required")
	}

	intPart, fracPart, hasFrac := strings.Cut(raw, ".")
	if intPart == "" || !isDigits(intPart) {
		return "", errors.New("invalid amount")
	}
	if hasFrac && (fracPart == "" || len(fracPart) > 2 || !isDigits(fracPart)) {
		return "", errors.New("amount must have at most two decimal places")
	}

	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if len(intPart) > maxAmountIntegerDigits {
		return "", errors.New("amount too large")
	}
	if intPart == "0" && strings.Trim(fracPart, "0") == "" {
		return "", errors.New("amount must be positive")
	}

	for len(fracPart) < 2 {
		fracPart += "0"
	}
	return intPart + "." + fracPart, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
