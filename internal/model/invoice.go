package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the invoice lifecycle state. Invoices start unpaid and
// move exactly once to paid, or to voided if cancelled before collection.
// There is no reverse transition from either terminal state.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusVoided PaymentStatus = "voided"
)

// PaymentMethod is how a paid invoice was settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

// Invoice is the billing record for a set of ordered diagnostic tests.
// Amounts are snapshots taken at creation time; catalog price changes do
// not alter historical invoices.
type Invoice struct {
	Base
	Tenancy
	InvoiceNumber      string          `json:"invoice_number" db:"invoice_number"`
	PatientID          uuid.UUID       `json:"patient_id" db:"patient_id"`
	Items              []InvoiceItem   `json:"items" db:"-"`
	Subtotal           decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount" db:"total_amount"`
	NetAmount          decimal.Decimal `json:"net_amount" db:"net_amount"`
	Currency           string          `json:"currency" db:"currency"`
	ReferralProviderID *uuid.UUID      `json:"referral_provider_id,omitempty" db:"referral_provider_id"`
	PaymentStatus      PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod      *PaymentMethod  `json:"payment_method,omitempty" db:"payment_method"`
	PaymentDetails     json.RawMessage `json:"payment_details,omitempty" db:"payment_details"`
	PaidAt             *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	PaidBy             *uuid.UUID      `json:"paid_by,omitempty" db:"paid_by"`
	VoidedAt           *time.Time      `json:"voided_at,omitempty" db:"voided_at"`
	VoidedBy           *uuid.UUID      `json:"voided_by,omitempty" db:"voided_by"`
	VoidReason         *string         `json:"void_reason,omitempty" db:"void_reason"`
	CreatedBy          uuid.UUID       `json:"created_by" db:"created_by"`
}

// InvoiceItem is a line-item snapshot: the test name and price are copied
// at invoice-creation time and never reference the live catalog.
type InvoiceItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	InvoiceID uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	TestID    uuid.UUID       `json:"test_id" db:"test_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// PaymentDetails carries the method-specific fields recorded at collection
// time. It is stored as JSON on the invoice row.
type PaymentDetails struct {
	CardLastFour   string `json:"card_last_four,omitempty"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	TransferRef    string `json:"transfer_ref,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
}

// CreateInvoiceRequest is the payload for invoice creation. Line-item
// prices come from the test catalog, not the caller.
type CreateInvoiceRequest struct {
	PatientID          string              `json:"patient_id" binding:"required,uuid"`
	Items              []CreateInvoiceItem `json:"items" binding:"required,min=1,dive"`
	DiscountPercentage float64             `json:"discount_percentage" binding:"gte=0,lte=100"`
	ReferralProviderID string              `json:"referral_provider_id" binding:"omitempty,uuid"`
}

type CreateInvoiceItem struct {
	TestID string `json:"test_id" binding:"required,uuid"`
}

// PayInvoiceRequest is the payload for payment collection. Method-specific
// details are validated in the billing service.
type PayInvoiceRequest struct {
	PaymentMethod  PaymentMethod `json:"payment_method" binding:"required,payment_method"`
	CardLastFour   string        `json:"card_last_four"`
	TransactionRef string        `json:"transaction_ref"`
	TransferRef    string        `json:"transfer_ref"`
	BankName       string        `json:"bank_name"`
}

// VoidInvoiceRequest cancels an unpaid invoice.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status    PaymentStatus `form:"status"`
	PatientID *uuid.UUID    `form:"patient_id"`
	Pagination
}
