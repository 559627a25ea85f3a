package model

import "github.com/shopspring/decimal"

// DashboardOverview is a read-only projection over the transactional
// tables. No invariant-bearing logic depends on these numbers.
type DashboardOverview struct {
	PatientsToday      int64           `json:"patients_today" db:"patients_today"`
	PatientsTotal      int64           `json:"patients_total" db:"patients_total"`
	InvoicesUnpaid     int64           `json:"invoices_unpaid" db:"invoices_unpaid"`
	OutstandingAmount  decimal.Decimal `json:"outstanding_amount" db:"outstanding_amount"`
	InvoicesPaidToday  int64           `json:"invoices_paid_today" db:"invoices_paid_today"`
	RevenueToday       decimal.Decimal `json:"revenue_today" db:"revenue_today"`
	RevenueMonthToDate decimal.Decimal `json:"revenue_month_to_date" db:"revenue_month_to_date"`
}

// RevenueByMethod is one slice of the payment-method revenue breakdown.
type RevenueByMethod struct {
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	InvoiceCount  int64           `json:"invoice_count" db:"invoice_count"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
}
