package model

import "github.com/shopspring/decimal"

// TestCategory groups catalog entries by department.
type TestCategory string

const (
	TestCategoryLaboratory TestCategory = "laboratory"
	TestCategoryRadiology  TestCategory = "radiology"
	TestCategoryCardiology TestCategory = "cardiology"
	TestCategoryGeneral    TestCategory = "general"
)

// Test is a diagnostic test in the branch catalog. Its price is the
// current list price; invoices snapshot it at creation time.
type Test struct {
	Base
	Tenancy
	Code     string          `json:"code" db:"code"`
	Name     string          `json:"name" db:"name"`
	Category TestCategory    `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Active   bool            `json:"active" db:"active"`
}

// CreateTestRequest adds a catalog entry.
type CreateTestRequest struct {
	Code     string  `json:"code" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Category string  `json:"category" binding:"required,oneof=laboratory radiology cardiology general"`
	Price    float64 `json:"price" binding:"required,gt=0"`
}

// UpdateTestRequest changes name or price of a catalog entry.
type UpdateTestRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required,gt=0"`
}

// TestFilter narrows catalog listings.
type TestFilter struct {
	Category TestCategory `form:"category"`
	Active   *bool        `form:"active"`
	Pagination
}
