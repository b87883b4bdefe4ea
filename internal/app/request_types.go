package app

import "github.com/shopspring/decimal"

// AdjustStockRequest carries one manual stock adjustment.
type AdjustStockRequest struct {
	OrgCode     string
	ItemID      int
	WarehouseID int
	// Quantity is always positive; Operation ("add" or "reduce",
	// case-insensitive) selects the direction.
	Quantity    decimal.Decimal
	Operation   string
	EntryUnit   string
	Reason      string
	Notes       string
	ReferenceNo string
	ActorID     *int
}

// StockReportRequest carries the stock report parameters.
type StockReportRequest struct {
	OrgCode          string
	AsOfDate         string // YYYY-MM-DD, empty means today
	IncludeZeroStock bool
	WarehouseIDs     []int
	Categories       []string
	StockStatus      string
	SearchTerm       string
}

// RecordPaymentRequest carries a payment against an issued invoice.
type RecordPaymentRequest struct {
	OrgCode   string
	InvoiceID int
	Amount    decimal.Decimal
	Mode      string
	PaidOn    string // YYYY-MM-DD, empty means today
	Reference string
}
