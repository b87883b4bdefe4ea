package app

import "stockbook/internal/core"

// AdjustStockResult is returned by AdjustStock.
type AdjustStockResult struct {
	Adjustment *core.AdjustmentResult
	OrgCode    string
}

// StockLedgerResult is returned by GetStockLedger.
type StockLedgerResult struct {
	Entries []core.LedgerEntry
	ItemID  int
}

// StockLevelsResult is returned by GetStockLevels.
type StockLevelsResult struct {
	Levels  []core.StockLevel
	OrgCode string
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// ItemListResult is returned by ListItems. NextAfterName/NextAfterID are the
// keyset cursor for the following page; both are zero values when this is the
// last page.
type ItemListResult struct {
	Items         []core.Item
	NextAfterName string
	NextAfterID   int
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []core.Invoice
}

// UserSession identifies an authenticated user for token issuance.
type UserSession struct {
	UserID         int    `json:"user_id"`
	OrganizationID int    `json:"organization_id"`
	OrgCode        string `json:"org_code"`
	Username       string `json:"username"`
	Role           string `json:"role"`
}
