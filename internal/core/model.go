package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType classifies a stock ledger entry.
type TxnType string

const (
	TxnIn         TxnType = "IN"         // goods receipt / opening balance
	TxnOut        TxnType = "OUT"        // generic issue
	TxnSale       TxnType = "SALE"       // deduction booked by invoice issue
	TxnAdjustment TxnType = "ADJUSTMENT" // manual correction of physical count
	TxnCorrection TxnType = "CORRECTION" // offsetting entry cancelling a prior one
)

// StockStatus classifies reconstructed stock against the item's thresholds.
type StockStatus string

const (
	StatusLow    StockStatus = "low"
	StatusNormal StockStatus = "normal"
	StatusHigh   StockStatus = "high"
)

type Organization struct {
	ID           int    `json:"id"`
	OrgCode      string `json:"org_code"`
	Name         string `json:"name"`
	StateCode    string `json:"state_code"` // two-digit GST state code, e.g. "29"
	GSTIN        string `json:"gstin"`
	BaseCurrency string `json:"base_currency"`
}

type Warehouse struct {
	ID             int       `json:"id"`
	OrganizationID int       `json:"organization_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Item is a catalog entry. CurrentStock is a cached total across all
// warehouses; it is written only by the stock service, which always rederives
// it from the item_warehouse_stock rows rather than incrementing it.
type Item struct {
	ID             int             `json:"id"`
	OrganizationID int             `json:"organization_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	PackUnit       string          `json:"pack_unit,omitempty"`
	PackSize       decimal.Decimal `json:"pack_size"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	GSTRate        decimal.Decimal `json:"gst_rate"` // percent, e.g. 18
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinStock       decimal.Decimal `json:"min_stock"`
	MaxStock       decimal.Decimal `json:"max_stock"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// WarehouseStock is one (item, warehouse) quantity row. Rows are created
// lazily by the first ADD; quantity never goes below zero.
type WarehouseStock struct {
	ItemID      int             `json:"item_id"`
	WarehouseID int             `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Location    *string         `json:"location,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockLevel is a read view of a warehouse stock row joined with item and
// warehouse info.
type StockLevel struct {
	ItemID        int             `json:"item_id"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	WarehouseID   int             `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Location      *string         `json:"location,omitempty"`
}

// LedgerEntry is an immutable audit record of one quantity change. Entries
// are never updated or deleted; a cancellation appends an offsetting entry.
type LedgerEntry struct {
	ID              int             `json:"id"`
	OrganizationID  int             `json:"organization_id"`
	ItemID          int             `json:"item_id"`
	WarehouseID     *int            `json:"warehouse_id,omitempty"`
	TxnType         TxnType         `json:"transaction_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityChange  decimal.Decimal `json:"quantity_change"` // signed
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	EntryUnit       string          `json:"entry_unit"`
	ReferenceNo     *string         `json:"reference_no,omitempty"`
	Reason          string          `json:"reason"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedBy       *int            `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Customer struct {
	ID             int       `json:"id"`
	OrganizationID int       `json:"organization_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	GSTIN          *string   `json:"gstin,omitempty"`
	StateCode      string    `json:"state_code"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Address        *string   `json:"address,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type Invoice struct {
	ID             int             `json:"id"`
	OrganizationID int             `json:"organization_id"`
	CustomerID     int             `json:"customer_id"`
	CustomerCode   string          `json:"customer_code"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"` // assigned on issue
	FinancialYear  int             `json:"financial_year"`
	InvoiceDate    string          `json:"invoice_date"` // YYYY-MM-DD
	TaxableTotal   decimal.Decimal `json:"taxable_total"`
	CGSTTotal      decimal.Decimal `json:"cgst_total"`
	SGSTTotal      decimal.Decimal `json:"sgst_total"`
	IGSTTotal      decimal.Decimal `json:"igst_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	RoundedTotal   decimal.Decimal `json:"rounded_total"`
	Status         InvoiceStatus   `json:"status"`
	UpdateStock    bool            `json:"update_stock"`
	WarehouseID    *int            `json:"warehouse_id,omitempty"` // deduction warehouse when update_stock
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Lines          []InvoiceLine   `json:"lines"`
}

type InvoiceLine struct {
	ID           int             `json:"id"`
	InvoiceID    int             `json:"invoice_id"`
	ItemID       int             `json:"item_id"`
	ItemCode     string          `json:"item_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type Payment struct {
	ID             int             `json:"id"`
	OrganizationID int             `json:"organization_id"`
	InvoiceID      int             `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaidOn         string          `json:"paid_on"` // YYYY-MM-DD
	Mode           string          `json:"mode"`
	Reference      *string         `json:"reference,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type User struct {
	ID             int       `json:"id"`
	OrganizationID int       `json:"organization_id"`
	OrgCode        string    `json:"org_code"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
