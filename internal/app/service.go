package app

import (
	"context"

	"stockbook/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI tools)
// call. It decouples presentation from business logic: implementations
// resolve org codes to ids at the edge and delegate to the core services.
type ApplicationService interface {
	// AdjustStock applies a signed stock adjustment through the
	// reconciliation engine and returns the new quantities.
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResult, error)

	// GetStockReport builds the point-in-time stock report. asOfDate empty
	// means today.
	GetStockReport(ctx context.Context, req StockReportRequest) (*core.StockReport, error)

	// GetStockLedger returns ledger entries for one item in chronological
	// order, optionally bounded by from/to dates (empty means unbounded).
	GetStockLedger(ctx context.Context, orgCode string, itemID int, fromDate, toDate string) (*StockLedgerResult, error)

	// GetBalanceReport returns per-customer receivables.
	GetBalanceReport(ctx context.Context, orgCode string) (*core.BalanceReport, error)

	// ListWarehouses returns all active warehouses for an organization.
	ListWarehouses(ctx context.Context, orgCode string) (*WarehouseListResult, error)
	CreateWarehouse(ctx context.Context, orgCode, code, name string) (*core.Warehouse, error)

	// GetStockLevels returns per-warehouse quantity rows.
	GetStockLevels(ctx context.Context, orgCode string) (*StockLevelsResult, error)

	// GetItemStock returns the per-warehouse breakdown for a single item.
	GetItemStock(ctx context.Context, orgCode string, itemID int) ([]core.WarehouseStock, error)

	// Catalog.
	ListItems(ctx context.Context, orgCode, afterName string, afterID, limit int) (*ItemListResult, error)
	GetItem(ctx context.Context, orgCode string, itemID int) (*core.Item, error)
	CreateItem(ctx context.Context, orgCode string, in core.ItemInput) (*core.Item, error)
	UpdateItem(ctx context.Context, orgCode string, itemID int, in core.ItemInput) (*core.Item, error)
	DeactivateItem(ctx context.Context, orgCode string, itemID int) error

	// Customers.
	ListCustomers(ctx context.Context, orgCode string) (*CustomerListResult, error)
	CreateCustomer(ctx context.Context, orgCode string, in core.CustomerInput) (*core.Customer, error)

	// Invoicing lifecycle.
	CreateInvoice(ctx context.Context, orgCode string, in core.InvoiceInput) (*core.Invoice, error)
	GetInvoice(ctx context.Context, orgCode string, invoiceID int) (*core.Invoice, error)
	ListInvoices(ctx context.Context, orgCode, status string) (*InvoiceListResult, error)
	IssueInvoice(ctx context.Context, orgCode string, invoiceID int, actorID *int) (*core.Invoice, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*core.Payment, error)
	CancelInvoice(ctx context.Context, orgCode string, invoiceID int, reason string, actorID *int) (*core.Invoice, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns a user profile by id.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// GetOrganization returns the organization for an org code.
	GetOrganization(ctx context.Context, orgCode string) (*core.Organization, error)
}
