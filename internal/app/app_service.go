package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockbook/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// parseDateBound parses an optional YYYY-MM-DD bound; empty means unbounded.
func parseDateBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", core.ErrInvalidOperation, s)
	}
	return t, nil
}

type appService struct {
	pool        *pgxpool.Pool
	orgSvc      core.OrgService
	stockSvc    core.StockService
	ledger      core.StockLedger
	reportSvc   core.ReportingService
	catalogSvc  core.CatalogService
	customerSvc core.CustomerService
	invoiceSvc  core.InvoiceService
	userSvc     core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	orgSvc core.OrgService,
	stockSvc core.StockService,
	ledger core.StockLedger,
	reportSvc core.ReportingService,
	catalogSvc core.CatalogService,
	customerSvc core.CustomerService,
	invoiceSvc core.InvoiceService,
	userSvc core.UserService,
) ApplicationService {
	return &appService{
		pool:        pool,
		orgSvc:      orgSvc,
		stockSvc:    stockSvc,
		ledger:      ledger,
		reportSvc:   reportSvc,
		catalogSvc:  catalogSvc,
		customerSvc: customerSvc,
		invoiceSvc:  invoiceSvc,
		userSvc:     userSvc,
	}
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, req.OrgCode)
	if err != nil {
		return nil, err
	}

	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: adjustment quantity must be positive", core.ErrInvalidOperation)
	}
	delta := req.Quantity
	switch strings.ToLower(req.Operation) {
	case "add":
	case "reduce":
		delta = delta.Neg()
	default:
		return nil, fmt.Errorf("%w: operation type must be ADD or REDUCE, got %q", core.ErrInvalidOperation, req.Operation)
	}

	result, err := s.stockSvc.ApplyAdjustment(ctx, orgID, core.AdjustmentInput{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		SignedDelta: delta,
		EntryUnit:   req.EntryUnit,
		TxnType:     core.TxnAdjustment,
		Reason:      req.Reason,
		Notes:       req.Notes,
		ReferenceNo: req.ReferenceNo,
		ActorID:     req.ActorID,
	})
	if err != nil {
		return nil, err
	}
	return &AdjustStockResult{Adjustment: result, OrgCode: req.OrgCode}, nil
}

func (s *appService) GetStockReport(ctx context.Context, req StockReportRequest) (*core.StockReport, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, req.OrgCode)
	if err != nil {
		return nil, err
	}
	return s.reportSvc.BuildStockReport(ctx, orgID, req.AsOfDate, core.ReportFilters{
		IncludeZeroStock: req.IncludeZeroStock,
		WarehouseIDs:     req.WarehouseIDs,
		Categories:       req.Categories,
		StockStatus:      req.StockStatus,
		SearchTerm:       req.SearchTerm,
	})
}

func (s *appService) GetStockLedger(ctx context.Context, orgCode string, itemID int, fromDate, toDate string) (*StockLedgerResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	from, err := parseDateBound(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDateBound(toDate)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.EntriesForItem(ctx, orgID, itemID, from, to)
	if err != nil {
		return nil, err
	}
	return &StockLedgerResult{Entries: entries, ItemID: itemID}, nil
}

func (s *appService) GetBalanceReport(ctx context.Context, orgCode string) (*core.BalanceReport, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.reportSvc.BuildBalanceReport(ctx, orgID)
}

func (s *appService) ListWarehouses(ctx context.Context, orgCode string) (*WarehouseListResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.stockSvc.GetWarehouses(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) CreateWarehouse(ctx context.Context, orgCode, code, name string) (*core.Warehouse, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.catalogSvc.CreateWarehouse(ctx, orgID, code, name)
}

func (s *appService) GetStockLevels(ctx context.Context, orgCode string) (*StockLevelsResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	levels, err := s.stockSvc.GetStockLevels(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &StockLevelsResult{Levels: levels, OrgCode: orgCode}, nil
}

func (s *appService) GetItemStock(ctx context.Context, orgCode string, itemID int) ([]core.WarehouseStock, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.stockSvc.GetWarehouseStock(ctx, orgID, itemID)
}

func (s *appService) ListItems(ctx context.Context, orgCode, afterName string, afterID, limit int) (*ItemListResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	items, err := s.catalogSvc.ListItems(ctx, orgID, afterName, afterID, limit)
	if err != nil {
		return nil, err
	}
	result := &ItemListResult{Items: items}
	if limit > 0 && len(items) == limit {
		last := items[len(items)-1]
		result.NextAfterName = last.Name
		result.NextAfterID = last.ID
	}
	return result, nil
}

func (s *appService) GetItem(ctx context.Context, orgCode string, itemID int) (*core.Item, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.catalogSvc.GetItem(ctx, orgID, itemID)
}

func (s *appService) CreateItem(ctx context.Context, orgCode string, in core.ItemInput) (*core.Item, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.catalogSvc.CreateItem(ctx, orgID, in)
}

func (s *appService) UpdateItem(ctx context.Context, orgCode string, itemID int, in core.ItemInput) (*core.Item, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.catalogSvc.UpdateItem(ctx, orgID, itemID, in)
}

func (s *appService) DeactivateItem(ctx context.Context, orgCode string, itemID int) error {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return err
	}
	return s.catalogSvc.DeactivateItem(ctx, orgID, itemID)
}

func (s *appService) ListCustomers(ctx context.Context, orgCode string) (*CustomerListResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerSvc.ListCustomers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) CreateCustomer(ctx context.Context, orgCode string, in core.CustomerInput) (*core.Customer, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.customerSvc.CreateCustomer(ctx, orgID, in)
}

func (s *appService) CreateInvoice(ctx context.Context, orgCode string, in core.InvoiceInput) (*core.Invoice, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.invoiceSvc.CreateInvoice(ctx, orgID, in)
}

func (s *appService) GetInvoice(ctx context.Context, orgCode string, invoiceID int) (*core.Invoice, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.invoiceSvc.GetInvoice(ctx, orgID, invoiceID)
}

func (s *appService) ListInvoices(ctx context.Context, orgCode, status string) (*InvoiceListResult, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceSvc.ListInvoices(ctx, orgID, status)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) IssueInvoice(ctx context.Context, orgCode string, invoiceID int, actorID *int) (*core.Invoice, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.invoiceSvc.IssueInvoice(ctx, orgID, invoiceID, actorID)
}

func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*core.Payment, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, req.OrgCode)
	if err != nil {
		return nil, err
	}
	return s.invoiceSvc.RecordPayment(ctx, orgID, req.InvoiceID, req.Amount, req.Mode, req.PaidOn, req.Reference)
}

func (s *appService) CancelInvoice(ctx context.Context, orgCode string, invoiceID int, reason string, actorID *int) (*core.Invoice, error) {
	orgID, err := s.orgSvc.ResolveID(ctx, orgCode)
	if err != nil {
		return nil, err
	}
	return s.invoiceSvc.CancelInvoice(ctx, orgID, invoiceID, reason, actorID)
}

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.userSvc.GetByUsername(ctx, username)
	if err != nil {
		return nil, core.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, core.ErrUnauthorized
	}
	return &UserSession{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		OrgCode:        user.OrgCode,
		Username:       user.Username,
		Role:           user.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.userSvc.GetByID(ctx, userID)
}

func (s *appService) GetOrganization(ctx context.Context, orgCode string) (*core.Organization, error) {
	return s.orgSvc.GetByCode(ctx, orgCode)
}
