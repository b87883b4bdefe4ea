package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceLineInput is one requested invoice line. A zero UnitPrice means
// "use the item's catalog sale price".
type InvoiceLineInput struct {
	ItemCode  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// InvoiceInput describes a draft invoice to create.
type InvoiceInput struct {
	CustomerCode string
	InvoiceDate  string // YYYY-MM-DD; empty means today
	UpdateStock  bool
	WarehouseID  int // deduction warehouse, required when UpdateStock
	Notes        string
	Lines        []InvoiceLineInput
	ActorID      *int
}

// InvoiceService manages the sales invoice lifecycle: DRAFT → ISSUED →
// PAID/CANCELLED. Issuing assigns a gapless per-financial-year invoice
// number and, when update_stock is set, deducts stock through the
// reconciliation engine so SALE ledger entries are written alongside the
// invoice.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, orgID int, in InvoiceInput) (*Invoice, error)
	GetInvoice(ctx context.Context, orgID, invoiceID int) (*Invoice, error)
	ListInvoices(ctx context.Context, orgID int, status string) ([]Invoice, error)
	IssueInvoice(ctx context.Context, orgID, invoiceID int, actorID *int) (*Invoice, error)
	RecordPayment(ctx context.Context, orgID, invoiceID int, amount decimal.Decimal, mode, paidOn, reference string) (*Payment, error)
	// CancelInvoice voids an ISSUED invoice. Stock deducted on issue is
	// restored through offsetting CORRECTION ledger entries; history is
	// never edited.
	CancelInvoice(ctx context.Context, orgID, invoiceID int, reason string, actorID *int) (*Invoice, error)
}

type invoiceService struct {
	pool     *pgxpool.Pool
	stockSvc StockService
	ledger   StockLedger
}

func NewInvoiceService(pool *pgxpool.Pool, stockSvc StockService, ledger StockLedger) InvoiceService {
	return &invoiceService{pool: pool, stockSvc: stockSvc, ledger: ledger}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, orgID int, in InvoiceInput) (*Invoice, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice requires at least one line", ErrInvalidOperation)
	}
	invoiceDate := in.InvoiceDate
	if invoiceDate == "" {
		invoiceDate = time.Now().Format("2006-01-02")
	}
	parsedDate, err := time.Parse("2006-01-02", invoiceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid invoice date %q", ErrInvalidOperation, invoiceDate)
	}
	if in.UpdateStock && in.WarehouseID == 0 {
		return nil, fmt.Errorf("%w: update_stock requires a warehouse", ErrInvalidOperation)
	}

	var sellerState string
	err = s.pool.QueryRow(ctx,
		"SELECT state_code FROM organizations WHERE id = $1", orgID,
	).Scan(&sellerState)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to resolve organization: %w", err)
	}

	var customerID int
	var buyerState string
	err = s.pool.QueryRow(ctx,
		"SELECT id, state_code FROM customers WHERE organization_id = $1 AND code = $2 AND is_active = true",
		orgID, in.CustomerCode,
	).Scan(&customerID, &buyerState)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %q: %w", in.CustomerCode, ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	interState := IsInterState(sellerState, buyerState)

	type pricedLine struct {
		itemID    int
		itemCode  string
		qty       decimal.Decimal
		unitPrice decimal.Decimal
		rate      decimal.Decimal
		tax       GSTBreakup
	}
	var priced []pricedLine
	var taxableTotal, cgstTotal, sgstTotal, igstTotal decimal.Decimal

	for _, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: quantity for item %q must be positive", ErrInvalidOperation, line.ItemCode)
		}
		var itemID int
		var salePrice, gstRate decimal.Decimal
		err = s.pool.QueryRow(ctx,
			"SELECT id, sale_price, gst_rate FROM items WHERE organization_id = $1 AND code = $2 AND is_active = true",
			orgID, line.ItemCode,
		).Scan(&itemID, &salePrice, &gstRate)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item %q: %w", line.ItemCode, ErrItemNotFound)
			}
			return nil, fmt.Errorf("failed to resolve item %q: %w", line.ItemCode, err)
		}

		unitPrice := line.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = salePrice
		}
		tax := ComputeLineTax(line.Quantity, unitPrice, gstRate, interState)
		priced = append(priced, pricedLine{
			itemID: itemID, itemCode: line.ItemCode,
			qty: line.Quantity, unitPrice: unitPrice, rate: gstRate, tax: tax,
		})
		taxableTotal = taxableTotal.Add(tax.Taxable)
		cgstTotal = cgstTotal.Add(tax.CGST)
		sgstTotal = sgstTotal.Add(tax.SGST)
		igstTotal = igstTotal.Add(tax.IGST)
	}

	grandTotal := taxableTotal.Add(cgstTotal).Add(sgstTotal).Add(igstTotal).Round(2)
	roundedTotal := RoundToRupee(grandTotal)
	financialYear := FinancialYearOf(parsedDate)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var warehouseID *int
	if in.UpdateStock {
		warehouseID = &in.WarehouseID
	}
	var notes *string
	if in.Notes != "" {
		notes = &in.Notes
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (organization_id, customer_id, financial_year, invoice_date,
		                      taxable_total, cgst_total, sgst_total, igst_total,
		                      grand_total, rounded_total, status, update_stock, warehouse_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, orgID, customerID, financialYear, invoiceDate,
		taxableTotal, cgstTotal, sgstTotal, igstTotal,
		grandTotal, roundedTotal, string(InvoiceDraft), in.UpdateStock, warehouseID, notes,
	).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for _, pl := range priced {
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, item_id, quantity, unit_price,
			                           taxable_value, gst_rate, cgst, sgst, igst, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, invoiceID, pl.itemID, pl.qty, pl.unitPrice,
			pl.tax.Taxable, pl.rate, pl.tax.CGST, pl.tax.SGST, pl.tax.IGST, pl.tax.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice line for %q: %w", pl.itemCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice: %w", err)
	}

	return s.GetInvoice(ctx, orgID, invoiceID)
}

func (s *invoiceService) GetInvoice(ctx context.Context, orgID, invoiceID int) (*Invoice, error) {
	inv := &Invoice{}
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT i.id, i.organization_id, i.customer_id, c.code,
		       COALESCE(i.invoice_number, ''), i.financial_year, i.invoice_date::text,
		       i.taxable_total, i.cgst_total, i.sgst_total, i.igst_total,
		       i.grand_total, i.rounded_total, i.status, i.update_stock, i.warehouse_id,
		       i.notes, i.created_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.organization_id = $1 AND i.id = $2
	`, orgID, invoiceID).Scan(
		&inv.ID, &inv.OrganizationID, &inv.CustomerID, &inv.CustomerCode,
		&inv.InvoiceNumber, &inv.FinancialYear, &inv.InvoiceDate,
		&inv.TaxableTotal, &inv.CGSTTotal, &inv.SGSTTotal, &inv.IGSTTotal,
		&inv.GrandTotal, &inv.RoundedTotal, &status, &inv.UpdateStock, &inv.WarehouseID,
		&inv.Notes, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	inv.Status = InvoiceStatus(status)

	rows, err := s.pool.Query(ctx, `
		SELECT il.id, il.invoice_id, il.item_id, it.code, il.quantity, il.unit_price,
		       il.taxable_value, il.gst_rate, il.cgst, il.sgst, il.igst, il.line_total
		FROM invoice_lines il
		JOIN items it ON it.id = il.item_id
		WHERE il.invoice_id = $1
		ORDER BY il.id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ItemID, &l.ItemCode, &l.Quantity, &l.UnitPrice,
			&l.TaxableValue, &l.GSTRate, &l.CGST, &l.SGST, &l.IGST, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func (s *invoiceService) ListInvoices(ctx context.Context, orgID int, status string) ([]Invoice, error) {
	q := `
		SELECT i.id, i.organization_id, i.customer_id, c.code,
		       COALESCE(i.invoice_number, ''), i.financial_year, i.invoice_date::text,
		       i.taxable_total, i.cgst_total, i.sgst_total, i.igst_total,
		       i.grand_total, i.rounded_total, i.status, i.update_stock, i.warehouse_id,
		       i.notes, i.created_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.organization_id = $1`
	args := []any{orgID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	q += " ORDER BY i.id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var st string
		if err := rows.Scan(
			&inv.ID, &inv.OrganizationID, &inv.CustomerID, &inv.CustomerCode,
			&inv.InvoiceNumber, &inv.FinancialYear, &inv.InvoiceDate,
			&inv.TaxableTotal, &inv.CGSTTotal, &inv.SGSTTotal, &inv.IGSTTotal,
			&inv.GrandTotal, &inv.RoundedTotal, &st, &inv.UpdateStock, &inv.WarehouseID,
			&inv.Notes, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Status = InvoiceStatus(st)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// IssueInvoice transitions DRAFT → ISSUED inside one transaction: the
// gapless number assignment, the status change, and (when update_stock) the
// per-line stock deductions land together or not at all. Insufficient stock
// on any line aborts the whole issue. Ledger entries for the deductions are
// appended after commit; append failures are logged, not surfaced.
func (s *invoiceService) IssueInvoice(ctx context.Context, orgID, invoiceID int, actorID *int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var financialYear int
	var updateStock bool
	var warehouseID *int
	err = tx.QueryRow(ctx, `
		SELECT status, financial_year, update_stock, warehouse_id
		FROM invoices
		WHERE organization_id = $1 AND id = $2
		FOR UPDATE
	`, orgID, invoiceID).Scan(&status, &financialYear, &updateStock, &warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if InvoiceStatus(status) != InvoiceDraft {
		return nil, fmt.Errorf("%w: invoice must be DRAFT to issue, current status %s", ErrInvalidOperation, status)
	}

	// Concurrency-safe gapless sequence per (organization, financial year).
	var lastNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO invoice_sequences (organization_id, financial_year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (organization_id, financial_year)
		DO UPDATE SET last_number = invoice_sequences.last_number + 1
		RETURNING last_number
	`, orgID, financialYear).Scan(&lastNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}
	invoiceNumber := fmt.Sprintf("INV-%d-%05d", financialYear, lastNumber)

	var pendingEntries []*LedgerEntry
	if updateStock {
		lines, err := fetchIssueLines(ctx, tx, invoiceID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			_, entry, err := s.stockSvc.ApplyAdjustmentTx(ctx, tx, orgID, AdjustmentInput{
				ItemID:      line.itemID,
				WarehouseID: *warehouseID,
				SignedDelta: line.qty.Neg(),
				EntryUnit:   line.unit,
				TxnType:     TxnSale,
				Reason:      "invoice_issue",
				ReferenceNo: invoiceNumber,
				ActorID:     actorID,
			})
			if err != nil {
				return nil, fmt.Errorf("stock deduction for item %q: %w", line.itemCode, err)
			}
			pendingEntries = append(pendingEntries, entry)
		}
	}

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET status = $1, invoice_number = $2 WHERE id = $3",
		string(InvoiceIssued), invoiceNumber, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice issue: %w", err)
	}

	appendPending(ctx, s.ledger, invoiceNumber, pendingEntries)
	return s.GetInvoice(ctx, orgID, invoiceID)
}

func (s *invoiceService) RecordPayment(ctx context.Context, orgID, invoiceID int, amount decimal.Decimal, mode, paidOn, reference string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidOperation)
	}
	if paidOn == "" {
		paidOn = time.Now().Format("2006-01-02")
	}
	if mode == "" {
		mode = "cash"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var roundedTotal decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT status, rounded_total FROM invoices
		WHERE organization_id = $1 AND id = $2
		FOR UPDATE
	`, orgID, invoiceID).Scan(&status, &roundedTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if InvoiceStatus(status) != InvoiceIssued {
		return nil, fmt.Errorf("%w: payments are only accepted against ISSUED invoices, current status %s", ErrInvalidOperation, status)
	}

	var ref *string
	if reference != "" {
		ref = &reference
	}
	p := &Payment{}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (organization_id, invoice_id, amount, paid_on, mode, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, organization_id, invoice_id, amount, paid_on::text, mode, reference, created_at
	`, orgID, invoiceID, amount, paidOn, mode, ref).Scan(
		&p.ID, &p.OrganizationID, &p.InvoiceID, &p.Amount, &p.PaidOn, &p.Mode, &p.Reference, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	var received decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1", invoiceID,
	).Scan(&received)
	if err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}
	if received.GreaterThanOrEqual(roundedTotal) {
		if _, err = tx.Exec(ctx,
			"UPDATE invoices SET status = $1 WHERE id = $2", string(InvoicePaid), invoiceID); err != nil {
			return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return p, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, orgID, invoiceID int, reason string, actorID *int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status, invoiceNumber string
	var updateStock bool
	var warehouseID *int
	err = tx.QueryRow(ctx, `
		SELECT status, COALESCE(invoice_number, ''), update_stock, warehouse_id
		FROM invoices
		WHERE organization_id = $1 AND id = $2
		FOR UPDATE
	`, orgID, invoiceID).Scan(&status, &invoiceNumber, &updateStock, &warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if InvoiceStatus(status) != InvoiceIssued {
		return nil, fmt.Errorf("%w: only ISSUED invoices can be cancelled, current status %s", ErrInvalidOperation, status)
	}
	if reason == "" {
		reason = "invoice_cancelled"
	}

	// Restock with offsetting CORRECTION entries rather than touching the
	// SALE entries written on issue.
	var pendingEntries []*LedgerEntry
	if updateStock {
		lines, err := fetchIssueLines(ctx, tx, invoiceID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			_, entry, err := s.stockSvc.ApplyAdjustmentTx(ctx, tx, orgID, AdjustmentInput{
				ItemID:      line.itemID,
				WarehouseID: *warehouseID,
				SignedDelta: line.qty,
				EntryUnit:   line.unit,
				TxnType:     TxnCorrection,
				Reason:      reason,
				ReferenceNo: invoiceNumber,
				ActorID:     actorID,
			})
			if err != nil {
				return nil, fmt.Errorf("restock for item %q: %w", line.itemCode, err)
			}
			pendingEntries = append(pendingEntries, entry)
		}
	}

	if _, err = tx.Exec(ctx,
		"UPDATE invoices SET status = $1 WHERE id = $2", string(InvoiceCancelled), invoiceID); err != nil {
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	appendPending(ctx, s.ledger, invoiceNumber, pendingEntries)
	return s.GetInvoice(ctx, orgID, invoiceID)
}

type issueLine struct {
	itemID   int
	itemCode string
	unit     string
	qty      decimal.Decimal
}

func fetchIssueLines(ctx context.Context, tx pgx.Tx, invoiceID int) ([]issueLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT il.item_id, it.code, it.unit, il.quantity
		FROM invoice_lines il
		JOIN items it ON it.id = il.item_id
		WHERE il.invoice_id = $1
		ORDER BY il.id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []issueLine
	for rows.Next() {
		var l issueLine
		if err := rows.Scan(&l.itemID, &l.itemCode, &l.unit, &l.qty); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// appendPending writes ledger entries collected during a committed
// transaction. Failures leave an audit gap: the quantity changes are already
// durable, so the miss is logged and the operation still succeeds.
func appendPending(ctx context.Context, ledger StockLedger, reference string, entries []*LedgerEntry) {
	for _, entry := range entries {
		if _, err := ledger.Append(ctx, entry); err != nil {
			log.Printf("stock ledger append failed for %s (item=%d change=%s): %v",
				reference, entry.ItemID, entry.QuantityChange, err)
		}
	}
}
