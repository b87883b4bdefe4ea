package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stockbook/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func newInvoiceService(pool *pgxpool.Pool) (core.InvoiceService, core.StockService) {
	ledger := core.NewStockLedger(pool)
	stockSvc := core.NewStockService(pool, ledger)
	return core.NewInvoiceService(pool, stockSvc, ledger), stockSvc
}

func draftInvoice(t *testing.T, svc core.InvoiceService, in core.InvoiceInput) *core.Invoice {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	return inv
}

func TestInvoice_IntraStateGSTSplit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)

	// CUST-001 is in state 29, same as the org: CGST+SGST, no IGST.
	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-06-15",
		Lines: []core.InvoiceLineInput{
			{ItemCode: "RICE-25", Quantity: dec("10")}, // sale_price 1650, 5%
		},
	})

	if inv.Status != core.InvoiceDraft {
		t.Errorf("expected DRAFT, got %s", inv.Status)
	}
	if !inv.TaxableTotal.Equal(dec("16500")) {
		t.Errorf("expected taxable 16500, got %s", inv.TaxableTotal)
	}
	if !inv.CGSTTotal.Equal(dec("412.50")) || !inv.SGSTTotal.Equal(dec("412.50")) {
		t.Errorf("expected CGST=SGST=412.50, got %s/%s", inv.CGSTTotal, inv.SGSTTotal)
	}
	if !inv.IGSTTotal.IsZero() {
		t.Errorf("expected zero IGST intra-state, got %s", inv.IGSTTotal)
	}
	if !inv.GrandTotal.Equal(dec("17325")) || !inv.RoundedTotal.Equal(dec("17325")) {
		t.Errorf("expected grand 17325, got %s (rounded %s)", inv.GrandTotal, inv.RoundedTotal)
	}
	if inv.FinancialYear != 2026 {
		t.Errorf("expected FY 2026 for June 2026, got %d", inv.FinancialYear)
	}
}

func TestInvoice_InterStateIGST(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)

	// CUST-002 is in state 27: full rate as IGST.
	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-002",
		InvoiceDate:  "2026-06-15",
		Lines: []core.InvoiceLineInput{
			{ItemCode: "SOAP-72", Quantity: dec("5")}, // sale_price 980, 18%
		},
	})

	if !inv.CGSTTotal.IsZero() || !inv.SGSTTotal.IsZero() {
		t.Errorf("expected zero CGST/SGST inter-state, got %s/%s", inv.CGSTTotal, inv.SGSTTotal)
	}
	if !inv.IGSTTotal.Equal(dec("882")) { // 4900 * 18%
		t.Errorf("expected IGST 882, got %s", inv.IGSTTotal)
	}
}

func TestInvoice_GaplessNumbering(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		inv := draftInvoice(t, svc, core.InvoiceInput{
			CustomerCode: "CUST-001",
			InvoiceDate:  "2026-06-15",
			Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("1")}},
		})
		issued, err := svc.IssueInvoice(ctx, 1, inv.ID, nil)
		if err != nil {
			t.Fatalf("IssueInvoice failed: %v", err)
		}
		want := fmt.Sprintf("INV-2026-%05d", i)
		if issued.InvoiceNumber != want {
			t.Errorf("expected %s, got %s", want, issued.InvoiceNumber)
		}
		if issued.Status != core.InvoiceIssued {
			t.Errorf("expected ISSUED, got %s", issued.Status)
		}
	}

	// A different financial year starts its own sequence.
	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2027-05-01",
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("1")}},
	})
	issued, err := svc.IssueInvoice(ctx, 1, inv.ID, nil)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}
	if issued.InvoiceNumber != "INV-2027-00001" {
		t.Errorf("expected INV-2027-00001, got %s", issued.InvoiceNumber)
	}
}

func TestInvoice_IssueDeductsStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, stockSvc := newInvoiceService(pool)
	ctx := context.Background()

	mustAdjust(t, stockSvc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("50"), TxnType: core.TxnIn})

	warehouseID := 1
	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-06-15",
		UpdateStock:  true,
		WarehouseID:  warehouseID,
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("8")}},
	})
	issued, err := svc.IssueInvoice(ctx, 1, inv.ID, nil)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}

	var qty decimal.Decimal
	if err := pool.QueryRow(ctx,
		"SELECT quantity FROM item_warehouse_stock WHERE item_id = 1 AND warehouse_id = 1").Scan(&qty); err != nil {
		t.Fatal(err)
	}
	if !qty.Equal(dec("42")) {
		t.Errorf("expected stock 42 after issue, got %s", qty)
	}

	// Issue writes a SALE ledger entry referencing the invoice number.
	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM stock_ledger WHERE transaction_type = 'SALE' AND reference_no = $1",
		issued.InvoiceNumber).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 SALE ledger entry for %s, got %d", issued.InvoiceNumber, count)
	}
}

func TestInvoice_IssueAbortsOnInsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, stockSvc := newInvoiceService(pool)
	ctx := context.Background()

	mustAdjust(t, stockSvc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("5"), TxnType: core.TxnIn})

	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-06-15",
		UpdateStock:  true,
		WarehouseID:  1,
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("8")}},
	})
	_, err := svc.IssueInvoice(ctx, 1, inv.ID, nil)
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// The whole issue rolled back: still DRAFT, no number, stock untouched,
	// and the sequence was not burned.
	after, err := svc.GetInvoice(ctx, 1, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != core.InvoiceDraft || after.InvoiceNumber != "" {
		t.Errorf("expected DRAFT with no number, got %s %q", after.Status, after.InvoiceNumber)
	}
	var qty decimal.Decimal
	if err := pool.QueryRow(ctx,
		"SELECT quantity FROM item_warehouse_stock WHERE item_id = 1 AND warehouse_id = 1").Scan(&qty); err != nil {
		t.Fatal(err)
	}
	if !qty.Equal(dec("5")) {
		t.Errorf("stock changed after failed issue: %s", qty)
	}
	var lastNumber int64
	err = pool.QueryRow(ctx,
		"SELECT last_number FROM invoice_sequences WHERE organization_id = 1 AND financial_year = 2026").Scan(&lastNumber)
	if err == nil && lastNumber != 0 {
		t.Errorf("sequence burned by failed issue: %d", lastNumber)
	}
}

func TestInvoice_PaymentLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)
	ctx := context.Background()

	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-06-15",
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("10")}},
	})

	// Payments against a DRAFT are rejected.
	if _, err := svc.RecordPayment(ctx, 1, inv.ID, dec("1000"), "cash", "", ""); !core.IsValidation(err) {
		t.Fatalf("expected validation error for draft payment, got %v", err)
	}

	if _, err := svc.IssueInvoice(ctx, 1, inv.ID, nil); err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}

	// Partial payment keeps it ISSUED.
	if _, err := svc.RecordPayment(ctx, 1, inv.ID, dec("10000"), "upi", "2026-06-20", "TXN1"); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	after, _ := svc.GetInvoice(ctx, 1, inv.ID)
	if after.Status != core.InvoiceIssued {
		t.Errorf("expected ISSUED after partial payment, got %s", after.Status)
	}

	// Remainder flips it to PAID (rounded total 17325).
	if _, err := svc.RecordPayment(ctx, 1, inv.ID, dec("7325"), "upi", "2026-06-21", "TXN2"); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	after, _ = svc.GetInvoice(ctx, 1, inv.ID)
	if after.Status != core.InvoicePaid {
		t.Errorf("expected PAID, got %s", after.Status)
	}
}

func TestInvoice_CancelRestocks(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, stockSvc := newInvoiceService(pool)
	ctx := context.Background()

	mustAdjust(t, stockSvc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("50"), TxnType: core.TxnIn})

	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-06-15",
		UpdateStock:  true,
		WarehouseID:  1,
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("8")}},
	})
	issued, err := svc.IssueInvoice(ctx, 1, inv.ID, nil)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}

	cancelled, err := svc.CancelInvoice(ctx, 1, inv.ID, "customer_returned", nil)
	if err != nil {
		t.Fatalf("CancelInvoice failed: %v", err)
	}
	if cancelled.Status != core.InvoiceCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	var qty decimal.Decimal
	if err := pool.QueryRow(ctx,
		"SELECT quantity FROM item_warehouse_stock WHERE item_id = 1 AND warehouse_id = 1").Scan(&qty); err != nil {
		t.Fatal(err)
	}
	if !qty.Equal(dec("50")) {
		t.Errorf("expected stock restored to 50, got %s", qty)
	}

	// The SALE entry is untouched; an offsetting CORRECTION entry is added.
	var sales, corrections int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM stock_ledger WHERE transaction_type = 'SALE' AND reference_no = $1",
		issued.InvoiceNumber).Scan(&sales); err != nil {
		t.Fatal(err)
	}
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM stock_ledger WHERE transaction_type = 'CORRECTION' AND reference_no = $1",
		issued.InvoiceNumber).Scan(&corrections); err != nil {
		t.Fatal(err)
	}
	if sales != 1 || corrections != 1 {
		t.Errorf("expected 1 SALE and 1 CORRECTION entry, got %d/%d", sales, corrections)
	}

	// Cancelling twice is invalid.
	if _, err := svc.CancelInvoice(ctx, 1, inv.ID, "again", nil); !core.IsValidation(err) {
		t.Errorf("expected validation error on double cancel, got %v", err)
	}
}
