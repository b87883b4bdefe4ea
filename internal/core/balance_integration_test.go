package core_test

import (
	"context"
	"testing"
	"time"

	"stockbook/internal/core"
)

func TestBalanceReport_Receivables(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)
	ledger := core.NewStockLedger(pool)
	reports := core.NewReportingService(pool, ledger)
	ctx := context.Background()

	// Invoice 17325 for CUST-001, dated 60 days back so it reads as overdue,
	// partially paid.
	inv := draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  time.Now().AddDate(0, 0, -60).Format("2006-01-02"),
		Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("10")}},
	})
	if _, err := svc.IssueInvoice(ctx, 1, inv.ID, nil); err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, 1, inv.ID, dec("10000"), "cash", "", ""); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	// A draft invoice must not show up in receivables.
	draftInvoice(t, svc, core.InvoiceInput{
		CustomerCode: "CUST-002",
		InvoiceDate:  "2026-06-16",
		Lines:        []core.InvoiceLineInput{{ItemCode: "OIL-15", Quantity: dec("2")}},
	})

	report, err := reports.BuildBalanceReport(ctx, 1)
	if err != nil {
		t.Fatalf("BuildBalanceReport failed: %v", err)
	}

	if len(report.Customers) != 1 {
		t.Fatalf("expected 1 customer with receivables, got %d", len(report.Customers))
	}
	cb := report.Customers[0]
	if cb.CustomerCode != "CUST-001" {
		t.Errorf("expected CUST-001, got %s", cb.CustomerCode)
	}
	if !cb.Invoiced.Equal(dec("17325")) {
		t.Errorf("expected invoiced 17325, got %s", cb.Invoiced)
	}
	if !cb.Received.Equal(dec("10000")) {
		t.Errorf("expected received 10000, got %s", cb.Received)
	}
	if !cb.Outstanding.Equal(dec("7325")) {
		t.Errorf("expected outstanding 7325, got %s", cb.Outstanding)
	}
	if !report.TotalOutstanding.Equal(dec("7325")) {
		t.Errorf("expected total outstanding 7325, got %s", report.TotalOutstanding)
	}
	if report.OverdueCount != 1 {
		t.Errorf("expected 1 overdue invoice, got %d", report.OverdueCount)
	}
}

func TestBalanceReport_EquallyPaidInvoicesStayDistinct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, _ := newInvoiceService(pool)
	ledger := core.NewStockLedger(pool)
	reports := core.NewReportingService(pool, ledger)
	ctx := context.Background()

	// Two identical invoices for the same customer, each fully paid with the
	// same amount. Their payment sums must stay attached to their own invoice
	// rather than collapsing into one.
	for i := 0; i < 2; i++ {
		inv := draftInvoice(t, svc, core.InvoiceInput{
			CustomerCode: "CUST-001",
			InvoiceDate:  "2026-06-15",
			Lines:        []core.InvoiceLineInput{{ItemCode: "RICE-25", Quantity: dec("10")}},
		})
		if _, err := svc.IssueInvoice(ctx, 1, inv.ID, nil); err != nil {
			t.Fatalf("IssueInvoice failed: %v", err)
		}
		if _, err := svc.RecordPayment(ctx, 1, inv.ID, dec("17325"), "upi", "", ""); err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
	}

	report, err := reports.BuildBalanceReport(ctx, 1)
	if err != nil {
		t.Fatalf("BuildBalanceReport failed: %v", err)
	}

	if len(report.Customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(report.Customers))
	}
	cb := report.Customers[0]
	if !cb.Invoiced.Equal(dec("34650")) {
		t.Errorf("expected invoiced 34650, got %s", cb.Invoiced)
	}
	if !cb.Received.Equal(dec("34650")) {
		t.Errorf("expected received 34650, got %s", cb.Received)
	}
	if !cb.Outstanding.IsZero() {
		t.Errorf("expected zero outstanding for fully paid customer, got %s", cb.Outstanding)
	}
	if !report.TotalOutstanding.IsZero() {
		t.Errorf("expected zero total outstanding, got %s", report.TotalOutstanding)
	}
	if report.OverdueCount != 0 {
		t.Errorf("expected no overdue invoices, got %d", report.OverdueCount)
	}
}
