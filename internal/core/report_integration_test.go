package core_test

import (
	"context"
	"testing"
	"time"

	"stockbook/internal/core"
)

// seedHistory books receipts and removals with explicit transaction dates so
// historical reconstruction has something to walk back through.
func seedHistory(t *testing.T, svc core.StockService) {
	t.Helper()
	// Dates parse in the local zone to line up with the report's day
	// boundaries.
	day := func(s string) time.Time {
		d, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			t.Fatalf("bad date %s: %v", s, err)
		}
		return d
	}

	// Item 1 in MAIN: +100 on Jan 10, -30 on Feb 5, +20 on Mar 1 → now 90.
	mustAdjust(t, svc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("100"),
		TxnType: core.TxnIn, TransactionDate: day("2026-01-10")})
	mustAdjust(t, svc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("-30"),
		TxnType: core.TxnOut, TransactionDate: day("2026-02-05")})
	mustAdjust(t, svc, core.AdjustmentInput{ItemID: 1, WarehouseID: 1, SignedDelta: dec("20"),
		TxnType: core.TxnIn, TransactionDate: day("2026-03-01")})

	// Item 1 also in SHOP: +10 on Feb 10.
	mustAdjust(t, svc, core.AdjustmentInput{ItemID: 1, WarehouseID: 2, SignedDelta: dec("10"),
		TxnType: core.TxnIn, TransactionDate: day("2026-02-10")})

	// Item 2 in MAIN: +40 on Feb 20.
	mustAdjust(t, svc, core.AdjustmentInput{ItemID: 2, WarehouseID: 1, SignedDelta: dec("40"),
		TxnType: core.TxnIn, TransactionDate: day("2026-02-20")})
}

func findRow(t *testing.T, rows []core.StockReportRow, code string) core.StockReportRow {
	t.Helper()
	for _, r := range rows {
		if r.ItemCode == code {
			return r
		}
	}
	t.Fatalf("item %s not in report", code)
	return core.StockReportRow{}
}

func TestStockReport_CurrentSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, ledger := newStockService(pool)
	seedHistory(t, svc)

	reports := core.NewReportingService(pool, ledger)
	report, err := reports.BuildStockReport(context.Background(), 1, "", core.ReportFilters{})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	if report.Historical {
		t.Error("today's report should not be flagged historical")
	}

	rice := findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.Equal(dec("100")) { // 90 MAIN + 10 SHOP
		t.Errorf("expected rice stock 100, got %s", rice.ReconstructedStock)
	}
	oil := findRow(t, report.Rows, "OIL-15")
	if !oil.ReconstructedStock.Equal(dec("40")) {
		t.Errorf("expected oil stock 40, got %s", oil.ReconstructedStock)
	}
	// SOAP-72 has zero stock and is excluded by default.
	if len(report.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(report.Rows))
	}
	if report.Summary.TotalItems != 2 {
		t.Errorf("expected summary total 2, got %d", report.Summary.TotalItems)
	}
}

func TestStockReport_HistoricalReconstruction(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, ledger := newStockService(pool)
	seedHistory(t, svc)

	reports := core.NewReportingService(pool, ledger)
	ctx := context.Background()

	// As of Jan 31: only the Jan 10 receipt of 100 has happened.
	report, err := reports.BuildStockReport(ctx, 1, "2026-01-31", core.ReportFilters{})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	if !report.Historical {
		t.Error("past-dated report should be flagged historical")
	}
	rice := findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.Equal(dec("100")) {
		t.Errorf("as of Jan 31 expected 100, got %s", rice.ReconstructedStock)
	}

	// As of Feb 28: 100 - 30 + 10 (SHOP) = 80; oil 40 already received.
	report, err = reports.BuildStockReport(ctx, 1, "2026-02-28", core.ReportFilters{})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	rice = findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.Equal(dec("80")) {
		t.Errorf("as of Feb 28 expected 80, got %s", rice.ReconstructedStock)
	}
	oil := findRow(t, report.Rows, "OIL-15")
	if !oil.ReconstructedStock.Equal(dec("40")) {
		t.Errorf("as of Feb 28 expected oil 40, got %s", oil.ReconstructedStock)
	}

	// Entries dated exactly on the as-of date are included (cutoff is the
	// next day): as of Feb 5 the -30 removal already counts.
	report, err = reports.BuildStockReport(ctx, 1, "2026-02-05", core.ReportFilters{})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	rice = findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.Equal(dec("70")) {
		t.Errorf("as of Feb 5 expected 70, got %s", rice.ReconstructedStock)
	}
}

func TestStockReport_WarehouseFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, ledger := newStockService(pool)
	seedHistory(t, svc)

	reports := core.NewReportingService(pool, ledger)
	report, err := reports.BuildStockReport(context.Background(), 1, "", core.ReportFilters{
		WarehouseIDs: []int{2},
	})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}

	// Only SHOP quantities count: rice 10, oil absent (zero, filtered out).
	rice := findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.Equal(dec("10")) {
		t.Errorf("expected SHOP-only rice stock 10, got %s", rice.ReconstructedStock)
	}
	if len(report.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(report.Rows))
	}
}

func TestStockReport_HistoricalWarehouseFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, ledger := newStockService(pool)
	seedHistory(t, svc)

	reports := core.NewReportingService(pool, ledger)

	// As of Jan 31, SHOP had nothing yet: the Feb 10 receipt is undone.
	report, err := reports.BuildStockReport(context.Background(), 1, "2026-01-31", core.ReportFilters{
		WarehouseIDs:     []int{2},
		IncludeZeroStock: true,
	})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	rice := findRow(t, report.Rows, "RICE-25")
	if !rice.ReconstructedStock.IsZero() {
		t.Errorf("expected SHOP stock 0 as of Jan 31, got %s", rice.ReconstructedStock)
	}
}

func TestStockReport_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, ledger := newStockService(pool)
	seedHistory(t, svc)

	reports := core.NewReportingService(pool, ledger)
	ctx := context.Background()

	first, err := reports.BuildStockReport(ctx, 1, "2026-02-28", core.ReportFilters{IncludeZeroStock: true})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}
	second, err := reports.BuildStockReport(ctx, 1, "2026-02-28", core.ReportFilters{IncludeZeroStock: true})
	if err != nil {
		t.Fatalf("BuildStockReport failed: %v", err)
	}

	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		a, b := first.Rows[i], second.Rows[i]
		if a.ItemID != b.ItemID || !a.ReconstructedStock.Equal(b.ReconstructedStock) {
			t.Errorf("row %d differs between identical report runs", i)
		}
	}
}

func TestStockReport_InvalidDate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	_, ledger := newStockService(pool)

	reports := core.NewReportingService(pool, ledger)
	_, err := reports.BuildStockReport(context.Background(), 1, "31-01-2026", core.ReportFilters{})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error for malformed date, got %v", err)
	}
}
