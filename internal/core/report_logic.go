package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReportFilters are the optional stock report filters. They are applied
// in-memory after the full item set is materialized, never pushed into the
// paginated fetch.
type ReportFilters struct {
	IncludeZeroStock bool
	WarehouseIDs     []int
	Categories       []string
	StockStatus      string // "all" | "low" | "high"
	SearchTerm       string
}

// StockReportRow is one reconstructed, classified item in a stock report.
type StockReportRow struct {
	ItemID             int             `json:"item_id"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	Category           string          `json:"category"`
	Unit               string          `json:"unit"`
	ReconstructedStock decimal.Decimal `json:"stock"`
	StockValue         decimal.Decimal `json:"stock_value"`
	MinStock           decimal.Decimal `json:"min_stock"`
	MaxStock           decimal.Decimal `json:"max_stock"`
	Status             StockStatus     `json:"status"`
}

// StockReportSummary aggregates the filtered rows.
type StockReportSummary struct {
	TotalItems      int             `json:"total_items"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	LowStockItems   int             `json:"low_stock_items"`
	OverstockItems  int             `json:"overstock_items"`
}

// startOfDay returns midnight of t's calendar day in t's own zone. The report
// day boundary must follow the wall clock: Truncate(24h) floors to the UTC
// day, which disagrees with the local date until the UTC offset elapses each
// morning.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// reconstructStock applies the historical-reconstruction identity: stock as
// of date D = stock now, minus the net effect of every ledger entry dated
// after D.
func reconstructStock(currentStock, postDateAdjustment decimal.Decimal) decimal.Decimal {
	return currentStock.Sub(postDateAdjustment)
}

// stockValue prices reconstructed stock at purchase price, rounding to two
// places at this final step only.
func stockValue(stock, purchasePrice decimal.Decimal) decimal.Decimal {
	return stock.Mul(purchasePrice).Round(2)
}

// classifyStock maps reconstructed stock onto low/normal/high. The boundaries
// are inclusive: stock == min is low, stock == max is high. An item with
// max_stock == 0 never classifies as high.
func classifyStock(stock, minStock, maxStock decimal.Decimal) StockStatus {
	if stock.LessThanOrEqual(minStock) {
		return StatusLow
	}
	if maxStock.IsPositive() && stock.GreaterThanOrEqual(maxStock) {
		return StatusHigh
	}
	return StatusNormal
}

// applyReportFilters filters reconstructed rows in a fixed order: zero-stock
// first, then categories, then search term, then stock status.
func applyReportFilters(rows []StockReportRow, f ReportFilters) []StockReportRow {
	out := rows[:0:0]
	for _, r := range rows {
		if !f.IncludeZeroStock && !r.ReconstructedStock.IsPositive() {
			continue
		}
		out = append(out, r)
	}

	if len(f.Categories) > 0 {
		wanted := make(map[string]bool, len(f.Categories))
		for _, c := range f.Categories {
			wanted[strings.ToLower(strings.TrimSpace(c))] = true
		}
		filtered := out[:0]
		for _, r := range out {
			if wanted[strings.ToLower(r.Category)] {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		filtered := out[:0]
		for _, r := range out {
			if strings.Contains(strings.ToLower(r.ItemName), term) ||
				strings.Contains(strings.ToLower(r.ItemCode), term) {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	if f.StockStatus == string(StatusLow) || f.StockStatus == string(StatusHigh) {
		filtered := out[:0]
		for _, r := range out {
			if string(r.Status) == f.StockStatus {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	return out
}

// summarizeStockReport totals the filtered rows. The grand stock value is
// the sum of per-row values, rounded once at the end.
func summarizeStockReport(rows []StockReportRow) StockReportSummary {
	s := StockReportSummary{TotalItems: len(rows)}
	for _, r := range rows {
		s.TotalStockValue = s.TotalStockValue.Add(r.StockValue)
		switch r.Status {
		case StatusLow:
			s.LowStockItems++
		case StatusHigh:
			s.OverstockItems++
		}
	}
	s.TotalStockValue = s.TotalStockValue.Round(2)
	return s
}
