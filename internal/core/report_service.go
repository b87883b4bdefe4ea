package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockReport is the result of BuildStockReport.
type StockReport struct {
	AsOfDate   string             `json:"as_of_date"`
	Historical bool               `json:"historical"`
	Rows       []StockReportRow   `json:"rows"`
	Summary    StockReportSummary `json:"summary"`
}

// CustomerBalance is one customer's receivables position.
type CustomerBalance struct {
	CustomerID   int             `json:"customer_id"`
	CustomerCode string          `json:"customer_code"`
	CustomerName string          `json:"customer_name"`
	Invoiced     decimal.Decimal `json:"invoiced"`
	Received     decimal.Decimal `json:"received"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// BalanceReport summarizes receivables across issued invoices.
type BalanceReport struct {
	Customers        []CustomerBalance `json:"customers"`
	TotalInvoiced    decimal.Decimal   `json:"total_invoiced"`
	TotalReceived    decimal.Decimal   `json:"total_received"`
	TotalOutstanding decimal.Decimal   `json:"total_outstanding"`
	OverdueCount     int               `json:"overdue_count"`
}

// ReportingService provides read-only reporting over the catalog, the stock
// ledger, and invoices. It never writes.
type ReportingService interface {
	// BuildStockReport reconstructs per-item stock as of asOfDate (empty
	// string means today), applies the filters in-memory, and aggregates a
	// summary. Reconstruction walks the ledger backward from current state:
	// stock as of D = stock now − net ledger effect after D.
	BuildStockReport(ctx context.Context, orgID int, asOfDate string, filters ReportFilters) (*StockReport, error)

	// BuildBalanceReport returns per-customer receivables over issued
	// invoices minus recorded payments.
	BuildBalanceReport(ctx context.Context, orgID int) (*BalanceReport, error)
}

// reportPageSize is the page ceiling for the item fetch. The sort key
// includes the id tiebreaker so no row is skipped or duplicated across page
// boundaries.
const reportPageSize = 500

type reportingService struct {
	pool   *pgxpool.Pool
	ledger StockLedger
}

func NewReportingService(pool *pgxpool.Pool, ledger StockLedger) ReportingService {
	return &reportingService{pool: pool, ledger: ledger}
}

// reportItem is the slice of an item row the stock report needs.
type reportItem struct {
	ID            int
	Code          string
	Name          string
	Category      string
	Unit          string
	PurchasePrice decimal.Decimal
	CurrentStock  decimal.Decimal
	MinStock      decimal.Decimal
	MaxStock      decimal.Decimal
}

func (s *reportingService) BuildStockReport(ctx context.Context, orgID int, asOfDate string, filters ReportFilters) (*StockReport, error) {
	today := startOfDay(time.Now())
	asOf := today
	if asOfDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", asOfDate, today.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: invalid as-of date %q", ErrInvalidOperation, asOfDate)
		}
		asOf = parsed
	}
	historical := asOf.Before(today)

	items, err := s.fetchAllItems(ctx, orgID)
	if err != nil {
		return nil, err
	}

	report := &StockReport{
		AsOfDate:   asOf.Format("2006-01-02"),
		Historical: historical,
	}
	if len(items) == 0 {
		report.Rows = []StockReportRow{}
		return report, nil
	}

	// Net ledger effect of everything dated after the as-of date. Undoing it
	// from current quantities yields the historical snapshot.
	net := &NetChanges{
		ByItem:          map[int]decimal.Decimal{},
		ByItemWarehouse: map[ItemWarehouseKey]decimal.Decimal{},
	}
	if historical {
		itemIDs := make([]int, len(items))
		for i, it := range items {
			itemIDs[i] = it.ID
		}
		cutoff := asOf.AddDate(0, 0, 1)
		net, err = s.ledger.NetChangesSince(ctx, orgID, itemIDs, cutoff)
		if err != nil {
			return nil, err
		}
	}

	// When a warehouse filter is set the reported stock is the sum over just
	// the selected warehouses, not the item-level total.
	var warehouseQty map[ItemWarehouseKey]decimal.Decimal
	if len(filters.WarehouseIDs) > 0 {
		warehouseQty, err = s.fetchWarehouseQuantities(ctx, orgID, filters.WarehouseIDs)
		if err != nil {
			return nil, err
		}
	}

	rows := make([]StockReportRow, 0, len(items))
	for _, it := range items {
		var stock decimal.Decimal
		if len(filters.WarehouseIDs) > 0 {
			for _, whID := range filters.WarehouseIDs {
				key := ItemWarehouseKey{ItemID: it.ID, WarehouseID: whID}
				stock = stock.Add(reconstructStock(warehouseQty[key], net.ByItemWarehouse[key]))
			}
		} else {
			stock = reconstructStock(it.CurrentStock, net.ByItem[it.ID])
		}

		rows = append(rows, StockReportRow{
			ItemID:             it.ID,
			ItemCode:           it.Code,
			ItemName:           it.Name,
			Category:           it.Category,
			Unit:               it.Unit,
			ReconstructedStock: stock,
			StockValue:         stockValue(stock, it.PurchasePrice),
			MinStock:           it.MinStock,
			MaxStock:           it.MaxStock,
			Status:             classifyStock(stock, it.MinStock, it.MaxStock),
		})
	}

	report.Rows = applyReportFilters(rows, filters)
	report.Summary = summarizeStockReport(report.Rows)
	return report, nil
}

// fetchAllItems materializes the complete item set for the organization with
// stable keyset pagination ordered by (name, id). Filters are deliberately
// not pushed into this fetch; combining server-side filters with offset
// pagination is how the previous implementation silently dropped rows.
func (s *reportingService) fetchAllItems(ctx context.Context, orgID int) ([]reportItem, error) {
	var items []reportItem
	lastName := ""
	lastID := 0

	for {
		rows, err := s.pool.Query(ctx, `
			SELECT id, code, name, category, unit, purchase_price, current_stock, min_stock, max_stock
			FROM items
			WHERE organization_id = $1 AND is_active = true
			  AND (name, id) > ($2, $3)
			ORDER BY name, id
			LIMIT $4
		`, orgID, lastName, lastID, reportPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to query items page: %w", err)
		}

		count := 0
		for rows.Next() {
			var it reportItem
			if err := rows.Scan(&it.ID, &it.Code, &it.Name, &it.Category, &it.Unit,
				&it.PurchasePrice, &it.CurrentStock, &it.MinStock, &it.MaxStock); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan item: %w", err)
			}
			items = append(items, it)
			lastName, lastID = it.Name, it.ID
			count++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating items page: %w", err)
		}
		if count < reportPageSize {
			return items, nil
		}
	}
}

func (s *reportingService) fetchWarehouseQuantities(ctx context.Context, orgID int, warehouseIDs []int) (map[ItemWarehouseKey]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT iws.item_id, iws.warehouse_id, iws.quantity
		FROM item_warehouse_stock iws
		JOIN warehouses w ON w.id = iws.warehouse_id
		WHERE w.organization_id = $1 AND iws.warehouse_id = ANY($2)
	`, orgID, warehouseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse quantities: %w", err)
	}
	defer rows.Close()

	out := make(map[ItemWarehouseKey]decimal.Decimal)
	for rows.Next() {
		var key ItemWarehouseKey
		var qty decimal.Decimal
		if err := rows.Scan(&key.ItemID, &key.WarehouseID, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse quantity: %w", err)
		}
		out[key] = qty
	}
	return out, rows.Err()
}

func (s *reportingService) BuildBalanceReport(ctx context.Context, orgID int) (*BalanceReport, error) {
	// The payments subquery is 1:1 per invoice, so summing its COALESCEd
	// column per customer is safe. p.received must never appear in GROUP BY:
	// it would merge distinct invoices whose payment sums happen to be equal.
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.code, c.name,
		       COALESCE(SUM(i.rounded_total), 0)        AS invoiced,
		       COALESCE(SUM(COALESCE(p.received, 0)), 0) AS received
		FROM customers c
		JOIN invoices i ON i.customer_id = c.id AND i.status IN ('ISSUED', 'PAID')
		LEFT JOIN (
		    SELECT invoice_id, SUM(amount) AS received
		    FROM payments
		    WHERE organization_id = $1
		    GROUP BY invoice_id
		) p ON p.invoice_id = i.id
		WHERE c.organization_id = $1
		GROUP BY c.id, c.code, c.name
		ORDER BY c.code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance report: %w", err)
	}
	defer rows.Close()

	report := &BalanceReport{}
	for rows.Next() {
		var cb CustomerBalance
		if err := rows.Scan(&cb.CustomerID, &cb.CustomerCode, &cb.CustomerName, &cb.Invoiced, &cb.Received); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		cb.Outstanding = cb.Invoiced.Sub(cb.Received).Round(2)
		cb.Invoiced = cb.Invoiced.Round(2)
		cb.Received = cb.Received.Round(2)
		report.Customers = append(report.Customers, cb)
		report.TotalInvoiced = report.TotalInvoiced.Add(cb.Invoiced)
		report.TotalReceived = report.TotalReceived.Add(cb.Received)
		report.TotalOutstanding = report.TotalOutstanding.Add(cb.Outstanding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}

	// Overdue = issued more than 30 days ago and still carrying a balance.
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM invoices i
		LEFT JOIN (
		    SELECT invoice_id, SUM(amount) AS received
		    FROM payments WHERE organization_id = $1 GROUP BY invoice_id
		) p ON p.invoice_id = i.id
		WHERE i.organization_id = $1
		  AND i.status = 'ISSUED'
		  AND i.invoice_date::date < CURRENT_DATE - INTERVAL '30 days'
		  AND i.rounded_total > COALESCE(p.received, 0)
	`, orgID).Scan(&report.OverdueCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue invoices: %w", err)
	}

	return report, nil
}
