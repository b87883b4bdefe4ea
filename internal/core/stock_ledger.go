package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockLedger is the append-only audit trail of quantity changes and the
// single source of truth for historical stock reconstruction. Entries are
// never updated or deleted; a cancellation appends an offsetting CORRECTION
// entry instead.
type StockLedger interface {
	Append(ctx context.Context, entry *LedgerEntry) (int, error)

	// EntriesForItem returns the chronological ledger for one item. from/to
	// are optional bounds; pass the zero time for no bound.
	EntriesForItem(ctx context.Context, orgID, itemID int, from, to time.Time) ([]LedgerEntry, error)

	// NetChangesSince sums quantity_change per item and per (item, warehouse)
	// for every entry dated on or after cutoff. itemIDs is batched into
	// fixed-size groups to respect query-size limits.
	NetChangesSince(ctx context.Context, orgID int, itemIDs []int, cutoff time.Time) (*NetChanges, error)
}

// ItemWarehouseKey identifies one (item, warehouse) pair in NetChanges.
type ItemWarehouseKey struct {
	ItemID      int
	WarehouseID int
}

// NetChanges holds the summed post-cutoff ledger effect. Reports subtract
// these sums from current quantities to reconstruct a historical snapshot.
type NetChanges struct {
	ByItem          map[int]decimal.Decimal
	ByItemWarehouse map[ItemWarehouseKey]decimal.Decimal
}

func (n *NetChanges) ForItem(itemID int) decimal.Decimal {
	return n.ByItem[itemID]
}

func (n *NetChanges) ForItemWarehouse(itemID, warehouseID int) decimal.Decimal {
	return n.ByItemWarehouse[ItemWarehouseKey{ItemID: itemID, WarehouseID: warehouseID}]
}

// ledgerBatchSize caps the id-set size of one ANY($1) ledger query.
const ledgerBatchSize = 100

type stockLedger struct {
	pool *pgxpool.Pool
}

func NewStockLedger(pool *pgxpool.Pool) StockLedger {
	return &stockLedger{pool: pool}
}

func (l *stockLedger) Append(ctx context.Context, entry *LedgerEntry) (int, error) {
	var id int
	err := l.pool.QueryRow(ctx, `
		INSERT INTO stock_ledger (organization_id, item_id, warehouse_id, transaction_type,
		                          transaction_date, quantity_before, quantity_change, quantity_after,
		                          entry_unit, reference_no, reason, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, entry.OrganizationID, entry.ItemID, entry.WarehouseID, string(entry.TxnType),
		entry.TransactionDate, entry.QuantityBefore, entry.QuantityChange, entry.QuantityAfter,
		entry.EntryUnit, entry.ReferenceNo, entry.Reason, entry.Notes, entry.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return id, nil
}

func (l *stockLedger) EntriesForItem(ctx context.Context, orgID, itemID int, from, to time.Time) ([]LedgerEntry, error) {
	q := `
		SELECT id, organization_id, item_id, warehouse_id, transaction_type, transaction_date,
		       quantity_before, quantity_change, quantity_after, entry_unit,
		       reference_no, reason, notes, created_by, created_at
		FROM stock_ledger
		WHERE organization_id = $1 AND item_id = $2`

	args := []any{orgID, itemID}
	if !from.IsZero() {
		args = append(args, from)
		q += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		q += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	q += " ORDER BY transaction_date ASC, id ASC"

	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var txnType string
		if err := rows.Scan(
			&e.ID, &e.OrganizationID, &e.ItemID, &e.WarehouseID, &txnType, &e.TransactionDate,
			&e.QuantityBefore, &e.QuantityChange, &e.QuantityAfter, &e.EntryUnit,
			&e.ReferenceNo, &e.Reason, &e.Notes, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.TxnType = TxnType(txnType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *stockLedger) NetChangesSince(ctx context.Context, orgID int, itemIDs []int, cutoff time.Time) (*NetChanges, error) {
	net := &NetChanges{
		ByItem:          make(map[int]decimal.Decimal),
		ByItemWarehouse: make(map[ItemWarehouseKey]decimal.Decimal),
	}

	for start := 0; start < len(itemIDs); start += ledgerBatchSize {
		end := start + ledgerBatchSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		batch := itemIDs[start:end]

		rows, err := l.pool.Query(ctx, `
			SELECT item_id, warehouse_id, SUM(quantity_change)
			FROM stock_ledger
			WHERE organization_id = $1
			  AND item_id = ANY($2)
			  AND transaction_date >= $3
			GROUP BY item_id, warehouse_id
		`, orgID, batch, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to query ledger net changes: %w", err)
		}

		for rows.Next() {
			var itemID int
			var warehouseID *int
			var sum decimal.Decimal
			if err := rows.Scan(&itemID, &warehouseID, &sum); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan ledger net change: %w", err)
			}
			net.ByItem[itemID] = net.ByItem[itemID].Add(sum)
			if warehouseID != nil {
				key := ItemWarehouseKey{ItemID: itemID, WarehouseID: *warehouseID}
				net.ByItemWarehouse[key] = net.ByItemWarehouse[key].Add(sum)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating ledger net changes: %w", err)
		}
	}

	return net, nil
}
