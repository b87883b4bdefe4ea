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

// StockService is the only writer of items.current_stock and
// item_warehouse_stock.quantity. Every quantity change flows through
// ApplyAdjustment (or its TX-scoped variant used by invoice issue), which
// keeps the cached item total, the per-warehouse rows, and the stock ledger
// mutually consistent.
type StockService interface {
	// ApplyAdjustment applies one signed quantity change to an (item,
	// warehouse) pair. Validation failures (unknown item/warehouse, reduce
	// with no stock record, insufficient stock) are detected before any
	// write and leave no side effects. On success the warehouse row and the
	// recomputed item total are committed together; the ledger entry is
	// appended afterwards, and a failure there is reported via
	// AdjustmentResult.AuditGap rather than an error.
	ApplyAdjustment(ctx context.Context, orgID int, in AdjustmentInput) (*AdjustmentResult, error)

	// ApplyAdjustmentTx runs the same steps inside a caller-provided
	// transaction and returns the ledger entry still to be appended once the
	// caller commits. Used by InvoiceService to keep per-line stock
	// deductions atomic with the invoice state transition.
	ApplyAdjustmentTx(ctx context.Context, tx pgx.Tx, orgID int, in AdjustmentInput) (*AdjustmentResult, *LedgerEntry, error)

	GetWarehouses(ctx context.Context, orgID int) ([]Warehouse, error)
	GetStockLevels(ctx context.Context, orgID int) ([]StockLevel, error)
	GetWarehouseStock(ctx context.Context, orgID, itemID int) ([]WarehouseStock, error)
}

// AdjustmentInput describes one signed stock change.
type AdjustmentInput struct {
	ItemID          int
	WarehouseID     int
	SignedDelta     decimal.Decimal // non-zero; positive = increase
	EntryUnit       string
	TxnType         TxnType
	Reason          string
	Notes           string
	ReferenceNo     string
	ActorID         *int
	TransactionDate time.Time // zero value means now
}

// AdjustmentResult reports what was written. AuditGap is true when the
// quantity change committed but the ledger entry could not be appended; the
// ledger then under-counts relative to actual stock until corrected.
type AdjustmentResult struct {
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	NewTotalStock  decimal.Decimal `json:"new_stock"`
	LedgerEntryID  int             `json:"ledger_entry_id,omitempty"`
	AuditGap       bool            `json:"audit_gap"`
}

type stockService struct {
	pool   *pgxpool.Pool
	ledger StockLedger
}

func NewStockService(pool *pgxpool.Pool, ledger StockLedger) StockService {
	return &stockService{pool: pool, ledger: ledger}
}

func (s *stockService) ApplyAdjustment(ctx context.Context, orgID int, in AdjustmentInput) (*AdjustmentResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, entry, err := s.ApplyAdjustmentTx(ctx, tx, orgID, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	// The quantity change is durable at this point. The ledger is an audit
	// trail, not the system of record for current quantity: an append failure
	// is logged and surfaced as AuditGap, never as an error.
	entryID, err := s.ledger.Append(ctx, entry)
	if err != nil {
		log.Printf("stock ledger append failed after committed adjustment (item=%d warehouse=%d change=%s): %v",
			in.ItemID, in.WarehouseID, in.SignedDelta, err)
		result.AuditGap = true
		return result, nil
	}
	result.LedgerEntryID = entryID
	return result, nil
}

// ApplyAdjustmentTx performs validation and the three reconciliation writes
// inside tx. The ordering matters: warehouse row first, then the item total
// recomputed as the SUM over all warehouse rows — never by incrementing the
// cached total — so a stale total heals on the next adjustment.
func (s *stockService) ApplyAdjustmentTx(ctx context.Context, tx pgx.Tx, orgID int, in AdjustmentInput) (*AdjustmentResult, *LedgerEntry, error) {
	if in.SignedDelta.IsZero() {
		return nil, nil, fmt.Errorf("%w: quantity change must be non-zero", ErrInvalidOperation)
	}

	// Lock the item row. This serializes concurrent adjustments touching the
	// same item so the recomputed total can never be built from a half-applied
	// peer update.
	var itemID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM items WHERE id = $1 AND organization_id = $2 AND is_active = true FOR UPDATE",
		in.ItemID, orgID,
	).Scan(&itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("item %d: %w", in.ItemID, ErrItemNotFound)
		}
		return nil, nil, fmt.Errorf("failed to lock item %d: %w", in.ItemID, err)
	}

	var warehouseID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE id = $1 AND organization_id = $2 AND is_active = true",
		in.WarehouseID, orgID,
	).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("warehouse %d: %w", in.WarehouseID, ErrWarehouseNotFound)
		}
		return nil, nil, fmt.Errorf("failed to resolve warehouse %d: %w", in.WarehouseID, err)
	}

	// Step 1: read the current warehouse quantity, defaulting to 0 if the
	// row does not exist yet.
	var before decimal.Decimal
	rowExists := true
	err = tx.QueryRow(ctx,
		"SELECT quantity FROM item_warehouse_stock WHERE item_id = $1 AND warehouse_id = $2 FOR UPDATE",
		in.ItemID, in.WarehouseID,
	).Scan(&before)
	if errors.Is(err, pgx.ErrNoRows) {
		rowExists = false
		before = decimal.Zero
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to read warehouse stock: %w", err)
	}

	if in.SignedDelta.IsNegative() {
		if !rowExists {
			return nil, nil, fmt.Errorf("item %d, warehouse %d: %w", in.ItemID, in.WarehouseID, ErrNoStockRecord)
		}
		requested := in.SignedDelta.Neg()
		if requested.GreaterThan(before) {
			return nil, nil, &InsufficientStockError{
				ItemID:      in.ItemID,
				WarehouseID: in.WarehouseID,
				Available:   before,
				Requested:   requested,
			}
		}
	}

	// Step 2: the reduce precondition above guarantees after >= 0; the floor
	// only catches a row that was already inconsistent.
	after := before.Add(in.SignedDelta)
	if after.IsNegative() {
		after = decimal.Zero
	}

	// Step 3: upsert the warehouse row. Only an ADD may create it.
	if rowExists {
		_, err = tx.Exec(ctx,
			"UPDATE item_warehouse_stock SET quantity = $1, updated_at = NOW() WHERE item_id = $2 AND warehouse_id = $3",
			after, in.ItemID, in.WarehouseID)
	} else {
		_, err = tx.Exec(ctx,
			"INSERT INTO item_warehouse_stock (item_id, warehouse_id, quantity) VALUES ($1, $2, $3)",
			in.ItemID, in.WarehouseID, after)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write warehouse stock: %w", err)
	}

	// Steps 4-5: rederive the item total from all warehouse rows and write
	// it onto the cached column.
	var total decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM item_warehouse_stock WHERE item_id = $1",
		in.ItemID,
	).Scan(&total)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to recompute item total: %w", err)
	}
	if _, err = tx.Exec(ctx,
		"UPDATE items SET current_stock = $1, updated_at = NOW() WHERE id = $2",
		total, in.ItemID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to update item total: %w", err)
	}

	txnDate := in.TransactionDate
	if txnDate.IsZero() {
		txnDate = time.Now()
	}
	warehouseRef := in.WarehouseID
	entry := &LedgerEntry{
		OrganizationID:  orgID,
		ItemID:          in.ItemID,
		WarehouseID:     &warehouseRef,
		TxnType:         in.TxnType,
		TransactionDate: txnDate,
		QuantityBefore:  before,
		QuantityChange:  in.SignedDelta,
		QuantityAfter:   after,
		EntryUnit:       in.EntryUnit,
		Reason:          in.Reason,
		CreatedBy:       in.ActorID,
	}
	if in.ReferenceNo != "" {
		entry.ReferenceNo = &in.ReferenceNo
	}
	if in.Notes != "" {
		entry.Notes = &in.Notes
	}

	return &AdjustmentResult{
		QuantityBefore: before,
		QuantityChange: in.SignedDelta,
		QuantityAfter:  after,
		NewTotalStock:  total,
	}, entry, nil
}

func (s *stockService) GetWarehouses(ctx context.Context, orgID int) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, organization_id, code, name, is_active, created_at
		FROM warehouses
		WHERE organization_id = $1 AND is_active = true
		ORDER BY code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.OrganizationID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *stockService) GetStockLevels(ctx context.Context, orgID int) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.code, i.name, w.id, w.code, w.name, iws.quantity, iws.location
		FROM item_warehouse_stock iws
		JOIN items i      ON i.id = iws.item_id
		JOIN warehouses w ON w.id = iws.warehouse_id
		WHERE i.organization_id = $1
		ORDER BY i.code, w.code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(
			&sl.ItemID, &sl.ItemCode, &sl.ItemName,
			&sl.WarehouseID, &sl.WarehouseCode, &sl.WarehouseName,
			&sl.Quantity, &sl.Location,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *stockService) GetWarehouseStock(ctx context.Context, orgID, itemID int) ([]WarehouseStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT iws.item_id, iws.warehouse_id, iws.quantity, iws.location, iws.updated_at
		FROM item_warehouse_stock iws
		JOIN items i ON i.id = iws.item_id
		WHERE i.organization_id = $1 AND iws.item_id = $2
		ORDER BY iws.warehouse_id
	`, orgID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse stock: %w", err)
	}
	defer rows.Close()

	var out []WarehouseStock
	for rows.Next() {
		var ws WarehouseStock
		if err := rows.Scan(&ws.ItemID, &ws.WarehouseID, &ws.Quantity, &ws.Location, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse stock: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}
