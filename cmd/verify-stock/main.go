// Command verify-stock audits the stock reconciliation invariants: every
// item's cached total must equal the sum of its warehouse rows, no quantity
// may be negative, and every ledger entry's before/change/after arithmetic
// must hold. Exits non-zero when any violation is found.
package main

import (
	"context"
	"log"
	"os"

	"stockbook/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	violations := 0
	violations += checkItemTotals(ctx, pool)
	violations += checkNonNegative(ctx, pool)
	violations += checkLedgerArithmetic(ctx, pool)

	if violations > 0 {
		log.Printf("[FAIL] %d violation(s) found", violations)
		os.Exit(1)
	}
	log.Println("[OK] all stock invariants hold")
}

// checkItemTotals flags items whose cached current_stock differs from the
// sum of their warehouse rows. Items with no warehouse rows must carry zero.
func checkItemTotals(ctx context.Context, pool *pgxpool.Pool) int {
	rows, err := pool.Query(ctx, `
		SELECT i.id, i.code, i.current_stock, COALESCE(SUM(iws.quantity), 0)
		FROM items i
		LEFT JOIN item_warehouse_stock iws ON iws.item_id = i.id
		GROUP BY i.id, i.code, i.current_stock
		HAVING i.current_stock <> COALESCE(SUM(iws.quantity), 0)
	`)
	if err != nil {
		log.Fatalf("[TOTALS] query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id int
		var code string
		var cached, derived decimal.Decimal
		if err := rows.Scan(&id, &code, &cached, &derived); err != nil {
			log.Fatalf("[TOTALS] scan failed: %v", err)
		}
		log.Printf("[TOTALS] item %d (%s): cached total %s, warehouse sum %s", id, code, cached, derived)
		count++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[TOTALS] iteration failed: %v", err)
	}
	return count
}

// checkNonNegative flags negative quantities in either the warehouse rows or
// the cached item totals.
func checkNonNegative(ctx context.Context, pool *pgxpool.Pool) int {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM item_warehouse_stock WHERE quantity < 0)
		     + (SELECT COUNT(*) FROM items WHERE current_stock < 0)
	`).Scan(&count)
	if err != nil {
		log.Fatalf("[NONNEG] query failed: %v", err)
	}
	if count > 0 {
		log.Printf("[NONNEG] %d negative quantity row(s)", count)
	}
	return count
}

// checkLedgerArithmetic flags ledger entries where after != before + change.
// Floored removals are the one sanctioned exception: a negative change may
// land on zero even when before + change would be negative.
func checkLedgerArithmetic(ctx context.Context, pool *pgxpool.Pool) int {
	rows, err := pool.Query(ctx, `
		SELECT id, item_id, quantity_before, quantity_change, quantity_after
		FROM stock_ledger
		WHERE quantity_after <> quantity_before + quantity_change
		  AND NOT (quantity_after = 0 AND quantity_before + quantity_change < 0)
	`)
	if err != nil {
		log.Fatalf("[LEDGER] query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, itemID int
		var before, change, after decimal.Decimal
		if err := rows.Scan(&id, &itemID, &before, &change, &after); err != nil {
			log.Fatalf("[LEDGER] scan failed: %v", err)
		}
		log.Printf("[LEDGER] entry %d (item %d): %s + %s != %s", id, itemID, before, change, after)
		count++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[LEDGER] iteration failed: %v", err)
	}
	return count
}
