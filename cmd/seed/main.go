// Command seed loads a small demo dataset: one organization, an admin user,
// two warehouses, a handful of items and customers, and opening stock booked
// through the reconciliation engine so the ledger starts consistent.
package main

import (
	"context"
	"log"
	"os"

	"stockbook/internal/core"
	"stockbook/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var orgID int
	err = pool.QueryRow(ctx, `
		INSERT INTO organizations (org_code, name, state_code, gstin, base_currency)
		VALUES ('DEMO', 'Demo Trading Co', '29', '29AAACD1234F1Z5', 'INR')
		ON CONFLICT (org_code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`).Scan(&orgID)
	if err != nil {
		log.Fatalf("seed organization: %v", err)
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (organization_id, username, email, password_hash, role)
		VALUES ($1, 'admin', 'admin@example.com', $2, 'admin')
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, orgID, string(hash))
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	warehouseIDs := map[string]int{}
	for _, w := range []struct{ code, name string }{
		{"MAIN", "Main Warehouse"},
		{"SHOP", "Shop Floor"},
	} {
		var id int
		err = pool.QueryRow(ctx, `
			INSERT INTO warehouses (organization_id, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (organization_id, code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, orgID, w.code, w.name).Scan(&id)
		if err != nil {
			log.Fatalf("seed warehouse %s: %v", w.code, err)
		}
		warehouseIDs[w.code] = id
	}

	catalog := core.NewCatalogService(pool)
	items := []core.ItemInput{
		{Code: "RICE-25", Name: "Basmati Rice 25kg", Category: "Grains", Unit: "bag",
			PurchasePrice: dec("1450"), SalePrice: dec("1650"), GSTRate: dec("5"),
			MinStock: dec("10"), MaxStock: dec("200")},
		{Code: "OIL-15", Name: "Sunflower Oil 15L", Category: "Oils", Unit: "tin",
			PurchasePrice: dec("1900"), SalePrice: dec("2100"), GSTRate: dec("5"),
			MinStock: dec("5"), MaxStock: dec("100")},
		{Code: "SOAP-72", Name: "Bath Soap Carton", Category: "FMCG", Unit: "carton",
			PurchasePrice: dec("850"), SalePrice: dec("980"), GSTRate: dec("18"),
			MinStock: dec("4"), MaxStock: dec("60")},
	}
	itemIDs := map[string]int{}
	for _, in := range items {
		item, err := catalog.CreateItem(ctx, orgID, in)
		if err != nil {
			// Re-running the seed hits the unique code constraint; look the
			// item up instead of failing.
			existing, lookupErr := catalog.GetItemByCode(ctx, orgID, in.Code)
			if lookupErr != nil {
				log.Fatalf("seed item %s: %v", in.Code, err)
			}
			item = existing
		}
		itemIDs[item.Code] = item.ID
	}

	for _, c := range []core.CustomerInput{
		{Code: "CUST-001", Name: "Sharma General Stores", StateCode: "29", GSTIN: "29ABCDE1234F1Z5"},
		{Code: "CUST-002", Name: "Mumbai Wholesale Traders", StateCode: "27"},
	} {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (organization_id, code, name, gstin, state_code)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			ON CONFLICT (organization_id, code) DO NOTHING
		`, orgID, c.Code, c.Name, c.GSTIN, c.StateCode)
		if err != nil {
			log.Fatalf("seed customer %s: %v", c.Code, err)
		}
	}

	// Opening stock goes through the reconciliation engine so each receipt
	// leaves an IN ledger entry. Skipped when the org already has ledger
	// history so re-running the seed doesn't double the quantities.
	var ledgerEntries int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM stock_ledger WHERE organization_id = $1", orgID).Scan(&ledgerEntries); err != nil {
		log.Fatalf("check ledger: %v", err)
	}
	if ledgerEntries > 0 {
		log.Println("seed complete: org DEMO already has ledger history, opening stock skipped")
		return
	}
	ledger := core.NewStockLedger(pool)
	stockSvc := core.NewStockService(pool, ledger)
	opening := []struct {
		item      string
		warehouse string
		qty       string
	}{
		{"RICE-25", "MAIN", "80"},
		{"OIL-15", "MAIN", "30"},
		{"SOAP-72", "SHOP", "12"},
	}
	for _, o := range opening {
		_, err := stockSvc.ApplyAdjustment(ctx, orgID, core.AdjustmentInput{
			ItemID:      itemIDs[o.item],
			WarehouseID: warehouseIDs[o.warehouse],
			SignedDelta: dec(o.qty),
			TxnType:     core.TxnIn,
			Reason:      "opening_balance",
		})
		if err != nil {
			log.Fatalf("seed opening stock %s: %v", o.item, err)
		}
	}

	log.Println("seed complete: org DEMO, user admin")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
