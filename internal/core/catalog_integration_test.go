package core_test

import (
	"context"
	"testing"

	"stockbook/internal/core"
)

func TestCatalogService_CreateAndListItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, 1, core.ItemInput{
		Code: "TEA-50", Name: "Assam Tea 50pk", Category: "Beverages", Unit: "box",
		PurchasePrice: dec("220"), SalePrice: dec("260"), GSTRate: dec("5"),
		MinStock: dec("6"), MaxStock: dec("80"),
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if item.ID == 0 || !item.IsActive {
		t.Errorf("unexpected created item: id=%d active=%v", item.ID, item.IsActive)
	}
	if !item.PackSize.Equal(dec("1")) {
		t.Errorf("expected default pack size 1, got %s", item.PackSize)
	}

	// Keyset pagination walks (name, id) without skips.
	var all []core.Item
	afterName, afterID := "", 0
	for {
		page, err := svc.ListItems(ctx, 1, afterName, afterID, 2)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		all = append(all, page...)
		if len(page) < 2 {
			break
		}
		last := page[len(page)-1]
		afterName, afterID = last.Name, last.ID
	}
	if len(all) != 4 { // 3 seeded + 1 created
		t.Fatalf("expected 4 items across pages, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Name < all[i-1].Name {
			t.Errorf("items out of order: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestCatalogService_ValidationAndDeactivate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, 1, core.ItemInput{Code: "", Name: "No Code", Unit: "pc"})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error for missing code, got %v", err)
	}

	_, err = svc.CreateItem(ctx, 1, core.ItemInput{
		Code: "BAD-1", Name: "Bad Thresholds", Unit: "pc",
		MinStock: dec("50"), MaxStock: dec("10"),
	})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error for max < min, got %v", err)
	}

	if err := svc.DeactivateItem(ctx, 1, 3); err != nil {
		t.Fatalf("DeactivateItem failed: %v", err)
	}
	// Deactivated items disappear from listings but stay fetchable by id.
	items, err := svc.ListItems(ctx, 1, "", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ID == 3 {
			t.Error("deactivated item still listed")
		}
	}
	if _, err := svc.GetItem(ctx, 1, 3); err != nil {
		t.Errorf("deactivated item should remain fetchable: %v", err)
	}

	if err := svc.DeactivateItem(ctx, 1, 999); !core.IsNotFound(err) {
		t.Errorf("expected not-found for unknown item, got %v", err)
	}
}
