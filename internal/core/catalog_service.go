package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ItemInput describes a catalog item to create or update.
type ItemInput struct {
	Code          string
	Name          string
	Category      string
	Unit          string
	PackUnit      string
	PackSize      decimal.Decimal
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	GSTRate       decimal.Decimal
	MinStock      decimal.Decimal
	MaxStock      decimal.Decimal
}

// CatalogService manages items and warehouses. Stock quantities are owned by
// the stock service; the catalog never writes current_stock.
type CatalogService interface {
	CreateItem(ctx context.Context, orgID int, in ItemInput) (*Item, error)
	UpdateItem(ctx context.Context, orgID int, itemID int, in ItemInput) (*Item, error)
	GetItem(ctx context.Context, orgID, itemID int) (*Item, error)
	GetItemByCode(ctx context.Context, orgID int, code string) (*Item, error)
	// ListItems pages through active items ordered by (name, id). afterName
	// and afterID are the keyset cursor; zero values start from the beginning.
	ListItems(ctx context.Context, orgID int, afterName string, afterID, limit int) ([]Item, error)
	DeactivateItem(ctx context.Context, orgID, itemID int) error
	CreateWarehouse(ctx context.Context, orgID int, code, name string) (*Warehouse, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

const itemColumns = `id, organization_id, code, name, category, unit,
	COALESCE(pack_unit, ''), pack_size, purchase_price, sale_price, gst_rate,
	current_stock, min_stock, max_stock, is_active, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	it := &Item{}
	err := row.Scan(&it.ID, &it.OrganizationID, &it.Code, &it.Name, &it.Category, &it.Unit,
		&it.PackUnit, &it.PackSize, &it.PurchasePrice, &it.SalePrice, &it.GSTRate,
		&it.CurrentStock, &it.MinStock, &it.MaxStock, &it.IsActive, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func validateItemInput(in ItemInput) error {
	if in.Code == "" || in.Name == "" {
		return fmt.Errorf("%w: item code and name are required", ErrInvalidOperation)
	}
	if in.Unit == "" {
		return fmt.Errorf("%w: item unit is required", ErrInvalidOperation)
	}
	if in.PurchasePrice.IsNegative() || in.SalePrice.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidOperation)
	}
	if in.MinStock.IsNegative() || in.MaxStock.IsNegative() {
		return fmt.Errorf("%w: stock thresholds cannot be negative", ErrInvalidOperation)
	}
	if in.MaxStock.IsPositive() && in.MaxStock.LessThan(in.MinStock) {
		return fmt.Errorf("%w: max_stock cannot be below min_stock", ErrInvalidOperation)
	}
	return nil
}

func (s *catalogService) CreateItem(ctx context.Context, orgID int, in ItemInput) (*Item, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}
	packSize := in.PackSize
	if packSize.IsZero() {
		packSize = decimal.NewFromInt(1)
	}
	var packUnit *string
	if in.PackUnit != "" {
		packUnit = &in.PackUnit
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO items (organization_id, code, name, category, unit, pack_unit, pack_size,
		                   purchase_price, sale_price, gst_rate, min_stock, max_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+itemColumns,
		orgID, in.Code, in.Name, in.Category, in.Unit, packUnit, packSize,
		in.PurchasePrice, in.SalePrice, in.GSTRate, in.MinStock, in.MaxStock)
	it, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create item %q: %w", in.Code, err)
	}
	return it, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, orgID, itemID int, in ItemInput) (*Item, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}
	var packUnit *string
	if in.PackUnit != "" {
		packUnit = &in.PackUnit
	}
	packSize := in.PackSize
	if packSize.IsZero() {
		packSize = decimal.NewFromInt(1)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE items
		SET code = $3, name = $4, category = $5, unit = $6, pack_unit = $7, pack_size = $8,
		    purchase_price = $9, sale_price = $10, gst_rate = $11, min_stock = $12, max_stock = $13
		WHERE organization_id = $1 AND id = $2 AND is_active = true
		RETURNING `+itemColumns,
		orgID, itemID, in.Code, in.Name, in.Category, in.Unit, packUnit, packSize,
		in.PurchasePrice, in.SalePrice, in.GSTRate, in.MinStock, in.MaxStock)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to update item %d: %w", itemID, err)
	}
	return it, nil
}

func (s *catalogService) GetItem(ctx context.Context, orgID, itemID int) (*Item, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM items WHERE organization_id = $1 AND id = $2", orgID, itemID)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	return it, nil
}

func (s *catalogService) GetItemByCode(ctx context.Context, orgID int, code string) (*Item, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM items WHERE organization_id = $1 AND code = $2", orgID, code)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %q: %w", code, ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to fetch item %q: %w", code, err)
	}
	return it, nil
}

func (s *catalogService) ListItems(ctx context.Context, orgID int, afterName string, afterID, limit int) ([]Item, error) {
	if limit <= 0 || limit > reportPageSize {
		limit = reportPageSize
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE organization_id = $1 AND is_active = true
		  AND (name, id) > ($2, $3)
		ORDER BY name, id
		LIMIT $4
	`, orgID, afterName, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *catalogService) DeactivateItem(ctx context.Context, orgID, itemID int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE items SET is_active = false WHERE organization_id = $1 AND id = $2 AND is_active = true",
		orgID, itemID)
	if err != nil {
		return fmt.Errorf("failed to deactivate item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
	}
	return nil
}

func (s *catalogService) CreateWarehouse(ctx context.Context, orgID int, code, name string) (*Warehouse, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: warehouse code and name are required", ErrInvalidOperation)
	}
	w := &Warehouse{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (organization_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, code, name, is_active, created_at
	`, orgID, code, name).Scan(&w.ID, &w.OrganizationID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse %q: %w", code, err)
	}
	return w, nil
}
