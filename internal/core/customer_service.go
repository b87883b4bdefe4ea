package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerInput describes a customer master record.
type CustomerInput struct {
	Code      string
	Name      string
	GSTIN     string
	StateCode string
	Email     string
	Phone     string
	Address   string
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, orgID int, in CustomerInput) (*Customer, error)
	GetCustomerByCode(ctx context.Context, orgID int, code string) (*Customer, error)
	ListCustomers(ctx context.Context, orgID int) ([]Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const customerColumns = `id, organization_id, code, name, gstin, state_code,
	email, phone, address, is_active, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Code, &c.Name, &c.GSTIN, &c.StateCode,
		&c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, orgID int, in CustomerInput) (*Customer, error) {
	if in.Code == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: customer code and name are required", ErrInvalidOperation)
	}
	if in.StateCode == "" {
		return nil, fmt.Errorf("%w: customer state code is required for GST place of supply", ErrInvalidOperation)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (organization_id, code, name, gstin, state_code, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+customerColumns,
		orgID, in.Code, in.Name, toPtr(in.GSTIN), in.StateCode,
		toPtr(in.Email), toPtr(in.Phone), toPtr(in.Address))
	c, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer %q: %w", in.Code, err)
	}
	return c, nil
}

func (s *customerService) GetCustomerByCode(ctx context.Context, orgID int, code string) (*Customer, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE organization_id = $1 AND code = $2", orgID, code)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %q: %w", code, ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("failed to fetch customer %q: %w", code, err)
	}
	return c, nil
}

func (s *customerService) ListCustomers(ctx context.Context, orgID int) ([]Customer, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE organization_id = $1 AND is_active = true ORDER BY code",
		orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}
