package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrgService resolves organizations. Every tenant-scoped operation goes
// through an org_code → id lookup at the edge so internal code only ever
// deals in ids.
type OrgService interface {
	GetByCode(ctx context.Context, orgCode string) (*Organization, error)
	ResolveID(ctx context.Context, orgCode string) (int, error)
}

type orgService struct {
	pool *pgxpool.Pool
}

func NewOrgService(pool *pgxpool.Pool) OrgService {
	return &orgService{pool: pool}
}

func (s *orgService) GetByCode(ctx context.Context, orgCode string) (*Organization, error) {
	org := &Organization{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, org_code, name, state_code, COALESCE(gstin, ''), base_currency
		FROM organizations WHERE org_code = $1
	`, orgCode).Scan(&org.ID, &org.OrgCode, &org.Name, &org.StateCode, &org.GSTIN, &org.BaseCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("organization %q: %w", orgCode, ErrOrgNotFound)
		}
		return nil, fmt.Errorf("failed to fetch organization %q: %w", orgCode, err)
	}
	return org, nil
}

func (s *orgService) ResolveID(ctx context.Context, orgCode string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM organizations WHERE org_code = $1", orgCode).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("organization %q: %w", orgCode, ErrOrgNotFound)
		}
		return 0, fmt.Errorf("failed to resolve organization %q: %w", orgCode, err)
	}
	return id, nil
}
