package repository

import (
	"context"
	"fmt"

	"github.com/parisxmas/leadsite/internal/db"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/oxidb"
)

const LeadsCollection = "_site_leads"

// LeadRepo appends accepted leads to an OxiDB collection. It has no update or
// delete path.
type LeadRepo struct {
	pool *db.Pool
}

func NewLeadRepo(pool *db.Pool) *LeadRepo {
	return &LeadRepo{pool: pool}
}

func (r *LeadRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateUniqueIndex(ctx, LeadsCollection, "leadId"); err != nil {
		return err
	}
	return c.CreateIndex(ctx, LeadsCollection, "createdAt")
}

func (r *LeadRepo) Create(ctx context.Context, lead models.Lead) (string, error) {
	id, err := r.pool.Get().Insert(ctx, LeadsCollection, leadToDoc(lead))
	if oxidb.IsDuplicateKey(err) {
		// A retried insert whose first attempt landed; leadId is unique.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("insert lead %s: %w", lead.ID, err)
	}
	return id, nil
}

func (r *LeadRepo) Count(ctx context.Context) (int, error) {
	return r.pool.Get().Count(ctx, LeadsCollection, map[string]any{})
}
