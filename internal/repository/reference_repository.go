package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// ReferenceRepository covers the status and priority lookup tables. Both have
// the same shape (id, unique name), so one implementation is parameterized by
// table name.
type ReferenceRepository interface {
	Create(ctx context.Context, name string) (*domain.Reference, error)
	ListAll(ctx context.Context) ([]domain.Reference, error)
}

type referenceRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewStatusRepository returns the repository for the statuses table.
func NewStatusRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool, table: "statuses"}
}

// NewPriorityRepository returns the repository for the priorities table.
func NewPriorityRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool, table: "priorities"}
}

func (r *referenceRepository) Create(ctx context.Context, name string) (*domain.Reference, error) {
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, r.table)
	ref := &domain.Reference{Name: name}
	if err := r.pool.QueryRow(ctx, query, name).Scan(&ref.ID); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *referenceRepository) ListAll(ctx context.Context) ([]domain.Reference, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, r.table)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reference
	for rows.Next() {
		var ref domain.Reference
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}
