package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// TicketChanges is a partial update: only non-nil fields are applied.
type TicketChanges struct {
	Subject     *string
	Description *string
	StatusID    *int64
	PriorityID  *int64
	AssignedTo  **int64
}

// Empty reports whether the patch carries no fields at all.
func (c TicketChanges) Empty() bool {
	return c.Subject == nil && c.Description == nil && c.StatusID == nil &&
		c.PriorityID == nil && c.AssignedTo == nil
}

// TicketRepository encapsulates ticket persistence. Reads return rows joined
// with status, priority and user display names.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	Update(ctx context.Context, id int64, changes TicketChanges) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.subject, t.description, t.status_id, t.priority_id,
               t.created_by, t.assigned_to, t.created_at, t.updated_at,
               s.name AS status_name, p.name AS priority_name,
               uc.name AS created_by_name, uc.email AS created_by_email,
               ua.name AS assigned_to_name, ua.email AS assigned_to_email
        FROM tickets t
        LEFT JOIN statuses s ON t.status_id = s.id
        LEFT JOIN priorities p ON t.priority_id = p.id
        LEFT JOIN users uc ON t.created_by = uc.id
        LEFT JOIN users ua ON t.assigned_to = ua.id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) (int64, error) {
	const query = `
        INSERT INTO tickets (subject, description, status_id, priority_id, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	var id int64
	if err := r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CreatedBy,
		ticket.AssignedTo,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := ticketSelect + ` WHERE t.id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketScanDest(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := ticketSelect + ` ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Update applies only the supplied fields and refreshes updated_at. Returns
// the number of rows affected; an empty patch reports zero without touching
// the store.
func (r *ticketRepository) Update(ctx context.Context, id int64, changes TicketChanges) (int64, error) {
	fields := []string{}
	args := []any{}

	appendField := func(column string, value any) {
		args = append(args, value)
		fields = append(fields, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if changes.Subject != nil {
		appendField("subject", *changes.Subject)
	}
	if changes.Description != nil {
		appendField("description", *changes.Description)
	}
	if changes.StatusID != nil {
		appendField("status_id", *changes.StatusID)
	}
	if changes.PriorityID != nil {
		appendField("priority_id", *changes.PriorityID)
	}
	if changes.AssignedTo != nil {
		appendField("assigned_to", *changes.AssignedTo)
	}
	if len(fields) == 0 {
		return 0, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s, updated_at=NOW() WHERE id=$%d",
		strings.Join(fields, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func ticketScanDest(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.StatusName,
		&ticket.PriorityName,
		&ticket.CreatedByName,
		&ticket.CreatedByEmail,
		&ticket.AssignedToName,
		&ticket.AssignedToEmail,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanDest(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
