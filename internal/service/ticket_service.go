package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

// TicketService coordinates ticket workflows. It is role-agnostic: route
// gates and the access policy live in the API layer.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. Status always starts
// at the default "open" row; priority falls back to the default when unset.
type TicketCreateInput struct {
	Subject     string
	Description string
	PriorityID  *int64
	CreatedBy   int64
	AssignedTo  *int64
}

// TicketUpdateInput is a partial patch; nil fields are left untouched.
// AssignedTo uses a double pointer so "set to NULL" and "not supplied" stay
// distinguishable.
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	StatusID    *int64
	PriorityID  *int64
	AssignedTo  **int64
}

// ErrNoFields reports an update request that carried nothing to change,
// distinct from the ticket not existing.
var ErrNoFields = apperrors.NewValidationError("no fields to update", nil)

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates references and inserts a new ticket, returning the joined
// record. Referenced users are checked up front so a bad id surfaces as a
// validation error instead of an opaque constraint failure.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}

	if _, err := s.users.GetByID(ctx, input.CreatedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("created_by user not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if input.AssignedTo != nil {
		assignee, err := s.users.GetByID(ctx, *input.AssignedTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("assigned_to must be an existing agent", nil)
			}
			return nil, apperrors.MapError(err)
		}
		if assignee.Role != domain.RoleAgent {
			return nil, apperrors.NewValidationError("assigned_to must be an existing agent", nil)
		}
	}

	ticket := &domain.Ticket{
		Subject:     input.Subject,
		Description: input.Description,
		StatusID:    domain.DefaultStatusID,
		PriorityID:  domain.DefaultPriorityID,
		CreatedBy:   input.CreatedBy,
		AssignedTo:  input.AssignedTo,
	}
	if input.PriorityID != nil {
		ticket.PriorityID = *input.PriorityID
	}

	id, err := s.tickets.Create(ctx, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: id,
		Actor:    events.Actor{UserID: input.CreatedBy},
		Payload: events.TicketCreatedPayload{
			Subject:    created.Subject,
			StatusID:   created.StatusID,
			PriorityID: created.PriorityID,
		},
	})
	return created, nil
}

// Get returns the joined ticket or a not-found error.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns all tickets joined with display names, newest first. Role
// filtering happens in the API layer.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Update applies a partial patch. An empty patch fails with ErrNoFields; a
// missing ticket fails with not-found; a patched assignee must be an
// existing agent. The admin-only assignment rule is the API layer's job.
func (s *TicketService) Update(ctx context.Context, actor domain.Identity, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	changes := repository.TicketChanges{
		Subject:     input.Subject,
		Description: input.Description,
		StatusID:    input.StatusID,
		PriorityID:  input.PriorityID,
		AssignedTo:  input.AssignedTo,
	}
	if changes.Empty() {
		return nil, ErrNoFields
	}

	if input.AssignedTo != nil && *input.AssignedTo != nil {
		assignee, err := s.users.GetByID(ctx, **input.AssignedTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("assigned_to must be an existing agent", nil)
			}
			return nil, apperrors.MapError(err)
		}
		if assignee.Role != domain.RoleAgent {
			return nil, apperrors.NewValidationError("assigned_to must be an existing agent", nil)
		}
	}

	affected, err := s.tickets.Update(ctx, id, changes)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if affected == 0 {
		// existence was checked above, so the row vanished under us
		return nil, apperrors.NewNotFound("ticket")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := events.TicketUpdatedPayload{ChangedFields: changedFields(changes)}
	if input.AssignedTo != nil {
		payload.AssignedTo = *input.AssignedTo
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:  payload,
	})
	return updated, nil
}

// Delete removes a ticket, reporting the rows-affected count. Comments go
// with it via the store-level cascade.
func (s *TicketService) Delete(ctx context.Context, actor domain.Identity, id int64) (int64, error) {
	deleted, err := s.tickets.Delete(ctx, id)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if deleted == 0 {
		return 0, apperrors.NewNotFound("ticket")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:  events.TicketDeletedPayload{DeletedRows: deleted},
	})
	return deleted, nil
}

func changedFields(changes repository.TicketChanges) []string {
	fields := []string{}
	if changes.Subject != nil {
		fields = append(fields, "subject")
	}
	if changes.Description != nil {
		fields = append(fields, "description")
	}
	if changes.StatusID != nil {
		fields = append(fields, "status_id")
	}
	if changes.PriorityID != nil {
		fields = append(fields, "priority_id")
	}
	if changes.AssignedTo != nil {
		fields = append(fields, "assigned_to")
	}
	return fields
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
