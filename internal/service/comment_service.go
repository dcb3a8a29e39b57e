package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

// CommentService handles the append-only comment thread under a ticket.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    *TicketService
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets *TicketService, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher}
}

// ListForTicket returns the ticket's comments oldest first, joined with
// author name/email. The caller must pass the same access check as a ticket
// read; a missing ticket reports not-found before any access decision.
func (s *CommentService) ListForTicket(ctx context.Context, caller domain.Identity, ticketID int64) ([]domain.Comment, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessTicket(caller, ticket) {
		return nil, apperrors.NewForbidden("Forbidden")
	}

	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Add appends a comment authored by the caller. Order of failures matters:
// blank content → validation, missing ticket → not found, policy denial →
// forbidden.
func (s *CommentService) Add(ctx context.Context, caller domain.Identity, ticketID int64, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("Content required", nil)
	}

	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessTicket(caller, ticket) {
		return nil, apperrors.NewForbidden("Forbidden")
	}

	comment := &domain.Comment{
		TicketID:    ticketID,
		AuthorID:    caller.ID,
		Content:     content,
		AuthorName:  caller.Name,
		AuthorEmail: caller.Email,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticketID,
			Actor:     events.Actor{UserID: caller.ID, Role: caller.Role},
			Timestamp: time.Now(),
			Payload: events.CommentAddedPayload{
				CommentID:      comment.ID,
				ContentPreview: contentPreview(comment.Content, 120),
			},
		})
	}
	return comment, nil
}

func contentPreview(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	if max <= 3 {
		return content[:max]
	}
	return content[:max-3] + "..."
}
