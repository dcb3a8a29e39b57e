package events

import (
	"time"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventCommentAdded   EventType = "comment_added"
	EventUserRegistered EventType = "user_registered"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject    string `json:"subject"`
	StatusID   int64  `json:"status_id"`
	PriorityID int64  `json:"priority_id"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
	AssignedTo    *int64   `json:"assigned_to,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	DeletedRows int64 `json:"deleted_rows"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID      int64  `json:"comment_id"`
	ContentPreview string `json:"content_preview"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}
