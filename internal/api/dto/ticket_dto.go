package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// OptionalInt64 distinguishes "field absent" from "field set to null" in
// PATCH payloads. Present is true whenever the key appeared at all.
type OptionalInt64 struct {
	Present bool
	Value   *int64
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateTicketRequest payload for ticket creation.
type CreateTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	PriorityID  *int64 `json:"priority_id"`
}

// UpdateTicketRequest is the PATCH payload; every field is optional.
type UpdateTicketRequest struct {
	Subject     *string       `json:"subject"`
	Description *string       `json:"description"`
	StatusID    *int64        `json:"status_id"`
	PriorityID  *int64        `json:"priority_id"`
	AssignedTo  OptionalInt64 `json:"assigned_to"`
}

// TicketResponse mirrors the joined ticket row.
type TicketResponse struct {
	ID              int64      `json:"id"`
	Subject         string     `json:"subject"`
	Description     string     `json:"description"`
	StatusID        int64      `json:"status_id"`
	PriorityID      int64      `json:"priority_id"`
	CreatedBy       int64      `json:"created_by"`
	AssignedTo      *int64     `json:"assigned_to"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
	StatusName      string     `json:"status_name"`
	PriorityName    string     `json:"priority_name"`
	CreatedByName   string     `json:"created_by_name"`
	CreatedByEmail  string     `json:"created_by_email"`
	AssignedToName  *string    `json:"assigned_to_name"`
	AssignedToEmail *string    `json:"assigned_to_email"`
}

// TicketDetailResponse is a ticket plus its comment thread.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// DeleteTicketResponse reports the rows-affected count.
type DeleteTicketResponse struct {
	Deleted int64 `json:"deleted"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              ticket.ID,
		Subject:         ticket.Subject,
		Description:     ticket.Description,
		StatusID:        ticket.StatusID,
		PriorityID:      ticket.PriorityID,
		CreatedBy:       ticket.CreatedBy,
		AssignedTo:      ticket.AssignedTo,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		StatusName:      ticket.StatusName,
		PriorityName:    ticket.PriorityName,
		CreatedByName:   ticket.CreatedByName,
		CreatedByEmail:  ticket.CreatedByEmail,
		AssignedToName:  ticket.AssignedToName,
		AssignedToEmail: ticket.AssignedToEmail,
	}
}
