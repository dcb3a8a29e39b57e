package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// CreateCommentRequest payload for adding a comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is a comment joined with its author.
type CommentResponse struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id"`
	AuthorID    int64     `json:"author_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		TicketID:    comment.TicketID,
		AuthorID:    comment.AuthorID,
		Content:     comment.Content,
		CreatedAt:   comment.CreatedAt,
		AuthorName:  comment.AuthorName,
		AuthorEmail: comment.AuthorEmail,
	}
}
