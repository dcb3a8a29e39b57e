package domain

import "time"

// Comment is a free-text entry on a ticket. Comments are append-only: no
// update or delete operation is exposed. AuthorName/AuthorEmail come from the
// repository join with users.
type Comment struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time

	AuthorName  string
	AuthorEmail string
}
