package domain

import "time"

// Default reference ids assigned at creation when the caller supplies none.
// Row 1 of each table is seeded by the initial migration ("open" / "low").
const (
	DefaultStatusID   int64 = 1
	DefaultPriorityID int64 = 1
)

// Ticket is the aggregate for support requests. The *Name and *Email fields
// are display data populated by the repository's joined SELECTs; they are
// never written back.
type Ticket struct {
	ID          int64
	Subject     string
	Description string
	StatusID    int64
	PriorityID  int64
	CreatedBy   int64
	AssignedTo  *int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time

	StatusName      string
	PriorityName    string
	CreatedByName   string
	CreatedByEmail  string
	AssignedToName  *string
	AssignedToEmail *string
}
