package domain

// Reference is a simple lookup row shared by statuses and priorities. Created
// by admins, read by everyone, never updated or deleted.
type Reference struct {
	ID   int64
	Name string
}
