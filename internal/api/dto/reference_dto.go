package dto

// CreateReferenceRequest payload for new statuses and priorities.
type CreateReferenceRequest struct {
	Name string `json:"name"`
}

// ReferenceResponse is a status or priority row.
type ReferenceResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
