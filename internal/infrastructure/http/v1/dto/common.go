// Package dto defines HTTP request and response payloads.
package dto

// IDResponse returns a created entity id.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
