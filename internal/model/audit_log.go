package model

import (
	"encoding/json"
	"time"
)

// AuditLog records one mutating API request.
type AuditLog struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"userId"`
	RequestID    string    `json:"requestId"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	ResourceType *string   `json:"resourceType"`
	ResourceID   *string   `json:"resourceId"`
	StatusCode   int       `json:"statusCode"`
	// RequestBody is the JSON body with credential fields redacted.
	RequestBody json.RawMessage `json:"requestBody,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
