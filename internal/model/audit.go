package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one immutable trail entry. Billing transitions, patient
// registration and catalog mutations all write one.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	BranchID   uuid.UUID       `json:"branch_id" db:"branch_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	IPAddress  string          `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	EntityType string     `form:"entity_type"`
	EntityID   *uuid.UUID `form:"entity_id"`
	UserID     *uuid.UUID `form:"user_id"`
	Pagination
}
