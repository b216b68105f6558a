package dto

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an out-of-band push to a user's open connections, e.g.
// a session deleted from another device.
type Notification struct {
	Id        uuid.UUID              `json:"id"`
	UserId    uuid.UUID              `json:"user_id"`
	TypeCode  string                 `json:"type_code"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
