// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/familyhub/internal/app/system/paging"
)

// listItem is one audit event as shown in the activity feed.
type listItem struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	ActorID   string            `json:"actor_id,omitempty"`
	ActorName string            `json:"actor_name,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	UserName  string            `json:"user_name,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items []listItem   `json:"items"`
	Range paging.Range `json:"range"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
