// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
)

// listItem is one audit event with actor and target names resolved.
type listItem struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"createdAt"`
	Category   string            `json:"category"`
	EventType  string            `json:"eventType"`
	ActorID    string            `json:"actorId,omitempty"`
	ActorName  string            `json:"actorName,omitempty"`
	UserID     string            `json:"userId,omitempty"`
	TargetName string            `json:"targetName,omitempty"`
	ClubID     string            `json:"clubId,omitempty"`
	IP         string            `json:"ip"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failureReason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items      []listItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int64      `json:"total"`
}

// validCategory reports whether c is empty or a known category.
func validCategory(c string) bool {
	switch c {
	case "", audit.CategoryAuth, audit.CategoryAdmin:
		return true
	}
	return false
}
