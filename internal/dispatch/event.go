// Package dispatch hands triggered results off to persistence and delivery
// without blocking the evaluation path.
package dispatch

import (
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/google/uuid"
)

// Source values recorded on events.
const (
	SourceSchedule = "schedule"
	SourceOnDemand = "on_demand"
)

// Event is one admitted trigger waiting to become a notification.
type Event struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TriggerType      triggers.Type
	NotificationType enums.NotificationType
	ConditionID      string
	Title            string
	Message          string
	LocationInfo     string
	Priority         int
	Data             map[string]any
	Source           string
	OccurredAt       time.Time
}

// NewEvent builds an event from a triggered result.
func NewEvent(userID uuid.UUID, r triggers.Result, source string, at time.Time) Event {
	notificationType := r.NotificationType
	if notificationType == "" {
		notificationType = enums.NotificationTypeSystem
	}
	return Event{
		ID:               uuid.New(),
		UserID:           userID,
		TriggerType:      r.TriggerType,
		NotificationType: notificationType,
		ConditionID:      r.ConditionID,
		Title:            r.Title,
		Message:          r.Message,
		LocationInfo:     r.LocationInfo,
		Priority:         r.Priority,
		Data:             r.Data,
		Source:           source,
		OccurredAt:       at.UTC(),
	}
}

func (e Event) stringData() map[string]string {
	if len(e.Data) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Data))
	for k, v := range e.Data {
		out[k] = fmt.Sprint(v)
	}
	return out
}
