package strategies

import (
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
)

// DefaultCulturalLookahead is how far ahead an event may start and still be announced.
const DefaultCulturalLookahead = 3 * time.Hour

// CulturalEvent fires when an event near the user is running or starts soon.
type CulturalEvent struct {
	base
	lookahead time.Duration
}

func NewCulturalEvent(lookahead time.Duration) *CulturalEvent {
	return &CulturalEvent{
		base: base{
			typ:         TypeCulturalEvent,
			priority:    5,
			description: fmt.Sprintf("Cultural event nearby within the next %s", lookahead),
		},
		lookahead: lookahead,
	}
}

func (s *CulturalEvent) Evaluate(tc *triggers.Context) (triggers.Result, error) {
	if !tc.HasInterest(enums.InterestCulture) {
		return triggers.NotTriggered(s.typ), nil
	}
	raw, ok := tc.Value(snapshot.KeyCulturalEvents)
	if !ok {
		return triggers.NotTriggered(s.typ), nil
	}
	events, ok := raw.([]snapshot.CulturalEvent)
	if !ok {
		return triggers.Result{}, fmt.Errorf("unexpected cultural events payload %T", raw)
	}

	now := tc.Now()
	horizon := now.Add(s.lookahead)
	for _, ev := range events {
		if ev.StartsAt.After(horizon) {
			continue
		}
		if !s.endsAt(ev).After(now) {
			continue
		}
		message := fmt.Sprintf("%s at %s starts at %s.", ev.Title, ev.Venue, ev.StartsAt.Format("15:04"))
		if !ev.StartsAt.After(now) {
			message = fmt.Sprintf("%s is on now at %s.", ev.Title, ev.Venue)
		}
		return triggers.Result{
			Triggered:        true,
			NotificationType: enums.NotificationTypeCulturalEvent,
			ConditionID:      "CULTURAL_EVENT_" + ev.ID,
			Title:            "Event nearby",
			Message:          message,
			Data: map[string]any{
				"eventId":        ev.ID,
				"venue":          ev.Venue,
				"category":       ev.Category,
				"free":           ev.Free,
				"distanceMeters": ev.DistanceMeters,
			},
		}, nil
	}
	return triggers.NotTriggered(s.typ), nil
}

// endsAt treats an event without an end time as lasting one lookahead window.
func (s *CulturalEvent) endsAt(ev snapshot.CulturalEvent) time.Time {
	if ev.EndsAt.IsZero() {
		return ev.StartsAt.Add(s.lookahead)
	}
	return ev.EndsAt
}
