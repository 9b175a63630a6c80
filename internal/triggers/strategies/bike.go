package strategies

import (
	"fmt"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
)

// DefaultBikeShortageThreshold is the bike count at or below which stations count as empty.
const DefaultBikeShortageThreshold = 2

// BikeShortage fires when the stations around the user are nearly empty.
type BikeShortage struct {
	base
	threshold int
}

func NewBikeShortage(threshold int) *BikeShortage {
	return &BikeShortage{
		base: base{
			typ:         TypeBikeShortage,
			priority:    4,
			description: fmt.Sprintf("At most %d shared bikes available nearby", threshold),
		},
		threshold: threshold,
	}
}

func (s *BikeShortage) Evaluate(tc *triggers.Context) (triggers.Result, error) {
	if !tc.HasInterest(enums.InterestMobility) {
		return triggers.NotTriggered(s.typ), nil
	}
	available, ok := tc.Float(snapshot.KeyBikeAvailable)
	if !ok || int(available) > s.threshold {
		return triggers.NotTriggered(s.typ), nil
	}

	data := map[string]any{"bikeAvailable": int(available)}
	message := fmt.Sprintf("Only %d shared bikes are available near you.", int(available))
	if raw, ok := tc.Value(snapshot.KeyBikeStations); ok {
		if stations, ok := raw.([]snapshot.BikeStation); ok && len(stations) > 0 {
			data["stations"] = len(stations)
			data["nearestStation"] = stations[0].Name
			message = fmt.Sprintf("Only %d shared bikes are available near you. Nearest station: %s.", int(available), stations[0].Name)
		}
	}
	return triggers.Result{
		Triggered:        true,
		NotificationType: enums.NotificationTypeBikeAvailability,
		ConditionID:      fmt.Sprintf("BIKES_AT_MOST_%d", s.threshold),
		Title:            "Few bikes nearby",
		Message:          message,
		Data:             data,
	}, nil
}
