package strategies

import (
	"fmt"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
)

// DefaultAirQualityThreshold is the index value from which air is considered unhealthy.
const DefaultAirQualityThreshold = 150.0

// BadAirQuality fires when the air quality index reaches the unhealthy band.
type BadAirQuality struct {
	base
	threshold float64
}

func NewBadAirQuality(threshold float64) *BadAirQuality {
	return &BadAirQuality{
		base: base{
			typ:         TypeBadAirQuality,
			priority:    2,
			description: fmt.Sprintf("Air quality index at or above %.0f", threshold),
		},
		threshold: threshold,
	}
}

func (s *BadAirQuality) Evaluate(tc *triggers.Context) (triggers.Result, error) {
	if !tc.HasInterest(enums.InterestAirQuality) {
		return triggers.NotTriggered(s.typ), nil
	}
	aqi, ok := tc.Float(snapshot.KeyAirQualityIndex)
	if !ok || aqi < s.threshold {
		return triggers.NotTriggered(s.typ), nil
	}

	data := map[string]any{"airQualityIndex": aqi, "threshold": s.threshold}
	if pm10, ok := tc.Float(snapshot.KeyPM10); ok {
		data["pm10"] = pm10
	}
	if pm25, ok := tc.Float(snapshot.KeyPM25); ok {
		data["pm25"] = pm25
	}
	message := fmt.Sprintf("Air quality index is %.0f near you. Consider wearing a mask outdoors.", aqi)
	if station, ok := tc.String(snapshot.KeyAirQualityStation); ok {
		message = fmt.Sprintf("Air quality index is %.0f at %s. Consider wearing a mask outdoors.", aqi, station)
	}
	return triggers.Result{
		Triggered:        true,
		NotificationType: enums.NotificationTypeAirQualityAlert,
		ConditionID:      fmt.Sprintf("AQI_ABOVE_%.0f", s.threshold),
		Title:            "Poor air quality",
		Message:          message,
		Data:             data,
	}, nil
}
