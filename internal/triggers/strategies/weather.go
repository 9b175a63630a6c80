package strategies

import (
	"fmt"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
)

const (
	DefaultTemperatureThreshold = 33.0
	DefaultRainProbability      = 60.0
)

// HighTemperature fires when the current temperature reaches the heat-wave threshold.
type HighTemperature struct {
	base
	threshold float64
}

func NewHighTemperature(threshold float64) *HighTemperature {
	return &HighTemperature{
		base: base{
			typ:         TypeHighTemperature,
			priority:    1,
			description: fmt.Sprintf("Temperature at or above %.0f°C", threshold),
		},
		threshold: threshold,
	}
}

func (s *HighTemperature) Evaluate(tc *triggers.Context) (triggers.Result, error) {
	if !tc.HasInterest(enums.InterestWeather) {
		return triggers.NotTriggered(s.typ), nil
	}
	temp, ok := tc.Float(snapshot.KeyTemperature)
	if !ok || temp < s.threshold {
		return triggers.NotTriggered(s.typ), nil
	}

	data := map[string]any{"temperature": temp, "threshold": s.threshold}
	if feels, ok := tc.Float(snapshot.KeyFeelsLike); ok {
		data["feelsLike"] = feels
	}
	return triggers.Result{
		Triggered:        true,
		NotificationType: enums.NotificationTypeWeatherAlert,
		ConditionID:      fmt.Sprintf("TEMPERATURE_ABOVE_%.0f", s.threshold),
		Title:            "Heat alert",
		Message:          fmt.Sprintf("It is %.1f°C near you. Stay hydrated and avoid long exposure outdoors.", temp),
		Data:             data,
	}, nil
}

// RainExpected fires when the short-range precipitation probability is high.
type RainExpected struct {
	base
	probability float64
}

func NewRainExpected(probability float64) *RainExpected {
	return &RainExpected{
		base: base{
			typ:         TypeRainExpected,
			priority:    3,
			description: fmt.Sprintf("Precipitation probability at or above %.0f%%", probability),
		},
		probability: probability,
	}
}

func (s *RainExpected) Evaluate(tc *triggers.Context) (triggers.Result, error) {
	if !tc.HasInterest(enums.InterestWeather) {
		return triggers.NotTriggered(s.typ), nil
	}
	chance, ok := tc.Float(snapshot.KeyPrecipitationProbability)
	if !ok {
		return triggers.NotTriggered(s.typ), nil
	}
	if chance < 0 || chance > 100 {
		return triggers.Result{}, fmt.Errorf("precipitation probability out of range: %v", chance)
	}
	if chance < s.probability {
		return triggers.NotTriggered(s.typ), nil
	}

	return triggers.Result{
		Triggered:        true,
		NotificationType: enums.NotificationTypeWeatherAlert,
		ConditionID:      fmt.Sprintf("RAIN_PROBABILITY_%.0f", s.probability),
		Title:            "Rain expected",
		Message:          fmt.Sprintf("%.0f%% chance of rain in the next hours. Take an umbrella.", chance),
		Data:             map[string]any{"precipitationProbability": chance},
	}, nil
}
