// Package strategies holds the reference trigger rules registered at startup.
package strategies

import (
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
)

const (
	TypeHighTemperature triggers.Type = "HIGH_TEMPERATURE"
	TypeBadAirQuality   triggers.Type = "BAD_AIR_QUALITY"
	TypeRainExpected    triggers.Type = "RAIN_EXPECTED"
	TypeBikeShortage    triggers.Type = "BIKE_SHORTAGE"
	TypeCulturalEvent   triggers.Type = "CULTURAL_EVENT"
)

type base struct {
	typ         triggers.Type
	priority    int
	description string
}

func (b base) Type() triggers.Type { return b.typ }
func (b base) Priority() int       { return b.priority }
func (b base) Description() string { return b.description }

// Defaults returns every reference strategy with its standard thresholds.
func Defaults() []triggers.Strategy {
	return []triggers.Strategy{
		NewHighTemperature(DefaultTemperatureThreshold),
		NewBadAirQuality(DefaultAirQualityThreshold),
		NewRainExpected(DefaultRainProbability),
		NewBikeShortage(DefaultBikeShortageThreshold),
		NewCulturalEvent(DefaultCulturalLookahead),
	}
}

// CulturalTypes are evaluated by the slower domain sweep instead of the realtime one.
func CulturalTypes() []triggers.Type {
	return []triggers.Type{TypeCulturalEvent}
}
