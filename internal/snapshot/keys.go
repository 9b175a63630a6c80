package snapshot

import (
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/types"
)

// Snapshot keys produced by the sources and read by strategies.
const (
	KeyTemperature              = "temperature"
	KeyFeelsLike                = "feelsLike"
	KeyPrecipitationProbability = "precipitationProbability"
	KeyWeatherCondition         = "weatherCondition"
	KeyAirQualityIndex          = "airQualityIndex"
	KeyPM10                     = "pm10"
	KeyPM25                     = "pm25"
	KeyAirQualityStation        = "airQualityStation"
	KeyBikeAvailable            = "bikeAvailable"
	KeyBikeStations             = "bikeStations"
	KeyCulturalEvents           = "culturalEvents"
)

// BikeStation is a rental station near the evaluated location.
type BikeStation struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Location       types.Location `json:"location"`
	Available      int            `json:"available"`
	DistanceMeters float64        `json:"distanceMeters"`
}

// CulturalEvent is an event near the evaluated location.
type CulturalEvent struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Venue          string         `json:"venue"`
	Category       string         `json:"category"`
	Location       types.Location `json:"location"`
	StartsAt       time.Time      `json:"startsAt"`
	EndsAt         time.Time      `json:"endsAt"`
	Free           bool           `json:"free"`
	URL            string         `json:"url,omitempty"`
	DistanceMeters float64        `json:"distanceMeters"`
}
