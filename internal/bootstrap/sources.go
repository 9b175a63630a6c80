package bootstrap

import (
	"context"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
)

const (
	weatherKeyParam    = "appid"
	airQualityKeyParam = "token"
	culturalKeyParam   = "apikey"
)

// Sources builds a snapshot source for every configured endpoint. Sources
// without a base URL are skipped, and their keys stay absent from contexts.
func Sources(cfg config.SnapshotsConfig, logg *logger.Logger) []snapshot.Source {
	var out []snapshot.Source
	add := func(name, url string, build func(*snapshot.Client) snapshot.Source, opts ...snapshot.Option) {
		if url == "" {
			logg.Info(logg.WithField(context.Background(), "source", name), "snapshot source not configured")
			return
		}
		client, err := snapshot.NewClient(url, opts...)
		if err != nil {
			logg.Error(logg.WithField(context.Background(), "source", name), "snapshot source misconfigured", err)
			return
		}
		out = append(out, build(client))
	}

	add("weather", cfg.WeatherURL, func(c *snapshot.Client) snapshot.Source {
		return snapshot.NewWeatherSource(c)
	}, snapshot.WithAPIKey(weatherKeyParam, cfg.WeatherAPIKey))
	add("air_quality", cfg.AirQualityURL, func(c *snapshot.Client) snapshot.Source {
		return snapshot.NewAirQualitySource(c)
	}, snapshot.WithAPIKey(airQualityKeyParam, cfg.AirQualityKey))
	add("bike_share", cfg.BikeShareURL, func(c *snapshot.Client) snapshot.Source {
		return snapshot.NewBikeShareSource(c)
	})
	add("cultural", cfg.CulturalURL, func(c *snapshot.Client) snapshot.Source {
		return snapshot.NewCulturalSource(c)
	}, snapshot.WithAPIKey(culturalKeyParam, cfg.CulturalAPIKey))
	return out
}
