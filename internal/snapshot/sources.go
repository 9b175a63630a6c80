package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/types"
)

// Query is the location scope of one snapshot fetch.
type Query struct {
	Location types.Location
	Radius   int
	Now      time.Time
}

// Source produces one domain's slice of the snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) (map[string]any, error)
}

// WeatherSource reads current conditions and the short-range forecast.
type WeatherSource struct {
	client *Client
}

func NewWeatherSource(client *Client) *WeatherSource {
	return &WeatherSource{client: client}
}

func (s *WeatherSource) Name() string { return "weather" }

func (s *WeatherSource) Fetch(ctx context.Context, q Query) (map[string]any, error) {
	var resp struct {
		Temperature              *float64 `json:"temperature"`
		FeelsLike                *float64 `json:"feelsLike"`
		PrecipitationProbability *float64 `json:"precipitationProbability"`
		Condition                string   `json:"condition"`
	}
	if err := s.client.getJSON(ctx, "current", coordinateParams(q), &resp); err != nil {
		return nil, err
	}

	out := map[string]any{}
	if resp.Temperature != nil {
		out[KeyTemperature] = *resp.Temperature
	}
	if resp.FeelsLike != nil {
		out[KeyFeelsLike] = *resp.FeelsLike
	}
	if resp.PrecipitationProbability != nil {
		out[KeyPrecipitationProbability] = *resp.PrecipitationProbability
	}
	if c := strings.TrimSpace(resp.Condition); c != "" {
		out[KeyWeatherCondition] = strings.ToUpper(c)
	}
	return out, nil
}

// AirQualitySource reads the nearest measuring station.
type AirQualitySource struct {
	client *Client
}

func NewAirQualitySource(client *Client) *AirQualitySource {
	return &AirQualitySource{client: client}
}

func (s *AirQualitySource) Name() string { return "air_quality" }

func (s *AirQualitySource) Fetch(ctx context.Context, q Query) (map[string]any, error) {
	var resp struct {
		AQI     *float64 `json:"aqi"`
		PM10    *float64 `json:"pm10"`
		PM25    *float64 `json:"pm25"`
		Station string   `json:"station"`
	}
	if err := s.client.getJSON(ctx, "air-quality", coordinateParams(q), &resp); err != nil {
		return nil, err
	}

	out := map[string]any{}
	if resp.AQI != nil {
		out[KeyAirQualityIndex] = *resp.AQI
	}
	if resp.PM10 != nil {
		out[KeyPM10] = *resp.PM10
	}
	if resp.PM25 != nil {
		out[KeyPM25] = *resp.PM25
	}
	if resp.Station != "" {
		out[KeyAirQualityStation] = resp.Station
	}
	return out, nil
}

// BikeShareSource lists rental stations within the query radius.
type BikeShareSource struct {
	client *Client
}

func NewBikeShareSource(client *Client) *BikeShareSource {
	return &BikeShareSource{client: client}
}

func (s *BikeShareSource) Name() string { return "bike_share" }

func (s *BikeShareSource) Fetch(ctx context.Context, q Query) (map[string]any, error) {
	params := coordinateParams(q)
	params.Set("radius", strconv.Itoa(q.Radius))

	var resp struct {
		Stations []struct {
			ID             string  `json:"id"`
			Name           string  `json:"name"`
			Latitude       float64 `json:"latitude"`
			Longitude      float64 `json:"longitude"`
			AvailableBikes int     `json:"availableBikes"`
		} `json:"stations"`
	}
	if err := s.client.getJSON(ctx, "stations", params, &resp); err != nil {
		return nil, err
	}

	stations := make([]BikeStation, 0, len(resp.Stations))
	total := 0
	for _, st := range resp.Stations {
		loc := types.Location{Lat: st.Latitude, Lng: st.Longitude}
		distance := q.Location.DistanceMeters(loc)
		if q.Radius > 0 && distance > float64(q.Radius) {
			continue
		}
		stations = append(stations, BikeStation{
			ID:             st.ID,
			Name:           st.Name,
			Location:       loc,
			Available:      st.AvailableBikes,
			DistanceMeters: distance,
		})
		total += st.AvailableBikes
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].DistanceMeters < stations[j].DistanceMeters })

	if len(stations) == 0 {
		return map[string]any{}, nil
	}
	return map[string]any{
		KeyBikeAvailable: total,
		KeyBikeStations:  stations,
	}, nil
}

// CulturalSource lists events near the location for the query day.
type CulturalSource struct {
	client *Client
}

func NewCulturalSource(client *Client) *CulturalSource {
	return &CulturalSource{client: client}
}

func (s *CulturalSource) Name() string { return "cultural" }

func (s *CulturalSource) Fetch(ctx context.Context, q Query) (map[string]any, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	params := coordinateParams(q)
	params.Set("radius", strconv.Itoa(q.Radius))
	params.Set("date", now.Format("2006-01-02"))

	var resp struct {
		Events []struct {
			ID        string    `json:"id"`
			Title     string    `json:"title"`
			Venue     string    `json:"venue"`
			Category  string    `json:"category"`
			Latitude  float64   `json:"latitude"`
			Longitude float64   `json:"longitude"`
			StartsAt  time.Time `json:"startsAt"`
			EndsAt    time.Time `json:"endsAt"`
			Free      bool      `json:"free"`
			URL       string    `json:"url"`
		} `json:"events"`
	}
	if err := s.client.getJSON(ctx, "events", params, &resp); err != nil {
		return nil, err
	}

	events := make([]CulturalEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if !ev.EndsAt.IsZero() && ev.EndsAt.Before(now) {
			continue
		}
		loc := types.Location{Lat: ev.Latitude, Lng: ev.Longitude}
		distance := q.Location.DistanceMeters(loc)
		if q.Radius > 0 && distance > float64(q.Radius) {
			continue
		}
		events = append(events, CulturalEvent{
			ID:             ev.ID,
			Title:          ev.Title,
			Venue:          ev.Venue,
			Category:       ev.Category,
			Location:       loc,
			StartsAt:       ev.StartsAt,
			EndsAt:         ev.EndsAt,
			Free:           ev.Free,
			URL:            ev.URL,
			DistanceMeters: distance,
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	return map[string]any{KeyCulturalEvents: events}, nil
}

func cacheKey(source string, q Query) string {
	return fmt.Sprintf("%s:%s:%d", source, q.Location.Cell(), q.Radius)
}
