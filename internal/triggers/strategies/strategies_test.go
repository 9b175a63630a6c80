package strategies

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWith(interests []enums.InterestCategory, values map[string]any) *triggers.Context {
	return triggers.NewContext(triggers.ContextParams{
		UserID:    uuid.New(),
		Interests: interests,
		Snapshot:  values,
		Now:       time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC),
	})
}

var allInterests = []enums.InterestCategory{
	enums.InterestWeather,
	enums.InterestAirQuality,
	enums.InterestMobility,
	enums.InterestCulture,
}

func TestDefaultsRegisterUniqueTypes(t *testing.T) {
	reg, err := triggers.NewRegistry(Defaults()...)
	require.NoError(t, err)
	assert.Len(t, reg.Types(), 5)

	infos := reg.Infos()
	assert.Equal(t, TypeHighTemperature, infos[0].Type)
	assert.Equal(t, TypeCulturalEvent, infos[4].Type)
}

func TestHighTemperatureAndMissingAirQuality(t *testing.T) {
	reg, err := triggers.NewRegistry(NewHighTemperature(33), NewBadAirQuality(DefaultAirQualityThreshold))
	require.NoError(t, err)
	engine, err := triggers.NewEngine(reg, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), nil)
	require.NoError(t, err)

	tc := contextWith(allInterests, map[string]any{snapshot.KeyTemperature: 36})
	out := engine.EvaluateAll(context.Background(), tc)

	assert.Equal(t, 2, out.TotalEvaluated)
	require.Len(t, out.Results, 1)
	assert.Equal(t, TypeHighTemperature, out.Results[0].TriggerType)
	assert.Equal(t, "TEMPERATURE_ABOVE_33", out.Results[0].ConditionID)
	assert.Equal(t, 1, out.Results[0].Priority)
}

func TestHighTemperatureThreshold(t *testing.T) {
	s := NewHighTemperature(33)
	cases := []struct {
		name      string
		interests []enums.InterestCategory
		values    map[string]any
		want      bool
	}{
		{"at threshold", allInterests, map[string]any{snapshot.KeyTemperature: 33.0}, true},
		{"below", allInterests, map[string]any{snapshot.KeyTemperature: 32.9}, false},
		{"missing", allInterests, map[string]any{}, false},
		{"not subscribed", []enums.InterestCategory{enums.InterestCulture}, map[string]any{snapshot.KeyTemperature: 40.0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := s.Evaluate(contextWith(tc.interests, tc.values))
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Triggered)
		})
	}
}

func TestBadAirQualityUsesStation(t *testing.T) {
	res, err := NewBadAirQuality(150).Evaluate(contextWith(allInterests, map[string]any{
		snapshot.KeyAirQualityIndex:   170.0,
		snapshot.KeyPM10:              130.0,
		snapshot.KeyAirQualityStation: "Jung-gu",
	}))
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.Equal(t, enums.NotificationTypeAirQualityAlert, res.NotificationType)
	assert.Contains(t, res.Message, "Jung-gu")
	assert.Equal(t, 130.0, res.Data["pm10"])
}

func TestRainExpectedRejectsOutOfRange(t *testing.T) {
	_, err := NewRainExpected(60).Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyPrecipitationProbability: 140.0}))
	assert.Error(t, err)

	res, err := NewRainExpected(60).Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyPrecipitationProbability: 80.0}))
	require.NoError(t, err)
	assert.True(t, res.Triggered)
}

func TestBikeShortage(t *testing.T) {
	stations := []snapshot.BikeStation{{ID: "st-1", Name: "City Hall Exit 5", Available: 1}}
	res, err := NewBikeShortage(2).Evaluate(contextWith(allInterests, map[string]any{
		snapshot.KeyBikeAvailable: 1,
		snapshot.KeyBikeStations:  stations,
	}))
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.Contains(t, res.Message, "City Hall Exit 5")

	res, err = NewBikeShortage(2).Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyBikeAvailable: 9}))
	require.NoError(t, err)
	assert.False(t, res.Triggered)
}

func TestCulturalEvent(t *testing.T) {
	now := time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC)
	events := []snapshot.CulturalEvent{
		{ID: "tomorrow", Title: "Opera", StartsAt: now.Add(24 * time.Hour)},
		{ID: "ended", Title: "Fair", StartsAt: now.Add(-3 * time.Hour), EndsAt: now.Add(-time.Hour)},
		{ID: "soon", Title: "Jazz Night", Venue: "Seoul Plaza", StartsAt: now.Add(2 * time.Hour)},
	}
	res, err := NewCulturalEvent(3 * time.Hour).Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyCulturalEvents: events}))
	require.NoError(t, err)
	require.True(t, res.Triggered)
	assert.Equal(t, "CULTURAL_EVENT_soon", res.ConditionID)
	assert.Contains(t, res.Message, "16:00")

	_, err = NewCulturalEvent(time.Hour).Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyCulturalEvents: "bad"}))
	assert.Error(t, err)
}

func TestCulturalEventWithoutEndExpiresAfterLookahead(t *testing.T) {
	now := time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC)
	strategy := NewCulturalEvent(3 * time.Hour)

	stale := []snapshot.CulturalEvent{{ID: "last-week", Title: "Expo", StartsAt: now.AddDate(0, 0, -7)}}
	res, err := strategy.Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyCulturalEvents: stale}))
	require.NoError(t, err)
	assert.False(t, res.Triggered)

	running := []snapshot.CulturalEvent{{ID: "matinee", Title: "Matinee", Venue: "Arts Center", StartsAt: now.Add(-time.Hour)}}
	res, err = strategy.Evaluate(contextWith(allInterests, map[string]any{snapshot.KeyCulturalEvents: running}))
	require.NoError(t, err)
	require.True(t, res.Triggered)
	assert.Contains(t, res.Message, "on now")
}
