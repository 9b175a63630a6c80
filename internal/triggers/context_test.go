package triggers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func locationPtr(lat, lng float64) *types.Location {
	return &types.Location{Lat: lat, Lng: lng}
}

func TestContextCopiesInputs(t *testing.T) {
	snapshot := map[string]any{"temperature": 36.0}
	interests := []enums.InterestCategory{enums.InterestWeather}
	meta := map[string]any{"source": "on_demand"}
	last := map[Type]time.Time{"HIGH_TEMPERATURE": time.Unix(100, 0)}

	tc := NewContext(ContextParams{
		UserID:        uuid.New(),
		Interests:     interests,
		Snapshot:      snapshot,
		Metadata:      meta,
		LastTriggered: last,
	})

	snapshot["temperature"] = 10.0
	snapshot["pm10"] = 200
	interests[0] = enums.InterestCulture
	meta["source"] = "schedule"
	delete(last, "HIGH_TEMPERATURE")

	v, ok := tc.Float("temperature")
	assert.True(t, ok)
	assert.Equal(t, 36.0, v)
	assert.False(t, tc.Has("pm10"))
	assert.True(t, tc.HasInterest(enums.InterestWeather))
	assert.False(t, tc.HasInterest(enums.InterestCulture))
	assert.Equal(t, "on_demand", tc.MetaString("source"))
	_, ok = tc.LastTriggered("HIGH_TEMPERATURE")
	assert.True(t, ok)
	assert.False(t, tc.Now().IsZero())
}

func TestContextFloatConversions(t *testing.T) {
	tc := NewContext(ContextParams{Snapshot: map[string]any{
		"int":    3,
		"number": json.Number("4.5"),
		"str":    "7.25",
		"bad":    "n/a",
		"list":   []string{"x"},
	}})

	v, ok := tc.Float("int")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	v, ok = tc.Float("number")
	assert.True(t, ok)
	assert.Equal(t, 4.5, v)
	v, ok = tc.Float("str")
	assert.True(t, ok)
	assert.Equal(t, 7.25, v)
	_, ok = tc.Float("bad")
	assert.False(t, ok)
	_, ok = tc.Float("list")
	assert.False(t, ok)
	_, ok = tc.Float("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"bad", "int", "list", "number", "str"}, tc.SnapshotKeys())
}

func TestContextLocation(t *testing.T) {
	tc := NewContext(ContextParams{})
	_, ok := tc.Location()
	assert.False(t, ok)
	assert.Empty(t, tc.LocationInfo())

	tc = NewContext(ContextParams{Location: locationPtr(1, 2)})
	loc, ok := tc.Location()
	assert.True(t, ok)
	assert.Equal(t, 2.0, loc.Lng)
}
