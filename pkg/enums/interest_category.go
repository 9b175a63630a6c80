package enums

import (
	"fmt"
	"strings"
)

// InterestCategory is a topic a user subscribes to.
type InterestCategory string

const (
	InterestWeather    InterestCategory = "WEATHER"
	InterestAirQuality InterestCategory = "AIR_QUALITY"
	InterestMobility   InterestCategory = "MOBILITY"
	InterestCulture    InterestCategory = "CULTURE"
)

var validInterestCategories = []InterestCategory{
	InterestWeather,
	InterestAirQuality,
	InterestMobility,
	InterestCulture,
}

func (c InterestCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known InterestCategory.
func (c InterestCategory) IsValid() bool {
	for _, candidate := range validInterestCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseInterestCategory converts raw input, ignoring case, into an InterestCategory.
func ParseInterestCategory(value string) (InterestCategory, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validInterestCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interest category %q", value)
}
