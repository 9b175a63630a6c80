package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterestCategoryIgnoresCase(t *testing.T) {
	got, err := ParseInterestCategory(" culture ")
	require.NoError(t, err)
	assert.Equal(t, InterestCulture, got)

	_, err = ParseInterestCategory("sports")
	assert.Error(t, err)
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("admin")
	require.NoError(t, err)
	assert.Equal(t, UserRoleAdmin, role)
	assert.False(t, UserRole("root").IsValid())
}

func TestNotificationEnums(t *testing.T) {
	_, err := ParseNotificationType("WEATHER_ALERT")
	assert.NoError(t, err)
	_, err = ParseNotificationType("weather_alert")
	assert.Error(t, err)
	assert.True(t, NotificationStatusFailed.IsValid())
	assert.False(t, NotificationStatus("QUEUED").IsValid())
	assert.True(t, NotificationStatusPending.IsValid())
	assert.False(t, NotificationStatusPending.IsFinal())
	assert.True(t, NotificationStatusSent.IsFinal())
}
