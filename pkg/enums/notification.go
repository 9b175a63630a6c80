package enums

import "fmt"

// NotificationType classifies a notification for clients.
type NotificationType string

const (
	NotificationTypeWeatherAlert     NotificationType = "WEATHER_ALERT"
	NotificationTypeAirQualityAlert  NotificationType = "AIR_QUALITY_ALERT"
	NotificationTypeBikeAvailability NotificationType = "BIKE_AVAILABILITY"
	NotificationTypeCulturalEvent    NotificationType = "CULTURAL_EVENT"
	NotificationTypeSystem           NotificationType = "SYSTEM"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeWeatherAlert,
	NotificationTypeAirQualityAlert,
	NotificationTypeBikeAvailability,
	NotificationTypeCulturalEvent,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationStatus is the delivery state recorded on a history row.
// PENDING rows were saved before delivery and never settled.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationStatusPending, NotificationStatusSent, NotificationStatusFailed:
		return true
	}
	return false
}

// IsFinal reports whether delivery has settled.
func (s NotificationStatus) IsFinal() bool {
	return s == NotificationStatusSent || s == NotificationStatusFailed
}
