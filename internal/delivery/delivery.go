// Package delivery pushes dispatched notifications out to end channels.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrSkipped is returned by a channel that cannot serve the message, for example a
// push channel for a user without a device token.
var ErrSkipped = errors.New("delivery skipped")

// Message is the channel-neutral payload handed to every channel.
type Message struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
	DeviceToken    string
	Type           enums.NotificationType
	TriggerType    string
	ConditionID    string
	Title          string
	Body           string
	LocationInfo   string
	Priority       int
	Data           map[string]string
	SentAt         time.Time
}

// Channel delivers one message. Implementations must honor ctx cancellation.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// Multi fans a message out to every channel.
type Multi struct {
	channels []Channel
	logg     *logger.Logger
}

func NewMulti(logg *logger.Logger, channels ...Channel) (*Multi, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one delivery channel required")
	}
	for i, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("delivery channel %d is nil", i)
		}
	}
	return &Multi{channels: channels, logg: logg}, nil
}

func (m *Multi) Name() string {
	return "multi"
}

// Channels lists the configured channel names.
func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Deliver succeeds when at least one channel delivered or every channel skipped.
// Per-channel failures are logged.
func (m *Multi) Deliver(ctx context.Context, msg Message) error {
	var errs error
	delivered := 0
	for _, ch := range m.channels {
		err := ch.Deliver(ctx, msg)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrSkipped):
		default:
			logCtx := m.logg.WithFields(ctx, map[string]any{
				"channel":         ch.Name(),
				"notification_id": msg.NotificationID.String(),
				"user_id":         msg.UserID.String(),
			})
			m.logg.Warn(logCtx, fmt.Sprintf("delivery channel failed: %v", err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	if delivered == 0 && errs != nil {
		return errs
	}
	return nil
}
