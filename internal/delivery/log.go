package delivery

import (
	"context"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
)

// LogChannel writes each notification to the structured log.
type LogChannel struct {
	logg *logger.Logger
}

func NewLogChannel(logg *logger.Logger) *LogChannel {
	return &LogChannel{logg: logg}
}

func (c *LogChannel) Name() string {
	return "log"
}

func (c *LogChannel) Deliver(ctx context.Context, msg Message) error {
	logCtx := c.logg.WithFields(c.logg.WithUserID(ctx, msg.UserID.String()), map[string]any{
		"notification_id":   msg.NotificationID.String(),
		"notification_type": string(msg.Type),
		"trigger_type":      msg.TriggerType,
		"title":             msg.Title,
		"priority":          msg.Priority,
	})
	c.logg.Info(logCtx, "notification delivered")
	return nil
}
