package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type topicPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// PubSubChannel publishes notifications to a topic for downstream consumers.
type PubSubChannel struct {
	publisher topicPublisher
}

func NewPubSubChannel(publisher topicPublisher) (*PubSubChannel, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubChannel{publisher: publisher}, nil
}

func (c *PubSubChannel) Name() string {
	return "pubsub"
}

type notificationPayload struct {
	NotificationID string            `json:"notificationId"`
	UserID         string            `json:"userId"`
	Type           string            `json:"type"`
	TriggerType    string            `json:"triggerType"`
	Condition      string            `json:"triggerCondition"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	LocationInfo   string            `json:"locationInfo,omitempty"`
	Priority       int               `json:"priority"`
	Data           map[string]string `json:"data,omitempty"`
	SentAt         time.Time         `json:"sentAt"`
}

func (c *PubSubChannel) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(notificationPayload{
		NotificationID: msg.NotificationID.String(),
		UserID:         msg.UserID.String(),
		Type:           string(msg.Type),
		TriggerType:    msg.TriggerType,
		Condition:      msg.ConditionID,
		Title:          msg.Title,
		Message:        msg.Body,
		LocationInfo:   msg.LocationInfo,
		Priority:       msg.Priority,
		Data:           msg.Data,
		SentAt:         msg.SentAt,
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	attrs := map[string]string{
		"event_type":        "notification.dispatched",
		"notification_type": string(msg.Type),
		"user_id":           msg.UserID.String(),
	}
	if _, err := c.publisher.Publish(ctx, body, attrs); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}
