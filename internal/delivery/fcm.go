package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"google.golang.org/api/option"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMChannel sends push notifications through Firebase Cloud Messaging.
type FCMChannel struct {
	client messageSender
}

// NewFCMChannel initializes a Firebase app and its messaging client.
func NewFCMChannel(ctx context.Context, gcp config.GCPConfig, cfg config.FirebaseConfig) (*FCMChannel, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: gcp.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting messaging client: %w", err)
	}
	return &FCMChannel{client: client}, nil
}

func (c *FCMChannel) Name() string {
	return "fcm"
}

func (c *FCMChannel) Deliver(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.DeviceToken) == "" {
		return ErrSkipped
	}
	if _, err := c.client.Send(ctx, buildPushMessage(msg)); err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	return nil
}

func buildPushMessage(msg Message) *messaging.Message {
	data := make(map[string]string, len(msg.Data)+4)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["notificationId"] = msg.NotificationID.String()
	data["notificationType"] = string(msg.Type)
	data["triggerType"] = msg.TriggerType
	data["priority"] = strconv.Itoa(msg.Priority)

	androidPriority := "normal"
	if msg.Priority <= 2 {
		androidPriority = "high"
	}

	return &messaging.Message{
		Token: msg.DeviceToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
