package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/citypulse-backend/internal/delivery"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	outcomeSent   = "sent"
	outcomeFailed = "failed"
	outcomeError  = "error"

	maxFailureReason = 500
)

type historyWriter interface {
	Record(ctx context.Context, notification *models.NotificationHistory) error
	Settle(ctx context.Context, notificationID uuid.UUID, status enums.NotificationStatus, reason *string) error
}

type userLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// DispatcherParams wire a Dispatcher. Users may be nil, in which case push
// channels receive no device token.
type DispatcherParams struct {
	Logger          *logger.Logger
	Queue           *Queue
	History         historyWriter
	Users           userLookup
	Channel         delivery.Channel
	DeliveryTimeout time.Duration
	DrainTimeout    time.Duration
	Metrics         *metrics.DispatchMetrics
}

// Dispatcher consumes the queue. Each event is saved as PENDING, delivered,
// then settled as SENT or FAILED. An event whose PENDING row cannot be saved
// is not delivered.
type Dispatcher struct {
	logg            *logger.Logger
	queue           *Queue
	history         historyWriter
	users           userLookup
	channel         delivery.Channel
	deliveryTimeout time.Duration
	drainTimeout    time.Duration
	metrics         *metrics.DispatchMetrics
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("dispatch queue required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("notification history writer required")
	}
	if params.Channel == nil {
		return nil, fmt.Errorf("delivery channel required")
	}
	if params.DeliveryTimeout <= 0 {
		params.DeliveryTimeout = 10 * time.Second
	}
	if params.DrainTimeout <= 0 {
		params.DrainTimeout = 15 * time.Second
	}
	return &Dispatcher{
		logg:            params.Logger,
		queue:           params.Queue,
		history:         params.History,
		users:           params.Users,
		channel:         params.Channel,
		deliveryTimeout: params.DeliveryTimeout,
		drainTimeout:    params.DrainTimeout,
		metrics:         params.Metrics,
	}, nil
}

// Run processes events until ctx is canceled, then drains what is left within
// the drain timeout. It always returns nil.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logg.Info(ctx, "dispatcher started")
	base := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(base)
			return nil
		case ev := <-d.queue.events:
			d.metrics.SetDepth(d.queue.Len())
			d.process(base, ev)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, d.drainTimeout)
	defer cancel()

	processed := 0
	for {
		if drainCtx.Err() != nil {
			d.logg.Warn(d.logg.WithField(ctx, "remaining", d.queue.Len()), "dispatch drain timed out")
			return
		}
		select {
		case ev := <-d.queue.events:
			d.process(drainCtx, ev)
			processed++
		default:
			d.logg.Info(d.logg.WithField(ctx, "drained", processed), "dispatcher stopped")
			return
		}
	}
}

// process never lets a fault escape: errors and panics are logged and counted.
func (d *Dispatcher) process(ctx context.Context, ev Event) {
	logCtx := d.logg.WithFields(d.logg.WithTriggerType(d.logg.WithUserID(ctx, ev.UserID.String()), ev.TriggerType.String()), map[string]any{
		"event_id": ev.ID.String(),
		"source":   ev.Source,
	})

	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncProcessed(outcomeError)
			d.logg.Error(logCtx, "dispatch panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	msg := delivery.Message{
		NotificationID: ev.ID,
		UserID:         ev.UserID,
		DeviceToken:    d.deviceToken(logCtx, ev.UserID),
		Type:           ev.NotificationType,
		TriggerType:    ev.TriggerType.String(),
		ConditionID:    ev.ConditionID,
		Title:          ev.Title,
		Body:           ev.Message,
		LocationInfo:   ev.LocationInfo,
		Priority:       ev.Priority,
		Data:           ev.stringData(),
		SentAt:         time.Now().UTC(),
	}

	row := &models.NotificationHistory{
		ID:               ev.ID,
		UserID:           ev.UserID,
		Type:             ev.NotificationType,
		Title:            ev.Title,
		Message:          ev.Message,
		TriggerCondition: ev.ConditionID,
		LocationInfo:     ev.LocationInfo,
		Status:           enums.NotificationStatusPending,
		SentAt:           msg.SentAt,
	}
	if err := d.history.Record(ctx, row); err != nil {
		d.metrics.IncProcessed(outcomeError)
		d.logg.Error(logCtx, "failed to save notification history, skipping delivery", err)
		return
	}

	status, outcome := enums.NotificationStatusSent, outcomeSent
	var reason *string
	if err := d.deliver(ctx, msg); err != nil {
		failure := truncate(err.Error(), maxFailureReason)
		status, outcome, reason = enums.NotificationStatusFailed, outcomeFailed, &failure
		d.logg.Error(logCtx, "notification delivery failed", err)
	}

	if err := d.history.Settle(ctx, row.ID, status, reason); err != nil {
		d.metrics.IncProcessed(outcomeError)
		d.logg.Error(d.logg.WithField(logCtx, "status", string(status)), "failed to settle notification history", err)
		return
	}
	d.metrics.IncProcessed(outcome)
}

func (d *Dispatcher) deliver(ctx context.Context, msg delivery.Message) error {
	deliverCtx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
	defer cancel()
	return d.channel.Deliver(deliverCtx, msg)
}

func (d *Dispatcher) deviceToken(ctx context.Context, userID uuid.UUID) string {
	if d.users == nil {
		return ""
	}
	user, err := d.users.Get(ctx, userID)
	if err != nil {
		d.logg.Warn(ctx, fmt.Sprintf("device token lookup failed: %v", err))
		return ""
	}
	if user == nil || user.FCMToken == nil {
		return ""
	}
	return strings.TrimSpace(*user.FCMToken)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
