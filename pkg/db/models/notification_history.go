package models

import (
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationHistory is a user-visible notification written by the dispatcher.
type NotificationHistory struct {
	ID               uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                `gorm:"type:uuid;not null;index" json:"userId"`
	Type             enums.NotificationType   `gorm:"type:text;not null" json:"type"`
	Title            string                   `gorm:"type:text;not null" json:"title"`
	Message          string                   `gorm:"type:text;not null" json:"message"`
	TriggerCondition string                   `gorm:"column:trigger_condition" json:"triggerCondition"`
	LocationInfo     string                   `gorm:"column:location_info" json:"locationInfo,omitempty"`
	Status           enums.NotificationStatus `gorm:"type:text;not null" json:"status"`
	FailureReason    *string                  `gorm:"column:failure_reason" json:"-"`
	SentAt           time.Time                `gorm:"column:sent_at;not null" json:"sentAt"`
	ReadAt           *time.Time               `gorm:"column:read_at" json:"readAt,omitempty"`
}

func (NotificationHistory) TableName() string { return "notification_history" }

func (n *NotificationHistory) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
