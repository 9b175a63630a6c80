package models

import (
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the subscriber whose interests and location drive evaluation.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email          string         `gorm:"type:text;not null;uniqueIndex"`
	DisplayName    *string        `gorm:"column:display_name"`
	Role           enums.UserRole `gorm:"type:text;not null"`
	FCMToken       *string        `gorm:"column:fcm_token"`
	LastLatitude   *float64       `gorm:"column:last_latitude"`
	LastLongitude  *float64       `gorm:"column:last_longitude"`
	LastLocationAt *time.Time     `gorm:"column:last_location_at"`
	LastActiveAt   *time.Time     `gorm:"column:last_active_at"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	Interests      []UserInterest `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.UserRoleUser
	}
	return nil
}

// LastLocation returns the last reported location, if both coordinates are known.
func (u User) LastLocation() *types.Location {
	if u.LastLatitude == nil || u.LastLongitude == nil {
		return nil
	}
	return &types.Location{Lat: *u.LastLatitude, Lng: *u.LastLongitude}
}

// InterestCategories flattens the loaded interests.
func (u User) InterestCategories() []enums.InterestCategory {
	out := make([]enums.InterestCategory, 0, len(u.Interests))
	for _, interest := range u.Interests {
		out = append(out, interest.Category)
	}
	return out
}

// UserInterest subscribes a user to one category.
type UserInterest struct {
	UserID    uuid.UUID              `gorm:"type:uuid;primaryKey"`
	Category  enums.InterestCategory `gorm:"type:text;primaryKey"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
