package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

type Notification struct {
	ID          uuid.UUID                     `json:"id" gorm:"type:uuid;primary_key"`
	RecipientID uuid.UUID                     `json:"recipient_id" gorm:"type:uuid;not null;index:idx_notifications_recipient_id"`
	Type        constant.NotificationType     `json:"type" gorm:"type:varchar(50);not null"`
	Title       string                        `json:"title" gorm:"type:varchar(255);not null"`
	Body        string                        `json:"body" gorm:"type:text"`
	Priority    constant.NotificationPriority `json:"priority" gorm:"type:varchar(10);not null;default:'NORMAL'"`
	ActionLink  *string                       `json:"action_link" gorm:"type:varchar(500)"`
	Payload     *string                       `json:"payload" gorm:"type:text"`
	Read        bool                          `json:"read" gorm:"not null;default:false"`
	CreatedAt   time.Time                     `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time                     `json:"updated_at" gorm:"not null"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationSent is the dedup marker: one row per (type, event, recipient)
// tuple, carrying nothing else.
type NotificationSent struct {
	ID          uuid.UUID                 `json:"id" gorm:"type:uuid;primary_key"`
	Type        constant.NotificationType `json:"type" gorm:"type:varchar(50);not null;uniqueIndex:unique_notification_sent"`
	EventID     string                    `json:"event_id" gorm:"type:varchar(255);not null;uniqueIndex:unique_notification_sent"`
	RecipientID uuid.UUID                 `json:"recipient_id" gorm:"type:uuid;not null;uniqueIndex:unique_notification_sent"`
	CreatedAt   time.Time                 `json:"created_at" gorm:"not null"`
}

func (NotificationSent) TableName() string {
	return "notifications_sent"
}

func (n *NotificationSent) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
