package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConferencingCredential stores the organizer's OAuth tokens encrypted at
// rest; plaintext only exists in memory inside the conferencing service.
type ConferencingCredential struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OrganizerID           uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null;uniqueIndex:unique_credential_organizer"`
	AccessTokenEncrypted  string    `json:"-" gorm:"type:text;not null"`
	RefreshTokenEncrypted string    `json:"-" gorm:"type:text;not null"`
	CalendarID            string    `json:"calendar_id" gorm:"type:varchar(255);not null;default:'primary'"`
	ExpiresAt             time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt             time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"not null"`
}

func (ConferencingCredential) TableName() string {
	return "conferencing_credentials"
}

func (c *ConferencingCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the access token needs a refresh.
func (c *ConferencingCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
