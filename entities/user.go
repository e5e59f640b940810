package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

// User is the projection of the account table this core reads; account
// administration lives elsewhere.
type User struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	Name      string        `json:"name" gorm:"type:varchar(255);not null"`
	Email     string        `json:"email" gorm:"type:varchar(255);not null"`
	Role      constant.Role `json:"role" gorm:"type:varchar(20);not null;index:idx_users_role"`
	BirthDate *time.Time    `json:"birth_date" gorm:"type:date"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
