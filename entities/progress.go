package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonProgress struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	LessonID       uuid.UUID  `json:"lesson_id" gorm:"type:uuid;not null;uniqueIndex:unique_lesson_enrollment"`
	EnrollmentID   uuid.UUID  `json:"enrollment_id" gorm:"type:uuid;not null;uniqueIndex:unique_lesson_enrollment"`
	Percentage     int        `json:"percentage" gorm:"not null;default:0"`
	SecondsWatched int        `json:"seconds_watched" gorm:"not null;default:0"`
	LastPosition   int        `json:"last_position" gorm:"not null;default:0"`
	Completed      bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"not null"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
