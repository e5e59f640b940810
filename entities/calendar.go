package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarEntry is the internal calendar row written when a scheduled lesson
// is published, removed when it is unpublished or cancelled.
type CalendarEntry struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	LessonID  uuid.UUID  `json:"lesson_id" gorm:"type:uuid;not null;index:idx_calendar_entries_lesson_id"`
	ClassID   *uuid.UUID `json:"class_id" gorm:"type:uuid"`
	Title     string     `json:"title" gorm:"type:varchar(255);not null"`
	StartsAt  time.Time  `json:"starts_at" gorm:"not null"`
	EndsAt    time.Time  `json:"ends_at" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
}

func (CalendarEntry) TableName() string {
	return "calendar_entries"
}

func (e *CalendarEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
