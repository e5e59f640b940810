package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonAttendance struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	LessonID     uuid.UUID  `json:"lesson_id" gorm:"type:uuid;not null;index:idx_attendance_lesson_id"`
	EnrollmentID uuid.UUID  `json:"enrollment_id" gorm:"type:uuid;not null;index:idx_attendance_enrollment_id"`
	EnteredAt    time.Time  `json:"entered_at" gorm:"not null"`
	ExitedAt     *time.Time `json:"exited_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null"`
}

func (LessonAttendance) TableName() string {
	return "lesson_attendance"
}

func (a *LessonAttendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
