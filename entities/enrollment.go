package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

type Enrollment struct {
	ID        uuid.UUID                 `json:"id" gorm:"type:uuid;primary_key"`
	ClassID   uuid.UUID                 `json:"class_id" gorm:"type:uuid;not null;index:idx_enrollments_class_id"`
	StudentID uuid.UUID                 `json:"student_id" gorm:"type:uuid;not null;index:idx_enrollments_student_id"`
	Status    constant.EnrollmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'ENROLLED'"`
	CreatedAt time.Time                 `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time                 `json:"updated_at" gorm:"not null"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
