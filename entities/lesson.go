package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

type Lesson struct {
	ID                  uuid.UUID             `json:"id" gorm:"type:uuid;primary_key"`
	Title               string                `json:"title" gorm:"type:varchar(255);not null"`
	Description         *string               `json:"description" gorm:"type:text"`
	Modality            constant.Modality     `json:"modality" gorm:"type:varchar(20);not null;index:idx_lessons_modality"`
	Status              constant.LessonStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_lessons_status"`
	Required            bool                  `json:"required" gorm:"not null;default:false"`
	ClassID             *uuid.UUID            `json:"class_id" gorm:"type:uuid;index:idx_lessons_class_id"`
	CurriculumID        *uuid.UUID            `json:"curriculum_id" gorm:"type:uuid"`
	ModuleID            *uuid.UUID            `json:"module_id" gorm:"type:uuid"`
	InstructorID        *uuid.UUID            `json:"instructor_id" gorm:"type:uuid;index:idx_lessons_instructor_id"`
	StartAt             *time.Time            `json:"start_at"`
	EndAt               *time.Time            `json:"end_at"`
	StartTime           *string               `json:"start_time" gorm:"type:varchar(5)"`
	EndTime             *string               `json:"end_time" gorm:"type:varchar(5)"`
	Record              bool                  `json:"record" gorm:"not null;default:false"`
	VideoURL            *string               `json:"video_url" gorm:"type:varchar(500)"`
	ConferencingURL     *string               `json:"conferencing_url" gorm:"type:varchar(500)"`
	ConferencingEventID *string               `json:"conferencing_event_id" gorm:"type:varchar(255)"`
	Position            int                   `json:"position" gorm:"not null;default:0"`
	DeletedAt           *time.Time            `json:"deleted_at"`
	DeletedBy           *uuid.UUID            `json:"deleted_by" gorm:"type:uuid"`
	CreatedAt           time.Time             `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time             `json:"updated_at" gorm:"not null"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Scheduled reports whether the lesson has a concrete start instant.
func (l *Lesson) Scheduled() bool {
	return l.StartAt != nil
}
