package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LessonMaterial references an object in the materials bucket; the object is
// removed together with the row when the lesson is cancelled.
type LessonMaterial struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	LessonID   uuid.UUID `json:"lesson_id" gorm:"type:uuid;not null;index:idx_lesson_materials_lesson_id"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	ObjectName string    `json:"object_name" gorm:"type:varchar(500);not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

func (LessonMaterial) TableName() string {
	return "lesson_materials"
}

func (m *LessonMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
