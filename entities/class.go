package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

type ClassGroup struct {
	ID           uuid.UUID            `json:"id" gorm:"type:uuid;primary_key"`
	Name         string               `json:"name" gorm:"type:varchar(255);not null"`
	Method       constant.Modality    `json:"method" gorm:"type:varchar(20);not null"`
	Status       constant.ClassStatus `json:"status" gorm:"type:varchar(20);not null;default:'PLANNED'"`
	CurriculumID uuid.UUID            `json:"curriculum_id" gorm:"type:uuid;not null;index:idx_classes_curriculum_id"`
	InstructorID *uuid.UUID           `json:"instructor_id" gorm:"type:uuid"`
	StartDate    time.Time            `json:"start_date" gorm:"not null"`
	EndDate      time.Time            `json:"end_date" gorm:"not null"`
	CreatedAt    time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time            `json:"updated_at" gorm:"not null"`
}

func (ClassGroup) TableName() string {
	return "classes"
}

func (c *ClassGroup) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Contains reports whether t falls inside the class scheduling window.
func (c *ClassGroup) Contains(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}

type Curriculum struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Curriculum) TableName() string {
	return "curricula"
}

func (c *Curriculum) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
