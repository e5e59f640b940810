package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lesson-engine/constant"
)

// LessonHistory rows are append-only; never updated or deleted.
type LessonHistory struct {
	ID        uuid.UUID              `json:"id" gorm:"type:uuid;primary_key"`
	LessonID  uuid.UUID              `json:"lesson_id" gorm:"type:uuid;not null;index:idx_lesson_history_lesson_id"`
	ActorID   uuid.UUID              `json:"actor_id" gorm:"type:uuid;not null"`
	Action    constant.HistoryAction `json:"action" gorm:"type:varchar(20);not null"`
	Changes   string                 `json:"changes" gorm:"type:text"`
	CreatedAt time.Time              `json:"created_at" gorm:"not null"`
}

func (LessonHistory) TableName() string {
	return "lesson_history"
}

func (h *LessonHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
