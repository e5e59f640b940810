package dto

import (
	"time"

	"github.com/google/uuid"

	"lesson-engine/constant"
)

// CreateLessonInput carries the fields a caller may set at creation. The
// requested status is ignored: lessons always start out DRAFT.
type CreateLessonInput struct {
	Title           string                `json:"title" validate:"required,max=255"`
	Description     *string               `json:"description"`
	Modality        constant.Modality     `json:"modality" validate:"required,oneof=ONLINE IN_PERSON LIVE HYBRID"`
	Status          constant.LessonStatus `json:"status"`
	Required        bool                  `json:"required"`
	ClassID         *uuid.UUID            `json:"class_id"`
	CurriculumID    *uuid.UUID            `json:"curriculum_id"`
	ModuleID        *uuid.UUID            `json:"module_id"`
	InstructorID    *uuid.UUID            `json:"instructor_id"`
	Date            *time.Time            `json:"date"`
	StartTime       *string               `json:"start_time" validate:"omitempty,len=5"`
	EndTime         *string               `json:"end_time" validate:"omitempty,len=5"`
	DurationMinutes *int                  `json:"duration_minutes" validate:"omitempty,gt=0"`
	Record          bool                  `json:"record"`
	VideoURL        *string               `json:"video_url" validate:"omitempty,url"`
	Position        int                   `json:"position"`
}

// UpdateLessonInput is a whole-resource replacement: a nil optional field
// clears the stored value, whether it was explicitly nulled or just omitted.
type UpdateLessonInput struct {
	Title           string                `json:"title" validate:"required,max=255"`
	Description     *string               `json:"description"`
	Modality        *constant.Modality    `json:"modality" validate:"omitempty,oneof=ONLINE IN_PERSON LIVE HYBRID"`
	Status          constant.LessonStatus `json:"status" validate:"required,oneof=DRAFT PUBLISHED IN_PROGRESS COMPLETED CANCELLED"`
	Required        bool                  `json:"required"`
	ClassID         *uuid.UUID            `json:"class_id"`
	ModuleID        *uuid.UUID            `json:"module_id"`
	InstructorID    *uuid.UUID            `json:"instructor_id"`
	Date            *time.Time            `json:"date"`
	StartTime       *string               `json:"start_time" validate:"omitempty,len=5"`
	EndTime         *string               `json:"end_time" validate:"omitempty,len=5"`
	DurationMinutes *int                  `json:"duration_minutes" validate:"omitempty,gt=0"`
	Record          bool                  `json:"record"`
	VideoURL        *string               `json:"video_url" validate:"omitempty,url"`
	Position        int                   `json:"position"`
}

type ProgressInput struct {
	EnrollmentID   uuid.UUID `json:"enrollment_id" validate:"required"`
	Percentage     int       `json:"percentage" validate:"gte=0,lte=100"`
	SecondsWatched int       `json:"seconds_watched" validate:"gte=0"`
	LastPosition   int       `json:"last_position" validate:"gte=0"`
}

type AttendanceInput struct {
	EnrollmentID uuid.UUID               `json:"enrollment_id" validate:"required"`
	Kind         constant.AttendanceKind `json:"kind" validate:"required,oneof=entry exit"`
}

type NotificationInput struct {
	Type       constant.NotificationType     `json:"type" validate:"required"`
	Title      string                        `json:"title" validate:"required,max=255"`
	Body       string                        `json:"body"`
	Priority   constant.NotificationPriority `json:"priority"`
	ActionLink *string                       `json:"action_link"`
	Payload    *string                       `json:"payload"`
	// DedupEventID makes delivery idempotent per (type, event, recipient).
	DedupEventID string `json:"dedup_event_id"`
}

// EventPatch carries the fields of a conferencing event an update may change.
type EventPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}
