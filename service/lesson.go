package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
	"lesson-engine/repository"
)

// Lessons inside this window before their start cannot be cancelled.
const cancelNoticeWindow = 5 * 24 * time.Hour

const attendanceLookback = 24 * time.Hour

// Actor is the resolved identity of the caller; the transport layer resolves
// it before the engine runs.
type Actor struct {
	ID   uuid.UUID
	Role constant.Role
}

// ObjectStore is the slice of the storage client the engine needs; satisfied
// by *minio.Client.
type ObjectStore interface {
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type LessonService interface {
	Create(ctx context.Context, input dto.CreateLessonInput, actor Actor) (*entities.Lesson, error)
	Update(ctx context.Context, id uuid.UUID, input dto.UpdateLessonInput, actor Actor) (*entities.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	RecordProgress(ctx context.Context, lessonID uuid.UUID, input dto.ProgressInput, actor Actor) (*entities.LessonProgress, error)
	RecordAttendance(ctx context.Context, lessonID uuid.UUID, input dto.AttendanceInput, actor Actor) (*entities.LessonAttendance, error)
}

type lessonService struct {
	repo         repository.Repository
	conferencing ConferencingService
	notifier     NotificationService
	storage      ObjectStore
	bucket       string
	validate     *validator.Validate
	now          func() time.Time
}

func NewLessonService(repo repository.Repository, conferencing ConferencingService, notifier NotificationService, storage ObjectStore, bucket string) LessonService {
	return &lessonService{
		repo:         repo,
		conferencing: conferencing,
		notifier:     notifier,
		storage:      storage,
		bucket:       bucket,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// combineDateTime merges a calendar date with an "HH:MM" time-of-day.
func combineDateTime(date time.Time, timeOfDay string) (time.Time, error) {
	parsed, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// computeSchedule derives the absolute start/end instants from the date,
// time-of-day strings and optional duration.
func computeSchedule(date *time.Time, startTime, endTime *string, durationMinutes *int) (*time.Time, *time.Time, error) {
	if date == nil || startTime == nil {
		return nil, nil, nil
	}
	startAt, err := combineDateTime(*date, *startTime)
	if err != nil {
		return nil, nil, newValidationError("invalid schedule", "start_time")
	}
	var endAt *time.Time
	switch {
	case endTime != nil:
		end, err := combineDateTime(*date, *endTime)
		if err != nil {
			return nil, nil, newValidationError("invalid schedule", "end_time")
		}
		endAt = &end
	case durationMinutes != nil:
		end := startAt.Add(time.Duration(*durationMinutes) * time.Minute)
		endAt = &end
	}
	return &startAt, endAt, nil
}

// normalizeModality forces a class-linked lesson onto the class's
// instructional method, logging when it overrides the requested value.
func normalizeModality(ctx context.Context, requested constant.Modality, class *entities.ClassGroup) constant.Modality {
	if class == nil || requested == class.Method {
		return requested
	}
	zerolog.Ctx(ctx).Warn().
		Str("class_id", class.ID.String()).
		Str("requested", string(requested)).
		Str("method", string(class.Method)).
		Msg("modality overridden by class method")
	return class.Method
}

func (s *lessonService) Create(ctx context.Context, input dto.CreateLessonInput, actor Actor) (*entities.Lesson, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	var class *entities.ClassGroup
	if input.ClassID != nil {
		found, err := s.repo.FindClassById(ctx, *input.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFoundError("class")
			}
			return nil, err
		}
		class = found
		if input.CurriculumID != nil && class.CurriculumID != *input.CurriculumID {
			return nil, newValidationError("class does not belong to curriculum", "class_id")
		}
	} else if input.CurriculumID == nil {
		return nil, newValidationError("standalone lesson requires a curriculum", "curriculum_id")
	}

	startAt, endAt, err := computeSchedule(input.Date, input.StartTime, input.EndTime, input.DurationMinutes)
	if err != nil {
		return nil, err
	}

	modality := input.Modality
	if class != nil {
		modality = normalizeModality(ctx, modality, class)
		if startAt != nil && !class.Contains(*startAt) {
			return nil, newValidationError("schedule outside class window", "date")
		}
	}

	if modality == constant.ModalityLive && startAt != nil && !startAt.After(s.now()) {
		return nil, newValidationError("live lesson must start in the future", "start_at")
	}

	curriculumID := input.CurriculumID
	if class != nil {
		curriculumID = &class.CurriculumID
	}

	// Requested status is ignored: every lesson starts DRAFT.
	lesson := &entities.Lesson{
		Title:        input.Title,
		Description:  input.Description,
		Modality:     modality,
		Status:       constant.LessonStatusDraft,
		Required:     input.Required,
		ClassID:      input.ClassID,
		CurriculumID: curriculumID,
		ModuleID:     input.ModuleID,
		InstructorID: input.InstructorID,
		StartAt:      startAt,
		EndAt:        endAt,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Record:       input.Record,
		VideoURL:     input.VideoURL,
		Position:     input.Position,
	}

	err = s.repo.Transaction(ctx, func(tr repository.Repository) error {
		if err := tr.CreateLesson(ctx, lesson); err != nil {
			return err
		}
		return tr.CreateHistory(ctx, s.historyEntry(lesson, actor, constant.HistoryActionCreated, nil))
	})
	if err != nil {
		return nil, err
	}

	if s.conferencingEligible(lesson) {
		s.runPostCommit(ctx, lesson.ID, []postCommitAction{
			{"create conferencing event", func(ctx context.Context) error {
				return s.attachConferencing(ctx, lesson)
			}},
		})
	}

	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, id uuid.UUID, input dto.UpdateLessonInput, actor Actor) (*entities.Lesson, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	lesson, err := s.repo.FindLessonById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("lesson")
		}
		return nil, err
	}

	if !actor.Role.Staff() {
		if actor.Role != constant.RoleInstructor || lesson.InstructorID == nil || *lesson.InstructorID != actor.ID {
			return nil, newForbiddenError("not allowed to edit this lesson")
		}
	}
	if lesson.Status == constant.LessonStatusInProgress {
		return nil, newConflictError("lesson is in progress")
	}
	if lesson.Status == constant.LessonStatusCompleted && actor.Role != constant.RoleSuperAdmin {
		return nil, newForbiddenError("completed lesson can only be edited by a top-level admin")
	}

	oldStatus := lesson.Status
	if !validTransition(oldStatus, input.Status) {
		return nil, newConflictError(fmt.Sprintf("cannot move lesson from %s to %s", oldStatus, input.Status))
	}
	publishing := oldStatus != constant.LessonStatusPublished && input.Status == constant.LessonStatusPublished
	unpublishing := oldStatus == constant.LessonStatusPublished && input.Status == constant.LessonStatusDraft

	var class *entities.ClassGroup
	if input.ClassID != nil {
		found, err := s.repo.FindClassById(ctx, *input.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFoundError("class")
			}
			return nil, err
		}
		class = found
	}

	startAt, endAt, err := computeSchedule(input.Date, input.StartTime, input.EndTime, input.DurationMinutes)
	if err != nil {
		return nil, err
	}

	// Whole-resource replacement: nil optional fields clear stored values,
	// whether explicitly nulled or omitted.
	merged := *lesson
	merged.Title = input.Title
	merged.Description = input.Description
	merged.Required = input.Required
	merged.ClassID = input.ClassID
	merged.ModuleID = input.ModuleID
	merged.InstructorID = input.InstructorID
	merged.StartAt = startAt
	merged.EndAt = endAt
	merged.StartTime = input.StartTime
	merged.EndTime = input.EndTime
	merged.Record = input.Record
	merged.VideoURL = input.VideoURL
	merged.Position = input.Position
	merged.Status = input.Status
	if input.Modality != nil {
		merged.Modality = *input.Modality
	}
	if class != nil {
		merged.Modality = normalizeModality(ctx, merged.Modality, class)
		merged.CurriculumID = &class.CurriculumID
	}

	if publishing {
		if err := s.validatePublish(&merged); err != nil {
			return nil, err
		}
	}
	if unpublishing {
		if lesson.StartAt != nil && lesson.StartAt.Before(s.now()) {
			return nil, newConflictError("cannot unpublish a lesson that already started")
		}
	}

	action := constant.HistoryActionEdited
	if input.Status != oldStatus {
		action = constant.HistoryActionStatusChanged
	}
	changes := map[string]any{"status_before": oldStatus, "status_after": input.Status}

	err = s.repo.Transaction(ctx, func(tr repository.Repository) error {
		if err := tr.SaveLesson(ctx, &merged); err != nil {
			return err
		}
		return tr.CreateHistory(ctx, s.historyEntry(&merged, actor, action, changes))
	})
	if err != nil {
		return nil, err
	}

	if publishing {
		s.afterPublish(ctx, &merged, class)
	}
	if unpublishing {
		s.afterUnpublish(ctx, &merged, lesson.ConferencingEventID)
	}
	if lesson.InstructorID == nil && merged.InstructorID != nil {
		s.afterInstructorAttached(ctx, &merged)
	}
	if !publishing && !unpublishing {
		s.afterReschedule(ctx, lesson, &merged)
	}

	return &merged, nil
}

// validTransition encodes DRAFT ⇄ PUBLISHED → IN_PROGRESS → COMPLETED;
// cancellation only happens through Delete.
func validTransition(from, to constant.LessonStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case constant.LessonStatusDraft:
		return to == constant.LessonStatusPublished
	case constant.LessonStatusPublished:
		return to == constant.LessonStatusDraft || to == constant.LessonStatusInProgress
	case constant.LessonStatusInProgress:
		return to == constant.LessonStatusCompleted
	}
	return false
}

// validatePublish checks the modality-specific requirements against the
// merged record and reports the exact missing fields.
func (s *lessonService) validatePublish(lesson *entities.Lesson) error {
	var missing []string
	switch lesson.Modality {
	case constant.ModalityInPerson:
		if lesson.StartAt == nil {
			missing = append(missing, "start_at")
		}
		if lesson.ClassID == nil {
			missing = append(missing, "class_id")
		}
	case constant.ModalityLive:
		if lesson.StartAt == nil {
			missing = append(missing, "start_at")
		}
		if lesson.ClassID == nil {
			missing = append(missing, "class_id")
		}
		if lesson.StartAt != nil && !lesson.StartAt.After(s.now()) {
			return newValidationError("live lesson must start in the future", "start_at")
		}
	case constant.ModalityHybrid:
		if lesson.VideoURL == nil {
			if lesson.StartAt == nil {
				missing = append(missing, "start_at")
			}
			if lesson.ClassID == nil {
				missing = append(missing, "class_id")
			}
			if lesson.StartAt != nil && !lesson.StartAt.After(s.now()) {
				return newValidationError("hybrid lesson must start in the future", "start_at")
			}
		}
	case constant.ModalityOnline:
		if lesson.VideoURL == nil {
			missing = append(missing, "video_url")
		}
	}
	if len(missing) > 0 {
		return newValidationError("cannot publish lesson", missing...)
	}
	return nil
}

// afterPublish runs the independent best-effort side effects of a publish.
func (s *lessonService) afterPublish(ctx context.Context, lesson *entities.Lesson, class *entities.ClassGroup) {
	if lesson.ClassID == nil || lesson.StartAt == nil || lesson.StartTime == nil {
		return
	}

	actions := []postCommitAction{
		{"create conferencing event", func(ctx context.Context) error {
			if !s.conferencingEligible(lesson) {
				// Conferencing waits until an instructor is attached.
				return nil
			}
			return s.attachConferencing(ctx, lesson)
		}},
		{"create calendar entry", func(ctx context.Context) error {
			endsAt := *lesson.StartAt
			if lesson.EndAt != nil {
				endsAt = *lesson.EndAt
			}
			return s.repo.CreateCalendarEntry(ctx, &entities.CalendarEntry{
				LessonID: lesson.ID,
				ClassID:  lesson.ClassID,
				Title:    lesson.Title,
				StartsAt: *lesson.StartAt,
				EndsAt:   endsAt,
			})
		}},
		{"notify enrollments", func(ctx context.Context) error {
			className := ""
			if class != nil {
				className = class.Name
			}
			_, err := s.notifier.NotifyEnrollments(ctx, *lesson.ClassID, dto.NotificationInput{
				Type:         constant.NotificationNovaAula,
				Title:        "Nova aula disponível",
				Body:         fmt.Sprintf("A aula %q foi publicada na turma %s.", lesson.Title, className),
				Priority:     constant.PriorityNormal,
				DedupEventID: lesson.ID.String(),
			})
			return err
		}},
	}
	s.runPostCommit(ctx, lesson.ID, actions)
}

// afterUnpublish reverses the publish side effects, best-effort.
func (s *lessonService) afterUnpublish(ctx context.Context, lesson *entities.Lesson, eventID *string) {
	actions := []postCommitAction{
		{"delete conferencing event", func(ctx context.Context) error {
			if eventID == nil || lesson.InstructorID == nil {
				return nil
			}
			if err := s.conferencing.DeleteEvent(ctx, *eventID, *lesson.InstructorID); err != nil {
				return err
			}
			lesson.ConferencingEventID = nil
			lesson.ConferencingURL = nil
			return s.repo.SaveLesson(ctx, lesson)
		}},
		{"delete calendar entries", func(ctx context.Context) error {
			return s.repo.DeleteCalendarEntriesByLesson(ctx, lesson.ID)
		}},
		{"notify enrollments", func(ctx context.Context) error {
			if lesson.ClassID == nil {
				return nil
			}
			_, err := s.notifier.NotifyEnrollments(ctx, *lesson.ClassID, dto.NotificationInput{
				Type:         constant.NotificationAulaDespublicada,
				Title:        "Aula indisponível",
				Body:         fmt.Sprintf("A aula %q não está mais disponível.", lesson.Title),
				Priority:     constant.PriorityNormal,
				DedupEventID: fmt.Sprintf("unpublish:%s", lesson.ID),
			})
			return err
		}},
	}
	s.runPostCommit(ctx, lesson.ID, actions)
}

// afterInstructorAttached runs when an update sets an instructor on a lesson
// that had none: the instructor is notified, and a published lesson whose
// conferencing was deferred for lack of an organizer gets its event now.
func (s *lessonService) afterInstructorAttached(ctx context.Context, lesson *entities.Lesson) {
	actions := []postCommitAction{
		{"notify assigned instructor", func(ctx context.Context) error {
			_, err := s.notifier.Notify(ctx, *lesson.InstructorID, dto.NotificationInput{
				Type:         constant.NotificationInstrutorAtribuido,
				Title:        "Você foi atribuído a uma aula",
				Body:         fmt.Sprintf("Você é o instrutor da aula %q.", lesson.Title),
				Priority:     constant.PriorityHigh,
				DedupEventID: fmt.Sprintf("assign:%s:%s", lesson.ID, *lesson.InstructorID),
			})
			return err
		}},
		{"create conferencing event", func(ctx context.Context) error {
			if lesson.Status != constant.LessonStatusPublished || !s.conferencingEligible(lesson) {
				return nil
			}
			return s.attachConferencing(ctx, lesson)
		}},
	}
	s.runPostCommit(ctx, lesson.ID, actions)
}

func timeChanged(a, b *time.Time) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	return !a.Equal(*b)
}

// afterReschedule keeps the conferencing event and the internal calendar entry
// in sync when an edit moves or retitles a lesson that already has them. The
// event id from before the edit is used so a freshly attached event is not
// patched with the values it was just created from.
func (s *lessonService) afterReschedule(ctx context.Context, before, after *entities.Lesson) {
	scheduleChanged := timeChanged(before.StartAt, after.StartAt) || timeChanged(before.EndAt, after.EndAt)
	titleChanged := before.Title != after.Title
	if !scheduleChanged && !titleChanged {
		return
	}

	var actions []postCommitAction
	if before.ConferencingEventID != nil && after.InstructorID != nil {
		actions = append(actions, postCommitAction{"update conferencing event", func(ctx context.Context) error {
			patch := dto.EventPatch{Title: &after.Title, Description: after.Description}
			if scheduleChanged {
				patch.StartAt = after.StartAt
				patch.EndAt = after.EndAt
			}
			return s.conferencing.UpdateEvent(ctx, *before.ConferencingEventID, *after.InstructorID, patch)
		}})
	}
	if after.Status == constant.LessonStatusPublished {
		actions = append(actions, postCommitAction{"refresh calendar entry", func(ctx context.Context) error {
			if err := s.repo.DeleteCalendarEntriesByLesson(ctx, after.ID); err != nil {
				return err
			}
			if after.StartAt == nil {
				return nil
			}
			endsAt := *after.StartAt
			if after.EndAt != nil {
				endsAt = *after.EndAt
			}
			return s.repo.CreateCalendarEntry(ctx, &entities.CalendarEntry{
				LessonID: after.ID,
				ClassID:  after.ClassID,
				Title:    after.Title,
				StartsAt: *after.StartAt,
				EndsAt:   endsAt,
			})
		}})
	}
	s.runPostCommit(ctx, after.ID, actions)
}

func (s *lessonService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	if !actor.Role.Staff() {
		return newForbiddenError("only staff can cancel lessons")
	}

	lesson, err := s.repo.FindLessonById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("lesson")
		}
		return err
	}

	now := s.now()
	if lesson.StartAt != nil {
		if lesson.StartAt.Before(now) {
			return newConflictError("lesson already occurred")
		}
		if lesson.StartAt.Before(now.Add(cancelNoticeWindow)) {
			return newConflictError("lesson starts within the minimum notice window")
		}
	}
	if lesson.Status == constant.LessonStatusInProgress {
		return newConflictError("lesson is in progress")
	}

	if lesson.Required {
		completed, err := s.repo.CountCompletedProgress(ctx, lesson.ID)
		if err != nil {
			return err
		}
		if completed > 0 && !actor.Role.Senior() {
			return newForbiddenError("required lesson with completed progress needs a senior role")
		}
	}

	oldStatus := lesson.Status
	eventID := lesson.ConferencingEventID
	organizerID := lesson.InstructorID

	err = s.repo.Transaction(ctx, func(tr repository.Repository) error {
		changes := map[string]any{"status_before": oldStatus, "status_after": constant.LessonStatusCancelled}
		if err := tr.CreateHistory(ctx, s.historyEntry(lesson, actor, constant.HistoryActionCancelled, changes)); err != nil {
			return err
		}
		lesson.Status = constant.LessonStatusCancelled
		lesson.DeletedAt = &now
		lesson.DeletedBy = &actor.ID
		lesson.ConferencingEventID = nil
		lesson.ConferencingURL = nil
		lesson.VideoURL = nil
		return tr.SaveLesson(ctx, lesson)
	})
	if err != nil {
		return err
	}

	actions := []postCommitAction{
		{"delete materials", func(ctx context.Context) error {
			materials, err := s.repo.FindMaterialsByLesson(ctx, lesson.ID)
			if err != nil {
				return err
			}
			for _, material := range materials {
				if s.storage == nil {
					break
				}
				if err := s.storage.RemoveObject(ctx, s.bucket, material.ObjectName, minio.RemoveObjectOptions{}); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Str("object", material.ObjectName).Msg("failed to remove material object")
				}
			}
			return s.repo.DeleteMaterialsByLesson(ctx, lesson.ID)
		}},
		{"delete calendar entries", func(ctx context.Context) error {
			return s.repo.DeleteCalendarEntriesByLesson(ctx, lesson.ID)
		}},
		{"delete conferencing event", func(ctx context.Context) error {
			if eventID == nil || organizerID == nil {
				return nil
			}
			return s.conferencing.DeleteEvent(ctx, *eventID, *organizerID)
		}},
	}

	if lesson.ClassID != nil {
		actions = append(actions, postCommitAction{"notify enrollments", func(ctx context.Context) error {
			class, err := s.repo.FindClassById(ctx, *lesson.ClassID)
			if err != nil {
				return err
			}
			if class.Status != constant.ClassStatusInProgress {
				return nil
			}
			priority := constant.PriorityHigh
			if lesson.Required {
				priority = constant.PriorityUrgent
			}
			_, err = s.notifier.NotifyEnrollments(ctx, class.ID, dto.NotificationInput{
				Type:         constant.NotificationAulaCancelada,
				Title:        "Aula cancelada",
				Body:         fmt.Sprintf("A aula %q foi cancelada.", lesson.Title),
				Priority:     priority,
				DedupEventID: fmt.Sprintf("cancel:%s", lesson.ID),
			})
			return err
		}})
	}
	s.runPostCommit(ctx, lesson.ID, actions)

	return nil
}

func (s *lessonService) RecordProgress(ctx context.Context, lessonID uuid.UUID, input dto.ProgressInput, actor Actor) (*entities.LessonProgress, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if _, err := s.repo.FindLessonById(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("lesson")
		}
		return nil, err
	}
	if _, err := s.repo.FindEnrollmentById(ctx, input.EnrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("enrollment")
		}
		return nil, err
	}

	progress, err := s.repo.FindProgress(ctx, lessonID, input.EnrollmentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		progress = &entities.LessonProgress{
			LessonID:     lessonID,
			EnrollmentID: input.EnrollmentID,
		}
	}

	progress.Percentage = input.Percentage
	progress.SecondsWatched = input.SecondsWatched
	progress.LastPosition = input.LastPosition
	// Watching 90% counts as done; clamp to a full watch.
	if progress.Percentage >= 90 {
		progress.Percentage = 100
		if !progress.Completed {
			now := s.now()
			progress.Completed = true
			progress.CompletedAt = &now
		}
	}

	if err := s.repo.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *lessonService) RecordAttendance(ctx context.Context, lessonID uuid.UUID, input dto.AttendanceInput, actor Actor) (*entities.LessonAttendance, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	lesson, err := s.repo.FindLessonById(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("lesson")
		}
		return nil, err
	}
	if !lesson.Modality.RequiresConferencing() {
		return nil, newValidationError("attendance only applies to live or hybrid lessons", "modality")
	}
	if _, err := s.repo.FindEnrollmentById(ctx, input.EnrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("enrollment")
		}
		return nil, err
	}

	now := s.now()
	if input.Kind == constant.AttendanceEntry {
		attendance := &entities.LessonAttendance{
			LessonID:     lessonID,
			EnrollmentID: input.EnrollmentID,
			EnteredAt:    now,
		}
		if err := s.repo.CreateAttendance(ctx, attendance); err != nil {
			return nil, err
		}
		return attendance, nil
	}

	attendance, err := s.repo.FindLatestOpenAttendance(ctx, lessonID, input.EnrollmentID, now.Add(-attendanceLookback))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// An exit with no matching entry is silently ignored.
			return nil, nil
		}
		return nil, err
	}
	attendance.ExitedAt = &now
	if err := s.repo.SaveAttendance(ctx, attendance); err != nil {
		return nil, err
	}
	return attendance, nil
}

// conferencingEligible reports whether the lesson has everything an event
// needs: a conferencing modality, a class, a schedule and an organizer.
func (s *lessonService) conferencingEligible(lesson *entities.Lesson) bool {
	return lesson.Modality.RequiresConferencing() &&
		lesson.ClassID != nil &&
		lesson.StartAt != nil &&
		lesson.EndAt != nil &&
		lesson.InstructorID != nil &&
		lesson.ConferencingEventID == nil
}

// attachConferencing creates the event and persists the link fields; the
// conferencing fields stay null unless creation succeeded.
func (s *lessonService) attachConferencing(ctx context.Context, lesson *entities.Lesson) error {
	description := ""
	if lesson.Description != nil {
		description = *lesson.Description
	}
	attendees, err := s.repo.FindEnrolledStudentEmails(ctx, *lesson.ClassID)
	if err != nil {
		return err
	}
	event, err := s.conferencing.CreateEvent(ctx, EventInput{
		Title:          lesson.Title,
		Description:    description,
		StartAt:        *lesson.StartAt,
		EndAt:          *lesson.EndAt,
		OrganizerID:    *lesson.InstructorID,
		AttendeeEmails: attendees,
	})
	if err != nil {
		return err
	}
	lesson.ConferencingEventID = &event.EventID
	lesson.ConferencingURL = &event.JoinURL
	return s.repo.SaveLesson(ctx, lesson)
}

func (s *lessonService) historyEntry(lesson *entities.Lesson, actor Actor, action constant.HistoryAction, changes map[string]any) *entities.LessonHistory {
	if changes == nil {
		changes = map[string]any{"title": lesson.Title, "modality": lesson.Modality, "status": lesson.Status}
	}
	snapshot, _ := json.Marshal(changes)
	return &entities.LessonHistory{
		LessonID: lesson.ID,
		ActorID:  actor.ID,
		Action:   action,
		Changes:  string(snapshot),
	}
}

type postCommitAction struct {
	name string
	fn   func(ctx context.Context) error
}

// runPostCommit executes each side effect in its own error boundary; the
// primary operation already committed and never rolls back here.
func (s *lessonService) runPostCommit(ctx context.Context, lessonID uuid.UUID, actions []postCommitAction) {
	for _, action := range actions {
		if err := action.fn(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("lesson_id", lessonID.String()).
				Str("action", action.name).
				Msg("post-commit side effect failed")
		}
	}
}
