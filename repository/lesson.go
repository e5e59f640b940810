package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lesson-engine/constant"
	"lesson-engine/entities"
)

func (r *repo) FindLessonById(ctx context.Context, id uuid.UUID) (*entities.Lesson, error) {
	lesson := &entities.Lesson{}
	err := r.db.WithContext(ctx).First(lesson, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

func (r *repo) CreateLesson(ctx context.Context, lesson *entities.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *repo) SaveLesson(ctx context.Context, lesson *entities.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

// FindLessonsStartingBetween returns published live/hybrid lessons whose
// start instant falls inside [from, to]; the reminder scanner window.
func (r *repo) FindLessonsStartingBetween(ctx context.Context, from, to time.Time) ([]*entities.Lesson, error) {
	var lessons []*entities.Lesson
	err := r.db.WithContext(ctx).
		Where("status = ?", constant.LessonStatusPublished).
		Where("modality IN ?", []constant.Modality{constant.ModalityLive, constant.ModalityHybrid}).
		Where("start_at >= ? AND start_at <= ?", from, to).
		Where("deleted_at IS NULL").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

// FindLessonsNeedingConferencing returns this organizer's future published
// conferencing-eligible lessons that have no event yet; the backfill input.
func (r *repo) FindLessonsNeedingConferencing(ctx context.Context, organizerID uuid.UUID, after time.Time) ([]*entities.Lesson, error) {
	var lessons []*entities.Lesson
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", organizerID).
		Where("status = ?", constant.LessonStatusPublished).
		Where("modality IN ?", []constant.Modality{constant.ModalityLive, constant.ModalityHybrid}).
		Where("start_at > ?", after).
		Where("conferencing_event_id IS NULL").
		Where("class_id IS NOT NULL").
		Where("deleted_at IS NULL").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *repo) FindLessonsInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.Lesson, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", constant.LessonStatusPublished).
		Where("modality IN ?", []constant.Modality{constant.ModalityLive, constant.ModalityHybrid}).
		Where("start_at >= ? AND start_at <= ?", from, to).
		Where("deleted_at IS NULL")
	if filter.InstructorID != nil {
		q = q.Where("instructor_id = ?", *filter.InstructorID)
	}
	if filter.StudentID != nil {
		q = q.Where("class_id IN (?)", r.db.Model(&entities.Enrollment{}).
			Select("class_id").
			Where("student_id = ? AND status = ?", *filter.StudentID, constant.EnrollmentStatusEnrolled))
	}
	var lessons []*entities.Lesson
	if err := q.Order("start_at ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *repo) FindClassById(ctx context.Context, id uuid.UUID) (*entities.ClassGroup, error) {
	class := &entities.ClassGroup{}
	err := r.db.WithContext(ctx).First(class, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return class, nil
}

// FindClassesInRange returns classes whose start or end date falls inside
// [from, to]; the agenda milestone source.
func (r *repo) FindClassesInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.ClassGroup, error) {
	q := r.db.WithContext(ctx).
		Where("(start_date >= ? AND start_date <= ?) OR (end_date >= ? AND end_date <= ?)", from, to, from, to)
	if filter.InstructorID != nil {
		q = q.Where("instructor_id = ?", *filter.InstructorID)
	}
	if filter.StudentID != nil {
		q = q.Where("id IN (?)", r.db.Model(&entities.Enrollment{}).
			Select("class_id").
			Where("student_id = ? AND status = ?", *filter.StudentID, constant.EnrollmentStatusEnrolled))
	}
	var classes []*entities.ClassGroup
	if err := q.Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *repo) FindCurriculumById(ctx context.Context, id uuid.UUID) (*entities.Curriculum, error) {
	curriculum := &entities.Curriculum{}
	err := r.db.WithContext(ctx).First(curriculum, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return curriculum, nil
}

func (r *repo) FindEnrollmentById(ctx context.Context, id uuid.UUID) (*entities.Enrollment, error) {
	enrollment := &entities.Enrollment{}
	err := r.db.WithContext(ctx).First(enrollment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (r *repo) FindActiveEnrollmentsByClass(ctx context.Context, classID uuid.UUID) ([]*entities.Enrollment, error) {
	var enrollments []*entities.Enrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND status = ?", classID, constant.EnrollmentStatusEnrolled).
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *repo) FindProgress(ctx context.Context, lessonID, enrollmentID uuid.UUID) (*entities.LessonProgress, error) {
	progress := &entities.LessonProgress{}
	err := r.db.WithContext(ctx).
		First(progress, "lesson_id = ? AND enrollment_id = ?", lessonID, enrollmentID).Error
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *repo) SaveProgress(ctx context.Context, progress *entities.LessonProgress) error {
	return r.db.WithContext(ctx).Save(progress).Error
}

func (r *repo) CountCompletedProgress(ctx context.Context, lessonID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.LessonProgress{}).
		Where("lesson_id = ? AND completed = ?", lessonID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) CreateAttendance(ctx context.Context, attendance *entities.LessonAttendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

func (r *repo) FindLatestOpenAttendance(ctx context.Context, lessonID, enrollmentID uuid.UUID, since time.Time) (*entities.LessonAttendance, error) {
	attendance := &entities.LessonAttendance{}
	err := r.db.WithContext(ctx).
		Where("lesson_id = ? AND enrollment_id = ?", lessonID, enrollmentID).
		Where("entered_at >= ? AND exited_at IS NULL", since).
		Order("entered_at DESC").
		First(attendance).Error
	if err != nil {
		return nil, err
	}
	return attendance, nil
}

func (r *repo) SaveAttendance(ctx context.Context, attendance *entities.LessonAttendance) error {
	return r.db.WithContext(ctx).Save(attendance).Error
}

func (r *repo) CreateHistory(ctx context.Context, history *entities.LessonHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *repo) FindMaterialsByLesson(ctx context.Context, lessonID uuid.UUID) ([]*entities.LessonMaterial, error) {
	var materials []*entities.LessonMaterial
	err := r.db.WithContext(ctx).Where("lesson_id = ?", lessonID).Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *repo) DeleteMaterialsByLesson(ctx context.Context, lessonID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Delete(&entities.LessonMaterial{}).Error
}
