package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lesson-engine/constant"
	"lesson-engine/entities"
)

func (r *repo) HasSentMarker(ctx context.Context, notificationType constant.NotificationType, eventID string, recipientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.NotificationSent{}).
		Where("type = ? AND event_id = ? AND recipient_id = ?", notificationType, eventID, recipientID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CreateNotification(ctx context.Context, notification *entities.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repo) CreateSentMarker(ctx context.Context, marker *entities.NotificationSent) error {
	return r.db.WithContext(ctx).Create(marker).Error
}

func (r *repo) ListNotificationsByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entities.Notification, error) {
	var notifications []*entities.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) MarkNotificationRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true).Error
}

func (r *repo) FindCredentialByOrganizer(ctx context.Context, organizerID uuid.UUID) (*entities.ConferencingCredential, error) {
	credential := &entities.ConferencingCredential{}
	err := r.db.WithContext(ctx).First(credential, "organizer_id = ?", organizerID).Error
	if err != nil {
		return nil, err
	}
	return credential, nil
}

func (r *repo) CreateCredential(ctx context.Context, credential *entities.ConferencingCredential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

func (r *repo) SaveCredential(ctx context.Context, credential *entities.ConferencingCredential) error {
	return r.db.WithContext(ctx).Save(credential).Error
}

func (r *repo) DeleteCredentialByOrganizer(ctx context.Context, organizerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Delete(&entities.ConferencingCredential{}).Error
}

func (r *repo) CreateCalendarEntry(ctx context.Context, entry *entities.CalendarEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repo) DeleteCalendarEntriesByLesson(ctx context.Context, lessonID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Delete(&entities.CalendarEntry{}).Error
}

func (r *repo) FindActiveExamsBetween(ctx context.Context, from, to time.Time) ([]*entities.Exam, error) {
	var exams []*entities.Exam
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("scheduled_at >= ? AND scheduled_at <= ?", from, to).
		Find(&exams).Error
	if err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *repo) FindExamsInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.Exam, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("scheduled_at >= ? AND scheduled_at <= ?", from, to)
	if filter.InstructorID != nil {
		q = q.Where("class_id IN (?)", r.db.Model(&entities.ClassGroup{}).
			Select("id").
			Where("instructor_id = ?", *filter.InstructorID))
	}
	if filter.StudentID != nil {
		q = q.Where("class_id IN (?)", r.db.Model(&entities.Enrollment{}).
			Select("class_id").
			Where("student_id = ? AND status = ?", *filter.StudentID, constant.EnrollmentStatusEnrolled))
	}
	var exams []*entities.Exam
	if err := q.Order("scheduled_at ASC").Find(&exams).Error; err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *repo) FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user := &entities.User{}
	err := r.db.WithContext(ctx).First(user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindEnrolledStudentEmails returns the emails of the class's actively
// enrolled students, for conferencing event attendee lists.
func (r *repo) FindEnrolledStudentEmails(ctx context.Context, classID uuid.UUID) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id IN (?)", r.db.Model(&entities.Enrollment{}).
			Select("student_id").
			Where("class_id = ? AND status = ?", classID, constant.EnrollmentStatusEnrolled)).
		Order("email ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *repo) FindUsersWithBirthdayByRoles(ctx context.Context, roles []constant.Role) ([]*entities.User, error) {
	var users []*entities.User
	err := r.db.WithContext(ctx).
		Where("role IN ?", roles).
		Where("birth_date IS NOT NULL").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
