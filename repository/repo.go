package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lesson-engine/constant"
	"lesson-engine/entities"
)

// LessonRangeFilter scopes range queries by viewer: zero-value means no
// scoping (staff), InstructorID limits to authored records, StudentID limits
// to classes the student is enrolled in.
type LessonRangeFilter struct {
	InstructorID *uuid.UUID
	StudentID    *uuid.UUID
}

type Repository interface {
	Transaction(ctx context.Context, callback func(r Repository) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB

	FindLessonById(ctx context.Context, id uuid.UUID) (*entities.Lesson, error)
	CreateLesson(ctx context.Context, lesson *entities.Lesson) error
	SaveLesson(ctx context.Context, lesson *entities.Lesson) error
	FindLessonsStartingBetween(ctx context.Context, from, to time.Time) ([]*entities.Lesson, error)
	FindLessonsNeedingConferencing(ctx context.Context, organizerID uuid.UUID, after time.Time) ([]*entities.Lesson, error)
	FindLessonsInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.Lesson, error)

	FindClassById(ctx context.Context, id uuid.UUID) (*entities.ClassGroup, error)
	FindClassesInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.ClassGroup, error)
	FindCurriculumById(ctx context.Context, id uuid.UUID) (*entities.Curriculum, error)

	FindEnrollmentById(ctx context.Context, id uuid.UUID) (*entities.Enrollment, error)
	FindActiveEnrollmentsByClass(ctx context.Context, classID uuid.UUID) ([]*entities.Enrollment, error)

	FindProgress(ctx context.Context, lessonID, enrollmentID uuid.UUID) (*entities.LessonProgress, error)
	SaveProgress(ctx context.Context, progress *entities.LessonProgress) error
	CountCompletedProgress(ctx context.Context, lessonID uuid.UUID) (int64, error)

	CreateAttendance(ctx context.Context, attendance *entities.LessonAttendance) error
	FindLatestOpenAttendance(ctx context.Context, lessonID, enrollmentID uuid.UUID, since time.Time) (*entities.LessonAttendance, error)
	SaveAttendance(ctx context.Context, attendance *entities.LessonAttendance) error

	CreateHistory(ctx context.Context, history *entities.LessonHistory) error

	HasSentMarker(ctx context.Context, notificationType constant.NotificationType, eventID string, recipientID uuid.UUID) (bool, error)
	CreateNotification(ctx context.Context, notification *entities.Notification) error
	CreateSentMarker(ctx context.Context, marker *entities.NotificationSent) error
	ListNotificationsByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entities.Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID uuid.UUID) error

	FindCredentialByOrganizer(ctx context.Context, organizerID uuid.UUID) (*entities.ConferencingCredential, error)
	CreateCredential(ctx context.Context, credential *entities.ConferencingCredential) error
	SaveCredential(ctx context.Context, credential *entities.ConferencingCredential) error
	DeleteCredentialByOrganizer(ctx context.Context, organizerID uuid.UUID) error

	CreateCalendarEntry(ctx context.Context, entry *entities.CalendarEntry) error
	DeleteCalendarEntriesByLesson(ctx context.Context, lessonID uuid.UUID) error

	FindActiveExamsBetween(ctx context.Context, from, to time.Time) ([]*entities.Exam, error)
	FindExamsInRange(ctx context.Context, from, to time.Time, filter LessonRangeFilter) ([]*entities.Exam, error)

	FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindUsersWithBirthdayByRoles(ctx context.Context, roles []constant.Role) ([]*entities.User, error)
	FindEnrolledStudentEmails(ctx context.Context, classID uuid.UUID) ([]string, error)

	FindMaterialsByLesson(ctx context.Context, lessonID uuid.UUID) ([]*entities.LessonMaterial, error)
	DeleteMaterialsByLesson(ctx context.Context, lessonID uuid.UUID) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

// NewRepoWithGorm wraps an already-opened gorm connection; tests use it with
// the sqlite driver.
func NewRepoWithGorm(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

// Transaction hands the callback a repository bound to the transaction so
// multi-row writes commit or roll back together.
func (r *repo) Transaction(ctx context.Context, callback func(tr Repository) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(&repo{db: tx})
	}, opts...)
}
