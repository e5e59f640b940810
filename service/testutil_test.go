package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lesson-engine/config"
	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
	"lesson-engine/repository"
)

func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.Lesson{},
		&entities.ClassGroup{},
		&entities.Curriculum{},
		&entities.Enrollment{},
		&entities.LessonProgress{},
		&entities.LessonAttendance{},
		&entities.LessonHistory{},
		&entities.Notification{},
		&entities.NotificationSent{},
		&entities.ConferencingCredential{},
		&entities.CalendarEntry{},
		&entities.Exam{},
		&entities.LessonMaterial{},
		&entities.User{},
	))
	return repository.NewRepoWithGorm(db)
}

func testEmailConfig() *config.Email {
	return &config.Email{
		FromName:  "Plataforma",
		FromEmail: "noreply@example.com",
		WorthyTypes: []string{
			"PROVA_EM_2_HORAS",
			"AULA_CANCELADA",
			"INSTRUTOR_ATRIBUIDO",
			"TURMA_INICIADA",
			"TURMA_ENCERRADA",
		},
	}
}

// fakeConferencing records calls instead of reaching an external calendar.
type fakeConferencing struct {
	created []EventInput
	updated map[string]dto.EventPatch
	deleted []string
	err     error
}

func (f *fakeConferencing) CreateEvent(ctx context.Context, input EventInput) (*ConferencingEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	id := fmt.Sprintf("evt-%d", len(f.created))
	return &ConferencingEvent{EventID: id, JoinURL: "https://meet.example.com/" + id}, nil
}

func (f *fakeConferencing) UpdateEvent(ctx context.Context, eventID string, organizerID uuid.UUID, patch dto.EventPatch) error {
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = map[string]dto.EventPatch{}
	}
	f.updated[eventID] = patch
	return nil
}

func (f *fakeConferencing) DeleteEvent(ctx context.Context, eventID string, organizerID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeConferencing) BackfillLessons(ctx context.Context, organizerID uuid.UUID) (int, error) {
	return 0, f.err
}

func (f *fakeConferencing) Connect(ctx context.Context, organizerID uuid.UUID, accessToken, refreshToken, calendarID string, expiresAt time.Time) error {
	return f.err
}

func (f *fakeConferencing) Disconnect(ctx context.Context, organizerID uuid.UUID) error {
	return f.err
}

type testEnv struct {
	repo         repository.Repository
	conferencing *fakeConferencing
	notifier     NotificationService
	lessons      *lessonService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newTestRepo(t)
	conferencing := &fakeConferencing{}
	notifier := NewNotificationService(repo, nil, testEmailConfig())
	lessons := NewLessonService(repo, conferencing, notifier, nil, "materials").(*lessonService)
	return &testEnv{
		repo:         repo,
		conferencing: conferencing,
		notifier:     notifier,
		lessons:      lessons,
	}
}

func seedCurriculum(t *testing.T, repo repository.Repository) *entities.Curriculum {
	t.Helper()
	curriculum := &entities.Curriculum{Name: "Engenharia de Software"}
	require.NoError(t, repo.GetDB().Create(curriculum).Error)
	return curriculum
}

func seedClass(t *testing.T, repo repository.Repository, curriculumID uuid.UUID, method constant.Modality, status constant.ClassStatus) *entities.ClassGroup {
	t.Helper()
	now := time.Now()
	class := &entities.ClassGroup{
		Name:         "Turma 2026.1",
		Method:       method,
		Status:       status,
		CurriculumID: curriculumID,
		StartDate:    now.Add(-30 * 24 * time.Hour),
		EndDate:      now.Add(90 * 24 * time.Hour),
	}
	require.NoError(t, repo.GetDB().Create(class).Error)
	return class
}

func seedUser(t *testing.T, repo repository.Repository, role constant.Role) *entities.User {
	t.Helper()
	user := &entities.User{
		Name:  "Fulano " + uuid.NewString()[:8],
		Email: uuid.NewString()[:8] + "@example.com",
		Role:  role,
	}
	require.NoError(t, repo.GetDB().Create(user).Error)
	return user
}

func seedEnrollment(t *testing.T, repo repository.Repository, classID uuid.UUID) *entities.Enrollment {
	t.Helper()
	student := seedUser(t, repo, constant.RoleStudent)
	enrollment := &entities.Enrollment{
		ClassID:   classID,
		StudentID: student.ID,
		Status:    constant.EnrollmentStatusEnrolled,
	}
	require.NoError(t, repo.GetDB().Create(enrollment).Error)
	return enrollment
}

func testCtx() context.Context {
	return context.Background()
}

func ptr[T any](v T) *T {
	return &v
}
