package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
)

func TestNotifyDedup(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())
	recipient := uuid.New()

	input := dto.NotificationInput{
		Type:         constant.NotificationLembreteAula,
		Title:        "Aula em breve",
		Body:         "A aula começa em 2 horas.",
		DedupEventID: "lesson-123",
	}

	first, err := notifier.Notify(testCtx(), recipient, input)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := notifier.Notify(testCtx(), recipient, input)
	require.NoError(t, err)
	assert.Nil(t, second)

	var count int64
	require.NoError(t, repo.GetDB().Model(&entities.Notification{}).Where("recipient_id = ?", recipient).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNotifyDifferentRecipientsNotDeduped(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())

	input := dto.NotificationInput{
		Type:         constant.NotificationLembreteAula,
		Title:        "Aula em breve",
		DedupEventID: "lesson-123",
	}

	for i := 0; i < 2; i++ {
		created, err := notifier.Notify(testCtx(), uuid.New(), input)
		require.NoError(t, err)
		require.NotNil(t, created)
	}
}

func TestNotifyWithoutDedupAlwaysCreates(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())
	recipient := uuid.New()

	input := dto.NotificationInput{
		Type:  constant.NotificationNovaAula,
		Title: "Nova aula",
	}
	for i := 0; i < 2; i++ {
		created, err := notifier.Notify(testCtx(), recipient, input)
		require.NoError(t, err)
		require.NotNil(t, created)
	}

	var count int64
	require.NoError(t, repo.GetDB().Model(&entities.Notification{}).Where("recipient_id = ?", recipient).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestNotifyEnrollmentsFansOut(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())
	curriculum := seedCurriculum(t, repo)
	class := seedClass(t, repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)

	enrolled := []*entities.Enrollment{
		seedEnrollment(t, repo, class.ID),
		seedEnrollment(t, repo, class.ID),
		seedEnrollment(t, repo, class.ID),
	}
	// Suspended enrollments are not notified.
	suspended := seedEnrollment(t, repo, class.ID)
	require.NoError(t, repo.GetDB().Model(suspended).Update("status", constant.EnrollmentStatusSuspended).Error)

	count, err := notifier.NotifyEnrollments(testCtx(), class.ID, dto.NotificationInput{
		Type:  constant.NotificationNovaAula,
		Title: "Nova aula",
	})
	require.NoError(t, err)
	assert.Equal(t, len(enrolled), count)

	notifications, err := notifier.ListForRecipient(testCtx(), suspended.StudentID)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestIsEmailWorthyIsConfigDriven(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())

	assert.True(t, notifier.IsEmailWorthy(constant.NotificationProvaEm2Horas))
	assert.True(t, notifier.IsEmailWorthy(constant.NotificationAulaCancelada))
	assert.False(t, notifier.IsEmailWorthy(constant.NotificationLembreteAula))
	assert.False(t, notifier.IsEmailWorthy(constant.NotificationNovaAula))
}

func TestSendCriticalEmailDelegates(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig()).(*notificationService)

	var gotTo, gotSubject, gotBody string
	notifier.sendFn = func(ctx context.Context, to, toName, subject, htmlBody string) error {
		gotTo, gotSubject, gotBody = to, subject, htmlBody
		return nil
	}

	err := notifier.SendCriticalEmail(testCtx(), "aluno@example.com", "Aluno", "Prova em 2 horas", "Prepare-se.", ptr("https://app.example.com/provas"))
	require.NoError(t, err)
	assert.Equal(t, "aluno@example.com", gotTo)
	assert.Equal(t, "Prova em 2 horas", gotSubject)
	assert.Contains(t, gotBody, "Prepare-se.")
	assert.Contains(t, gotBody, "https://app.example.com/provas")
}

func TestSendCriticalEmailPropagatesFailure(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig()).(*notificationService)
	notifier.sendFn = func(ctx context.Context, to, toName, subject, htmlBody string) error {
		return errors.New("provider down")
	}

	err := notifier.SendCriticalEmail(testCtx(), "aluno@example.com", "Aluno", "Assunto", "Corpo", nil)
	assert.Error(t, err)
}

func TestMarkRead(t *testing.T) {
	repo := newTestRepo(t)
	notifier := NewNotificationService(repo, nil, testEmailConfig())
	recipient := uuid.New()

	created, err := notifier.Notify(testCtx(), recipient, dto.NotificationInput{
		Type:  constant.NotificationNovaAula,
		Title: "Nova aula",
	})
	require.NoError(t, err)

	require.NoError(t, notifier.MarkRead(testCtx(), created.ID, recipient))

	notifications, err := notifier.ListForRecipient(testCtx(), recipient)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.True(t, notifications[0].Read)
}
