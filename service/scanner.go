package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
	"lesson-engine/repository"
)

// Reminder window tolerance around each target offset.
const reminderTolerance = 10 * time.Minute

// The lesson reminder fires 2h before start.
const lessonReminderOffset = 2 * time.Hour

// Exam reminder passes, most distant first. The 2h pass escalates to email.
var examReminderOffsets = []time.Duration{24 * time.Hour, 8 * time.Hour, 2 * time.Hour}

type Scanner struct {
	repo     repository.Repository
	notifier NotificationService
	now      func() time.Time

	// Overlap guards: a tick that finds its predecessor still running is
	// skipped, not queued.
	lessonMu sync.Mutex
	examMu   sync.Mutex
}

func NewScanner(repo repository.Repository, notifier NotificationService) *Scanner {
	return &Scanner{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start registers both jobs on a cron runner and starts it.
func (s *Scanner) Start(ctx context.Context) *cron.Cron {
	runner := cron.New()
	runner.AddFunc("*/30 * * * *", func() {
		if _, err := s.RunLessonReminder(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("lesson reminder scan failed")
		}
	})
	runner.AddFunc("0 * * * *", func() {
		if _, err := s.RunExamReminder(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("exam reminder scan failed")
		}
	})
	runner.Start()
	return runner
}

// RunLessonReminder notifies enrollments of published live/hybrid lessons
// starting about two hours from now. The lesson id doubles as the dedup key,
// so overlapping windows cannot double-notify.
func (s *Scanner) RunLessonReminder(ctx context.Context) (int, error) {
	if !s.lessonMu.TryLock() {
		zerolog.Ctx(ctx).Warn().Msg("lesson reminder scan still running, skipping tick")
		return 0, nil
	}
	defer s.lessonMu.Unlock()

	now := s.now()
	from := now.Add(lessonReminderOffset - reminderTolerance)
	to := now.Add(lessonReminderOffset + reminderTolerance)

	lessons, err := s.repo.FindLessonsStartingBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, lesson := range lessons {
		if lesson.ClassID == nil {
			continue
		}
		link := lesson.ConferencingURL
		count, err := s.notifier.NotifyEnrollments(ctx, *lesson.ClassID, dto.NotificationInput{
			Type:         constant.NotificationLembreteAula,
			Title:        "Aula em breve",
			Body:         fmt.Sprintf("A aula %q começa às %s.", lesson.Title, lesson.StartAt.Format("15:04")),
			Priority:     constant.PriorityHigh,
			ActionLink:   link,
			DedupEventID: lesson.ID.String(),
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("failed to fan out lesson reminder")
			continue
		}
		notified += count
	}

	zerolog.Ctx(ctx).Info().Int("lessons", len(lessons)).Int("notified", notified).Msg("lesson reminder scan finished")
	return notified, nil
}

// RunExamReminder runs the 24h, 8h and 2h passes; only the 2h pass is urgent
// and escalates to email.
func (s *Scanner) RunExamReminder(ctx context.Context) (int, error) {
	if !s.examMu.TryLock() {
		zerolog.Ctx(ctx).Warn().Msg("exam reminder scan still running, skipping tick")
		return 0, nil
	}
	defer s.examMu.Unlock()

	now := s.now()
	notified := 0
	for _, offset := range examReminderOffsets {
		from := now.Add(offset - reminderTolerance)
		to := now.Add(offset + reminderTolerance)

		exams, err := s.repo.FindActiveExamsBetween(ctx, from, to)
		if err != nil {
			return notified, err
		}

		urgent := offset == 2*time.Hour
		for _, exam := range exams {
			count, err := s.notifyExam(ctx, exam, offset, urgent)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("exam_id", exam.ID.String()).Msg("failed to fan out exam reminder")
				continue
			}
			notified += count
		}
	}

	zerolog.Ctx(ctx).Info().Int("notified", notified).Msg("exam reminder scan finished")
	return notified, nil
}

func (s *Scanner) notifyExam(ctx context.Context, exam *entities.Exam, offset time.Duration, urgent bool) (int, error) {
	hours := int(offset.Hours())
	notificationType := constant.NotificationLembreteProva
	priority := constant.PriorityHigh
	if urgent {
		notificationType = constant.NotificationProvaEm2Horas
		priority = constant.PriorityUrgent
	}

	enrollments, err := s.repo.FindActiveEnrollmentsByClass(ctx, exam.ClassID)
	if err != nil {
		return 0, err
	}

	body := fmt.Sprintf("A prova %q acontece em %d horas.", exam.Title, hours)
	notified := 0
	for _, enrollment := range enrollments {
		created, err := s.notifier.Notify(ctx, enrollment.StudentID, dto.NotificationInput{
			Type:         notificationType,
			Title:        "Lembrete de prova",
			Body:         body,
			Priority:     priority,
			DedupEventID: fmt.Sprintf("exam:%s:%dh", exam.ID, hours),
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("student_id", enrollment.StudentID.String()).Msg("failed to notify exam reminder")
			continue
		}
		if created == nil {
			continue
		}
		notified++

		if urgent && s.notifier.IsEmailWorthy(notificationType) {
			student, err := s.repo.FindUserById(ctx, enrollment.StudentID)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("student_id", enrollment.StudentID.String()).Msg("failed to load student for exam email")
				continue
			}
			if err := s.notifier.SendCriticalEmail(ctx, student.Email, student.Name, "Prova em 2 horas", body, nil); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("student_id", enrollment.StudentID.String()).Msg("failed to send exam email")
			}
		}
	}
	return notified, nil
}
