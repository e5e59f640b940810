package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"lesson-engine/config"
	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
	"lesson-engine/pkg/rabbitmq"
	"lesson-engine/repository"
)

type NotificationService interface {
	// Notify returns (nil, nil) when the dedup marker already exists.
	Notify(ctx context.Context, recipientID uuid.UUID, input dto.NotificationInput) (*entities.Notification, error)
	NotifyEnrollments(ctx context.Context, classID uuid.UUID, input dto.NotificationInput) (int, error)
	SendCriticalEmail(ctx context.Context, to, name, subject, body string, actionLink *string) error
	IsEmailWorthy(notificationType constant.NotificationType) bool
	ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}

type notificationService struct {
	repo        repository.Repository
	publisher   rabbitmq.Publisher
	email       *config.Email
	worthyTypes map[constant.NotificationType]struct{}
	sendFn      func(ctx context.Context, to, toName, subject, htmlBody string) error
}

func NewNotificationService(repo repository.Repository, publisher rabbitmq.Publisher, email *config.Email) NotificationService {
	worthy := make(map[constant.NotificationType]struct{}, len(email.WorthyTypes))
	for _, t := range email.WorthyTypes {
		worthy[constant.NotificationType(t)] = struct{}{}
	}
	s := &notificationService{
		repo:        repo,
		publisher:   publisher,
		email:       email,
		worthyTypes: worthy,
	}
	s.sendFn = s.sendWithSendgrid
	return s
}

func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, input dto.NotificationInput) (*entities.Notification, error) {
	if input.DedupEventID != "" {
		sent, err := s.repo.HasSentMarker(ctx, input.Type, input.DedupEventID, recipientID)
		if err != nil {
			return nil, err
		}
		if sent {
			zerolog.Ctx(ctx).Debug().
				Str("type", string(input.Type)).
				Str("event_id", input.DedupEventID).
				Str("recipient_id", recipientID.String()).
				Msg("notification deduped")
			return nil, nil
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = constant.PriorityNormal
	}
	notification := &entities.Notification{
		RecipientID: recipientID,
		Type:        input.Type,
		Title:       input.Title,
		Body:        input.Body,
		Priority:    priority,
		ActionLink:  input.ActionLink,
		Payload:     input.Payload,
	}

	// The record and its marker commit together; a failed marker means the
	// notification does not count as sent.
	err := s.repo.Transaction(ctx, func(tr repository.Repository) error {
		if err := tr.CreateNotification(ctx, notification); err != nil {
			return err
		}
		if input.DedupEventID == "" {
			return nil
		}
		return tr.CreateSentMarker(ctx, &entities.NotificationSent{
			Type:        input.Type,
			EventID:     input.DedupEventID,
			RecipientID: recipientID,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "notification.created", notification); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("notification_id", notification.ID.String()).Msg("failed to publish notification")
		}
	}

	return notification, nil
}

// NotifyEnrollments fans out to the class's active enrollments; one failed
// recipient does not stop the loop.
func (s *notificationService) NotifyEnrollments(ctx context.Context, classID uuid.UUID, input dto.NotificationInput) (int, error) {
	enrollments, err := s.repo.FindActiveEnrollmentsByClass(ctx, classID)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, enrollment := range enrollments {
		created, err := s.Notify(ctx, enrollment.StudentID, input)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("class_id", classID.String()).
				Str("student_id", enrollment.StudentID.String()).
				Msg("failed to notify enrollment")
			continue
		}
		if created != nil {
			notified++
		}
	}
	return notified, nil
}

func (s *notificationService) IsEmailWorthy(notificationType constant.NotificationType) bool {
	_, ok := s.worthyTypes[notificationType]
	return ok
}

func (s *notificationService) SendCriticalEmail(ctx context.Context, to, name, subject, body string, actionLink *string) error {
	html := fmt.Sprintf("<p>Olá %s,</p><p>%s</p>", name, body)
	if actionLink != nil {
		html += fmt.Sprintf(`<p><a href="%s">Acessar</a></p>`, *actionLink)
	}
	return s.sendFn(ctx, to, name, subject, html)
}

func (s *notificationService) sendWithSendgrid(ctx context.Context, to, toName, subject, htmlBody string) error {
	from := sgmail.NewEmail(s.email.FromName, s.email.FromEmail)
	message := sgmail.NewSingleEmail(from, subject, sgmail.NewEmail(toName, to), "", htmlBody)
	client := sendgrid.NewSendClient(s.email.SendgridKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: %d", response.StatusCode)
	}
	zerolog.Ctx(ctx).Info().Str("to", to).Str("subject", subject).Msg("critical email sent")
	return nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*entities.Notification, error) {
	return s.repo.ListNotificationsByRecipient(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, id, recipientID)
}
