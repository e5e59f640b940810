package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"context"

	"lesson-engine/config"
	"lesson-engine/dto"
	"lesson-engine/entities"
	"lesson-engine/pkg/crypto"
	"lesson-engine/repository"
)

// Reminder offsets requested on every created event.
var reminderOffsetsMinutes = []int{120, 30}

type ConferencingEvent struct {
	EventID string `json:"event_id"`
	JoinURL string `json:"join_url"`
}

type EventInput struct {
	Title          string
	Description    string
	StartAt        time.Time
	EndAt          time.Time
	OrganizerID    uuid.UUID
	AttendeeEmails []string
}

type ConferencingService interface {
	CreateEvent(ctx context.Context, input EventInput) (*ConferencingEvent, error)
	UpdateEvent(ctx context.Context, eventID string, organizerID uuid.UUID, patch dto.EventPatch) error
	DeleteEvent(ctx context.Context, eventID string, organizerID uuid.UUID) error
	BackfillLessons(ctx context.Context, organizerID uuid.UUID) (int, error)
	Connect(ctx context.Context, organizerID uuid.UUID, accessToken, refreshToken, calendarID string, expiresAt time.Time) error
	Disconnect(ctx context.Context, organizerID uuid.UUID) error
}

type conferencingService struct {
	repo   repository.Repository
	cipher *crypto.Cipher
	cfg    *config.Conferencing
	client *resty.Client
	oauth  *oauth2.Config
	now    func() time.Time
}

func NewConferencingService(repo repository.Repository, cipher *crypto.Cipher, cfg *config.Conferencing) ConferencingService {
	return &conferencingService{
		repo:   repo,
		cipher: cipher,
		cfg:    cfg,
		client: resty.New().SetBaseURL(cfg.APIBaseURL).SetTimeout(15 * time.Second),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		now: time.Now,
	}
}

// Connect stores the organizer's tokens after an authorization grant,
// encrypted at rest.
func (s *conferencingService) Connect(ctx context.Context, organizerID uuid.UUID, accessToken, refreshToken, calendarID string, expiresAt time.Time) error {
	access, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	refresh, err := s.cipher.Encrypt(refreshToken)
	if err != nil {
		return err
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	existing, err := s.repo.FindCredentialByOrganizer(ctx, organizerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		existing.AccessTokenEncrypted = access
		existing.RefreshTokenEncrypted = refresh
		existing.CalendarID = calendarID
		existing.ExpiresAt = expiresAt
		return s.repo.SaveCredential(ctx, existing)
	}
	return s.repo.CreateCredential(ctx, &entities.ConferencingCredential{
		OrganizerID:           organizerID,
		AccessTokenEncrypted:  access,
		RefreshTokenEncrypted: refresh,
		CalendarID:            calendarID,
		ExpiresAt:             expiresAt,
	})
}

func (s *conferencingService) Disconnect(ctx context.Context, organizerID uuid.UUID) error {
	return s.repo.DeleteCredentialByOrganizer(ctx, organizerID)
}

// authorizedClient decrypts the organizer's tokens and transparently
// refreshes the access token when expired, persisting the re-encrypted token
// in the same transaction.
func (s *conferencingService) authorizedClient(ctx context.Context, organizerID uuid.UUID) (*resty.Client, *entities.ConferencingCredential, error) {
	credential, err := s.repo.FindCredentialByOrganizer(ctx, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotConnected
		}
		return nil, nil, err
	}

	accessToken, err := s.cipher.Decrypt(credential.AccessTokenEncrypted)
	if err != nil {
		return nil, nil, err
	}

	if credential.Expired(s.now()) {
		refreshToken, err := s.cipher.Decrypt(credential.RefreshTokenEncrypted)
		if err != nil {
			return nil, nil, err
		}
		token, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return nil, nil, err
		}

		err = s.repo.Transaction(ctx, func(tr repository.Repository) error {
			encrypted, err := s.cipher.Encrypt(token.AccessToken)
			if err != nil {
				return err
			}
			credential.AccessTokenEncrypted = encrypted
			credential.ExpiresAt = token.Expiry
			if token.RefreshToken != "" {
				refreshed, err := s.cipher.Encrypt(token.RefreshToken)
				if err != nil {
					return err
				}
				credential.RefreshTokenEncrypted = refreshed
			}
			return tr.SaveCredential(ctx, credential)
		})
		if err != nil {
			return nil, nil, err
		}
		accessToken = token.AccessToken
		zerolog.Ctx(ctx).Info().Str("organizer_id", organizerID.String()).Msg("refreshed conferencing token")
	}

	return s.client.Clone().SetAuthToken(accessToken), credential, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type eventAttendee struct {
	Email string `json:"email"`
}

type eventReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type eventReminders struct {
	UseDefault bool            `json:"useDefault"`
	Overrides  []eventReminder `json:"overrides"`
}

type conferenceRequest struct {
	RequestID string `json:"requestId"`
}

type conferenceData struct {
	CreateRequest *conferenceRequest `json:"createRequest,omitempty"`
}

type eventPayload struct {
	Summary        string          `json:"summary,omitempty"`
	Description    string          `json:"description,omitempty"`
	Start          *eventTime      `json:"start,omitempty"`
	End            *eventTime      `json:"end,omitempty"`
	Attendees      []eventAttendee `json:"attendees,omitempty"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
	Reminders      *eventReminders `json:"reminders,omitempty"`
}

type eventResponse struct {
	ID       string `json:"id"`
	JoinLink string `json:"hangoutLink"`
}

// CreateEvent creates the calendar event with a generated join link and the
// fixed 2h/30m reminders, attributed to the organizer's calendar.
func (s *conferencingService) CreateEvent(ctx context.Context, input EventInput) (*ConferencingEvent, error) {
	client, credential, err := s.authorizedClient(ctx, input.OrganizerID)
	if err != nil {
		return nil, err
	}

	attendees := make([]eventAttendee, 0, len(input.AttendeeEmails))
	for _, email := range input.AttendeeEmails {
		attendees = append(attendees, eventAttendee{Email: email})
	}
	reminders := make([]eventReminder, 0, len(reminderOffsetsMinutes))
	for _, minutes := range reminderOffsetsMinutes {
		reminders = append(reminders, eventReminder{Method: "popup", Minutes: minutes})
	}

	payload := eventPayload{
		Summary:     input.Title,
		Description: input.Description,
		Start:       &eventTime{DateTime: input.StartAt.Format(time.RFC3339)},
		End:         &eventTime{DateTime: input.EndAt.Format(time.RFC3339)},
		Attendees:   attendees,
		ConferenceData: &conferenceData{
			CreateRequest: &conferenceRequest{RequestID: uuid.NewString()},
		},
		Reminders: &eventReminders{UseDefault: false, Overrides: reminders},
	}

	var created eventResponse
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParam("conferenceDataVersion", "1").
		SetBody(payload).
		SetResult(&created).
		Post(fmt.Sprintf("/calendars/%s/events", credential.CalendarID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("conferencing event creation failed: %s", resp.Status())
	}

	return &ConferencingEvent{EventID: created.ID, JoinURL: created.JoinLink}, nil
}

func (s *conferencingService) UpdateEvent(ctx context.Context, eventID string, organizerID uuid.UUID, patch dto.EventPatch) error {
	client, credential, err := s.authorizedClient(ctx, organizerID)
	if err != nil {
		return err
	}

	payload := eventPayload{}
	if patch.Title != nil {
		payload.Summary = *patch.Title
	}
	if patch.Description != nil {
		payload.Description = *patch.Description
	}
	if patch.StartAt != nil {
		payload.Start = &eventTime{DateTime: patch.StartAt.Format(time.RFC3339)}
	}
	if patch.EndAt != nil {
		payload.End = &eventTime{DateTime: patch.EndAt.Format(time.RFC3339)}
	}

	resp, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Patch(fmt.Sprintf("/calendars/%s/events/%s", credential.CalendarID, eventID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("conferencing event update failed: %s", resp.Status())
	}
	return nil
}

func (s *conferencingService) DeleteEvent(ctx context.Context, eventID string, organizerID uuid.UUID) error {
	client, credential, err := s.authorizedClient(ctx, organizerID)
	if err != nil {
		return err
	}

	resp, err := client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/calendars/%s/events/%s", credential.CalendarID, eventID))
	if err != nil {
		return err
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return fmt.Errorf("conferencing event deletion failed: %s", resp.Status())
	}
	return nil
}

// BackfillLessons creates events for the organizer's future published
// conferencing-eligible lessons that have none; one lesson failing does not
// abort the batch.
func (s *conferencingService) BackfillLessons(ctx context.Context, organizerID uuid.UUID) (int, error) {
	lessons, err := s.repo.FindLessonsNeedingConferencing(ctx, organizerID, s.now())
	if err != nil {
		return 0, err
	}

	created := 0
	for _, lesson := range lessons {
		if lesson.StartAt == nil || lesson.EndAt == nil {
			continue
		}
		description := ""
		if lesson.Description != nil {
			description = *lesson.Description
		}
		attendees, err := s.repo.FindEnrolledStudentEmails(ctx, *lesson.ClassID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("backfill: failed to load attendees")
			continue
		}
		event, err := s.CreateEvent(ctx, EventInput{
			Title:          lesson.Title,
			Description:    description,
			StartAt:        *lesson.StartAt,
			EndAt:          *lesson.EndAt,
			OrganizerID:    organizerID,
			AttendeeEmails: attendees,
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("backfill: failed to create conferencing event")
			continue
		}
		lesson.ConferencingEventID = &event.EventID
		lesson.ConferencingURL = &event.JoinURL
		if err := s.repo.SaveLesson(ctx, lesson); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("backfill: failed to persist conferencing fields")
			continue
		}
		created++
	}
	zerolog.Ctx(ctx).Info().Int("created", created).Int("candidates", len(lessons)).Msg("conferencing backfill finished")
	return created, nil
}
