package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"lesson-engine/constant"
	"lesson-engine/entities"
	"lesson-engine/repository"
)

type AgendaEvent struct {
	ID       string                   `json:"id"`
	Type     constant.AgendaEventType `json:"type"`
	Title    string                   `json:"title"`
	StartsAt time.Time                `json:"starts_at"`
	EndsAt   *time.Time               `json:"ends_at,omitempty"`
	Color    string                   `json:"color"`
	RefID    uuid.UUID                `json:"ref_id"`
}

type AgendaService interface {
	GetEvents(ctx context.Context, viewerID uuid.UUID, role constant.Role, rangeStart, rangeEnd time.Time, typeFilter []constant.AgendaEventType) ([]AgendaEvent, error)
}

type agendaService struct {
	repo repository.Repository
}

func NewAgendaService(repo repository.Repository) AgendaService {
	return &agendaService{repo: repo}
}

// scheduleFilter scopes lessons, exams and class milestones by viewer role:
// staff see everything, instructors their own, students their enrollments.
func scheduleFilter(viewerID uuid.UUID, role constant.Role) (repository.LessonRangeFilter, bool) {
	switch {
	case role.Staff():
		return repository.LessonRangeFilter{}, true
	case role == constant.RoleInstructor:
		return repository.LessonRangeFilter{InstructorID: &viewerID}, true
	case role == constant.RoleStudent:
		return repository.LessonRangeFilter{StudentID: &viewerID}, true
	}
	return repository.LessonRangeFilter{}, false
}

// birthdayRoles returns which roles' birthdays the viewer may see.
func birthdayRoles(role constant.Role) []constant.Role {
	switch role {
	case constant.RoleSuperAdmin, constant.RoleAdmin:
		return []constant.Role{constant.RoleSuperAdmin, constant.RoleAdmin, constant.RolePedagogical, constant.RoleInstructor}
	case constant.RolePedagogical:
		return []constant.Role{constant.RolePedagogical, constant.RoleInstructor}
	case constant.RoleInstructor:
		return []constant.Role{constant.RoleInstructor}
	}
	return nil
}

func (s *agendaService) GetEvents(ctx context.Context, viewerID uuid.UUID, role constant.Role, rangeStart, rangeEnd time.Time, typeFilter []constant.AgendaEventType) ([]AgendaEvent, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, newValidationError("invalid range", "range_end")
	}

	wanted := func(t constant.AgendaEventType) bool {
		if len(typeFilter) == 0 {
			return true
		}
		for _, f := range typeFilter {
			if f == t {
				return true
			}
		}
		return false
	}

	events := make([]AgendaEvent, 0)
	filter, scoped := scheduleFilter(viewerID, role)

	if scoped && wanted(constant.AgendaEventLesson) {
		lessons, err := s.repo.FindLessonsInRange(ctx, rangeStart, rangeEnd, filter)
		if err != nil {
			return nil, err
		}
		for _, lesson := range lessons {
			events = append(events, AgendaEvent{
				ID:       fmt.Sprintf("lesson:%s", lesson.ID),
				Type:     constant.AgendaEventLesson,
				Title:    lesson.Title,
				StartsAt: *lesson.StartAt,
				EndsAt:   lesson.EndAt,
				Color:    constant.AgendaEventLesson.Color(),
				RefID:    lesson.ID,
			})
		}
	}

	if scoped && wanted(constant.AgendaEventExam) {
		exams, err := s.repo.FindExamsInRange(ctx, rangeStart, rangeEnd, filter)
		if err != nil {
			return nil, err
		}
		for _, exam := range exams {
			events = append(events, AgendaEvent{
				ID:       fmt.Sprintf("exam:%s", exam.ID),
				Type:     constant.AgendaEventExam,
				Title:    exam.Title,
				StartsAt: exam.ScheduledAt,
				Color:    constant.AgendaEventExam.Color(),
				RefID:    exam.ID,
			})
		}
	}

	if wanted(constant.AgendaEventBirthday) {
		roles := birthdayRoles(role)
		if len(roles) > 0 {
			users, err := s.repo.FindUsersWithBirthdayByRoles(ctx, roles)
			if err != nil {
				return nil, err
			}
			for _, user := range users {
				// Instructors see only their own birthday; the pedagogical
				// role sees itself plus instructors, not its peers.
				if role == constant.RoleInstructor && user.ID != viewerID {
					continue
				}
				if role == constant.RolePedagogical && user.Role == constant.RolePedagogical && user.ID != viewerID {
					continue
				}
				if occurrence, ok := birthdayInRange(*user.BirthDate, rangeStart, rangeEnd); ok {
					events = append(events, AgendaEvent{
						ID:       fmt.Sprintf("birthday:%s", user.ID),
						Type:     constant.AgendaEventBirthday,
						Title:    fmt.Sprintf("Aniversário de %s", user.Name),
						StartsAt: occurrence,
						Color:    constant.AgendaEventBirthday.Color(),
						RefID:    user.ID,
					})
				}
			}
		}
	}

	if scoped && wanted(constant.AgendaEventClass) {
		classes, err := s.repo.FindClassesInRange(ctx, rangeStart, rangeEnd, filter)
		if err != nil {
			return nil, err
		}
		for _, class := range classes {
			events = append(events, classMilestones(class, rangeStart, rangeEnd)...)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

// birthdayInRange matches month/day ignoring year, handling ranges that wrap
// across a year boundary.
func birthdayInRange(birthDate, rangeStart, rangeEnd time.Time) (time.Time, bool) {
	for year := rangeStart.Year(); year <= rangeEnd.Year(); year++ {
		occurrence := time.Date(year, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, rangeStart.Location())
		if !occurrence.Before(rangeStart) && !occurrence.After(rangeEnd) {
			return occurrence, true
		}
	}
	return time.Time{}, false
}

func classMilestones(class *entities.ClassGroup, rangeStart, rangeEnd time.Time) []AgendaEvent {
	var events []AgendaEvent
	inRange := func(t time.Time) bool {
		return !t.Before(rangeStart) && !t.After(rangeEnd)
	}
	if inRange(class.StartDate) {
		events = append(events, AgendaEvent{
			ID:       fmt.Sprintf("class-start:%s", class.ID),
			Type:     constant.AgendaEventClass,
			Title:    fmt.Sprintf("Início da turma %s", class.Name),
			StartsAt: class.StartDate,
			Color:    constant.AgendaEventClass.Color(),
			RefID:    class.ID,
		})
	}
	if inRange(class.EndDate) {
		events = append(events, AgendaEvent{
			ID:       fmt.Sprintf("class-end:%s", class.ID),
			Type:     constant.AgendaEventClass,
			Title:    fmt.Sprintf("Encerramento da turma %s", class.Name),
			StartsAt: class.EndDate,
			Color:    constant.AgendaEventClass.Color(),
			RefID:    class.ID,
		})
	}
	return events
}
