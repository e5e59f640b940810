package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/entities"
)

func staffActor(t *testing.T, env *testEnv) Actor {
	t.Helper()
	admin := seedUser(t, env.repo, constant.RoleAdmin)
	return Actor{ID: admin.ID, Role: constant.RoleAdmin}
}

func futureDate(days int) *time.Time {
	d := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return &d
}

func TestCreateAlwaysYieldsDraft(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:        "Introdução",
		Modality:     constant.ModalityOnline,
		Status:       constant.LessonStatusPublished,
		CurriculumID: &curriculum.ID,
		VideoURL:     ptr("https://videos.example.com/intro.m3u8"),
	}, staffActor(t, env))
	require.NoError(t, err)
	assert.Equal(t, constant.LessonStatusDraft, lesson.Status)
}

func TestCreateForcesClassModality(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:    "Aula ao vivo",
		Modality: constant.ModalityOnline,
		ClassID:  &class.ID,
	}, staffActor(t, env))
	require.NoError(t, err)
	assert.Equal(t, constant.ModalityLive, lesson.Modality)
}

func TestCreateStandaloneRequiresCurriculum(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:    "Sem vínculo",
		Modality: constant.ModalityOnline,
	}, staffActor(t, env))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "curriculum_id")
}

func TestCreateLiveLessonRejectsPastStart(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)

	_, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:     "Aula passada",
		Modality:  constant.ModalityLive,
		ClassID:   &class.ID,
		Date:      ptr(time.Now().Add(-24 * time.Hour)),
		StartTime: ptr("10:00"),
	}, staffActor(t, env))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "start_at")
}

func publishInput(lesson *entities.Lesson) dto.UpdateLessonInput {
	input := dto.UpdateLessonInput{
		Title:    lesson.Title,
		Status:   constant.LessonStatusPublished,
		Required: lesson.Required,
		ClassID:  lesson.ClassID,
		ModuleID: lesson.ModuleID,
		VideoURL: lesson.VideoURL,
	}
	if lesson.InstructorID != nil {
		input.InstructorID = lesson.InstructorID
	}
	if lesson.StartAt != nil {
		date := *lesson.StartAt
		input.Date = &date
		input.StartTime = lesson.StartTime
		input.EndTime = lesson.EndTime
		if lesson.EndAt != nil && lesson.EndTime == nil {
			minutes := int(lesson.EndAt.Sub(*lesson.StartAt).Minutes())
			input.DurationMinutes = &minutes
		}
	}
	return input
}

func TestPublishLiveLessonEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)
	instructor := seedUser(t, env.repo, constant.RoleInstructor)
	first := seedEnrollment(t, env.repo, class.ID)
	second := seedEnrollment(t, env.repo, class.ID)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:           "Concorrência em Go",
		Modality:        constant.ModalityLive,
		ClassID:         &class.ID,
		InstructorID:    &instructor.ID,
		Date:            futureDate(7),
		StartTime:       ptr("19:00"),
		DurationMinutes: ptr(90),
	}, actor)
	require.NoError(t, err)
	// Conferencing is attempted at create since everything is known.
	require.NotNil(t, lesson.ConferencingEventID)
	require.NotNil(t, lesson.ConferencingURL)
	require.Len(t, env.conferencing.created, 1)
	assert.Len(t, env.conferencing.created[0].AttendeeEmails, 2)

	updated, err := env.lessons.Update(testCtx(), lesson.ID, publishInput(lesson), actor)
	require.NoError(t, err)
	assert.Equal(t, constant.LessonStatusPublished, updated.Status)
	assert.NotNil(t, updated.ConferencingEventID)
	assert.NotNil(t, updated.ConferencingURL)

	var entries []entities.CalendarEntry
	require.NoError(t, env.repo.GetDB().Where("lesson_id = ?", lesson.ID).Find(&entries).Error)
	assert.Len(t, entries, 1)

	for _, enrollment := range []*entities.Enrollment{first, second} {
		notifications, err := env.notifier.ListForRecipient(testCtx(), enrollment.StudentID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, constant.NotificationNovaAula, notifications[0].Type)
	}
}

func TestPublishHybridWithVideoOnly(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:        "Aula gravada",
		Modality:     constant.ModalityHybrid,
		CurriculumID: &curriculum.ID,
		VideoURL:     ptr("https://videos.example.com/aula.m3u8"),
	}, actor)
	require.NoError(t, err)

	updated, err := env.lessons.Update(testCtx(), lesson.ID, publishInput(lesson), actor)
	require.NoError(t, err)
	assert.Equal(t, constant.LessonStatusPublished, updated.Status)
	assert.Nil(t, updated.ConferencingEventID)
	assert.Empty(t, env.conferencing.created)
}

func TestPublishOnlineRequiresVideoURL(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:        "Sem vídeo",
		Modality:     constant.ModalityOnline,
		CurriculumID: &curriculum.ID,
	}, actor)
	require.NoError(t, err)

	input := publishInput(lesson)
	input.VideoURL = nil
	_, err = env.lessons.Update(testCtx(), lesson.ID, input, actor)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "video_url")
}

func TestPublishLivePastStartRejected(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:           "Aula",
		Modality:        constant.ModalityLive,
		ClassID:         &class.ID,
		Date:            futureDate(2),
		StartTime:       ptr("10:00"),
		DurationMinutes: ptr(60),
	}, actor)
	require.NoError(t, err)

	input := publishInput(lesson)
	input.Date = ptr(time.Now().Add(-48 * time.Hour))
	input.StartTime = ptr("10:00")
	_, err = env.lessons.Update(testCtx(), lesson.ID, input, actor)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "start_at")
}

func TestUnpublishGuards(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityInPerson, constant.ClassStatusInProgress)

	t.Run("past start", func(t *testing.T) {
		lesson := &entities.Lesson{
			Title:     "Já aconteceu",
			Modality:  constant.ModalityInPerson,
			Status:    constant.LessonStatusPublished,
			ClassID:   &class.ID,
			StartAt:   ptr(time.Now().Add(-2 * time.Hour)),
			StartTime: ptr("08:00"),
		}
		require.NoError(t, env.repo.GetDB().Create(lesson).Error)

		input := dto.UpdateLessonInput{
			Title:     lesson.Title,
			Status:    constant.LessonStatusDraft,
			ClassID:   &class.ID,
			Date:      lesson.StartAt,
			StartTime: lesson.StartTime,
		}
		_, err := env.lessons.Update(testCtx(), lesson.ID, input, actor)
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})

	t.Run("in progress", func(t *testing.T) {
		lesson := &entities.Lesson{
			Title:    "Rolando agora",
			Modality: constant.ModalityInPerson,
			Status:   constant.LessonStatusInProgress,
			ClassID:  &class.ID,
		}
		require.NoError(t, env.repo.GetDB().Create(lesson).Error)

		input := dto.UpdateLessonInput{
			Title:   lesson.Title,
			Status:  constant.LessonStatusDraft,
			ClassID: &class.ID,
		}
		_, err := env.lessons.Update(testCtx(), lesson.ID, input, actor)
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})
}

func TestUpdatePermissions(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)
	owner := seedUser(t, env.repo, constant.RoleInstructor)
	other := seedUser(t, env.repo, constant.RoleInstructor)

	lesson := &entities.Lesson{
		Title:        "Minha aula",
		Modality:     constant.ModalityOnline,
		Status:       constant.LessonStatusDraft,
		CurriculumID: &curriculum.ID,
		InstructorID: &owner.ID,
		VideoURL:     ptr("https://videos.example.com/a.m3u8"),
	}
	require.NoError(t, env.repo.GetDB().Create(lesson).Error)

	input := dto.UpdateLessonInput{
		Title:        "Minha aula",
		Status:       constant.LessonStatusDraft,
		InstructorID: &owner.ID,
		VideoURL:     lesson.VideoURL,
	}

	_, err := env.lessons.Update(testCtx(), lesson.ID, input, Actor{ID: other.ID, Role: constant.RoleInstructor})
	var forbiddenErr *ForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)

	_, err = env.lessons.Update(testCtx(), lesson.ID, input, Actor{ID: owner.ID, Role: constant.RoleInstructor})
	require.NoError(t, err)
}

func TestDeleteNoticeWindow(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityInPerson, constant.ClassStatusPlanned)

	inThree := &entities.Lesson{
		Title:    "Daqui a 3 dias",
		Modality: constant.ModalityInPerson,
		Status:   constant.LessonStatusPublished,
		ClassID:  &class.ID,
		StartAt:  futureDate(3),
	}
	require.NoError(t, env.repo.GetDB().Create(inThree).Error)
	err := env.lessons.Delete(testCtx(), inThree.ID, actor)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	inSix := &entities.Lesson{
		Title:    "Daqui a 6 dias",
		Modality: constant.ModalityInPerson,
		Status:   constant.LessonStatusPublished,
		ClassID:  &class.ID,
		StartAt:  futureDate(6),
	}
	require.NoError(t, env.repo.GetDB().Create(inSix).Error)
	require.NoError(t, env.lessons.Delete(testCtx(), inSix.ID, actor))

	reloaded, err := env.repo.FindLessonById(testCtx(), inSix.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.LessonStatusCancelled, reloaded.Status)
	assert.NotNil(t, reloaded.DeletedAt)
	assert.Nil(t, reloaded.ConferencingEventID)
	assert.Nil(t, reloaded.VideoURL)
}

func TestDeleteRequiredLessonNeedsSeniorRole(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityOnline, constant.ClassStatusInProgress)
	enrollment := seedEnrollment(t, env.repo, class.ID)

	lesson := &entities.Lesson{
		Title:        "Obrigatória",
		Modality:     constant.ModalityOnline,
		Status:       constant.LessonStatusPublished,
		Required:     true,
		CurriculumID: &curriculum.ID,
		ClassID:      &class.ID,
	}
	require.NoError(t, env.repo.GetDB().Create(lesson).Error)
	require.NoError(t, env.repo.GetDB().Create(&entities.LessonProgress{
		LessonID:     lesson.ID,
		EnrollmentID: enrollment.ID,
		Percentage:   100,
		Completed:    true,
	}).Error)

	instructor := seedUser(t, env.repo, constant.RoleInstructor)
	err := env.lessons.Delete(testCtx(), lesson.ID, Actor{ID: instructor.ID, Role: constant.RoleInstructor})
	var forbiddenErr *ForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)

	pedagogical := seedUser(t, env.repo, constant.RolePedagogical)
	err = env.lessons.Delete(testCtx(), lesson.ID, Actor{ID: pedagogical.ID, Role: constant.RolePedagogical})
	require.ErrorAs(t, err, &forbiddenErr)

	admin := seedUser(t, env.repo, constant.RoleSuperAdmin)
	require.NoError(t, env.lessons.Delete(testCtx(), lesson.ID, Actor{ID: admin.ID, Role: constant.RoleSuperAdmin}))
}

func TestDeleteNotifiesInProgressClass(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)
	enrollment := seedEnrollment(t, env.repo, class.ID)
	instructor := seedUser(t, env.repo, constant.RoleInstructor)

	lesson := &entities.Lesson{
		Title:               "Cancelável",
		Modality:            constant.ModalityLive,
		Status:              constant.LessonStatusPublished,
		Required:            true,
		ClassID:             &class.ID,
		InstructorID:        &instructor.ID,
		StartAt:             futureDate(10),
		ConferencingEventID: ptr("evt-old"),
		ConferencingURL:     ptr("https://meet.example.com/evt-old"),
	}
	require.NoError(t, env.repo.GetDB().Create(lesson).Error)

	require.NoError(t, env.lessons.Delete(testCtx(), lesson.ID, actor))

	assert.Equal(t, []string{"evt-old"}, env.conferencing.deleted)

	notifications, err := env.notifier.ListForRecipient(testCtx(), enrollment.StudentID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, constant.NotificationAulaCancelada, notifications[0].Type)
	assert.Equal(t, constant.PriorityUrgent, notifications[0].Priority)
}

func TestRecordProgressClampsToComplete(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityOnline, constant.ClassStatusInProgress)
	enrollment := seedEnrollment(t, env.repo, class.ID)

	lesson := &entities.Lesson{
		Title:        "Vídeo",
		Modality:     constant.ModalityOnline,
		Status:       constant.LessonStatusPublished,
		CurriculumID: &curriculum.ID,
		ClassID:      &class.ID,
	}
	require.NoError(t, env.repo.GetDB().Create(lesson).Error)

	progress, err := env.lessons.RecordProgress(testCtx(), lesson.ID, dto.ProgressInput{
		EnrollmentID:   enrollment.ID,
		Percentage:     95,
		SecondsWatched: 3500,
		LastPosition:   3500,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Percentage)
	assert.True(t, progress.Completed)
	assert.NotNil(t, progress.CompletedAt)

	// Upsert keeps a single row per (lesson, enrollment).
	again, err := env.lessons.RecordProgress(testCtx(), lesson.ID, dto.ProgressInput{
		EnrollmentID: enrollment.ID,
		Percentage:   50,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, progress.ID, again.ID)

	var count int64
	require.NoError(t, env.repo.GetDB().Model(&entities.LessonProgress{}).Where("lesson_id = ?", lesson.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordAttendance(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)
	enrollment := seedEnrollment(t, env.repo, class.ID)

	live := &entities.Lesson{
		Title:    "Ao vivo",
		Modality: constant.ModalityLive,
		Status:   constant.LessonStatusPublished,
		ClassID:  &class.ID,
	}
	require.NoError(t, env.repo.GetDB().Create(live).Error)

	t.Run("exit without entry is a no-op", func(t *testing.T) {
		attendance, err := env.lessons.RecordAttendance(testCtx(), live.ID, dto.AttendanceInput{
			EnrollmentID: enrollment.ID,
			Kind:         constant.AttendanceExit,
		}, actor)
		require.NoError(t, err)
		assert.Nil(t, attendance)
	})

	t.Run("entry then exit closes the record", func(t *testing.T) {
		entry, err := env.lessons.RecordAttendance(testCtx(), live.ID, dto.AttendanceInput{
			EnrollmentID: enrollment.ID,
			Kind:         constant.AttendanceEntry,
		}, actor)
		require.NoError(t, err)
		require.NotNil(t, entry)

		exit, err := env.lessons.RecordAttendance(testCtx(), live.ID, dto.AttendanceInput{
			EnrollmentID: enrollment.ID,
			Kind:         constant.AttendanceExit,
		}, actor)
		require.NoError(t, err)
		require.NotNil(t, exit)
		assert.Equal(t, entry.ID, exit.ID)
		assert.NotNil(t, exit.ExitedAt)
	})

	t.Run("online modality rejected", func(t *testing.T) {
		online := &entities.Lesson{
			Title:        "Gravada",
			Modality:     constant.ModalityOnline,
			Status:       constant.LessonStatusPublished,
			CurriculumID: &curriculum.ID,
		}
		require.NoError(t, env.repo.GetDB().Create(online).Error)

		_, err := env.lessons.RecordAttendance(testCtx(), online.ID, dto.AttendanceInput{
			EnrollmentID: enrollment.ID,
			Kind:         constant.AttendanceEntry,
		}, actor)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestAttachInstructorToPublishedLessonCreatesDeferredEvent(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)
	enrollment := seedEnrollment(t, env.repo, class.ID)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:           "Sem instrutor ainda",
		Modality:        constant.ModalityLive,
		ClassID:         &class.ID,
		Date:            futureDate(7),
		StartTime:       ptr("19:00"),
		DurationMinutes: ptr(90),
	}, actor)
	require.NoError(t, err)
	assert.Nil(t, lesson.ConferencingEventID)

	published, err := env.lessons.Update(testCtx(), lesson.ID, publishInput(lesson), actor)
	require.NoError(t, err)
	// Publishing without an organizer defers the event.
	assert.Nil(t, published.ConferencingEventID)
	assert.Empty(t, env.conferencing.created)

	instructor := seedUser(t, env.repo, constant.RoleInstructor)
	input := publishInput(published)
	input.InstructorID = &instructor.ID
	attached, err := env.lessons.Update(testCtx(), lesson.ID, input, actor)
	require.NoError(t, err)

	require.NotNil(t, attached.ConferencingEventID)
	require.NotNil(t, attached.ConferencingURL)
	require.Len(t, env.conferencing.created, 1)
	assert.Equal(t, instructor.ID, env.conferencing.created[0].OrganizerID)

	student, err := env.repo.FindUserById(testCtx(), enrollment.StudentID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.Email}, env.conferencing.created[0].AttendeeEmails)

	notifications, err := env.notifier.ListForRecipient(testCtx(), instructor.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, constant.NotificationInstrutorAtribuido, notifications[0].Type)
}

func TestRescheduleSyncsEventAndCalendar(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)
	instructor := seedUser(t, env.repo, constant.RoleInstructor)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:           "Remarcável",
		Modality:        constant.ModalityLive,
		ClassID:         &class.ID,
		InstructorID:    &instructor.ID,
		Date:            futureDate(7),
		StartTime:       ptr("19:00"),
		DurationMinutes: ptr(90),
	}, actor)
	require.NoError(t, err)
	require.NotNil(t, lesson.ConferencingEventID)
	eventID := *lesson.ConferencingEventID

	published, err := env.lessons.Update(testCtx(), lesson.ID, publishInput(lesson), actor)
	require.NoError(t, err)

	newDate := futureDate(9)
	input := publishInput(published)
	input.Date = newDate
	rescheduled, err := env.lessons.Update(testCtx(), lesson.ID, input, actor)
	require.NoError(t, err)

	wantStart := time.Date(newDate.Year(), newDate.Month(), newDate.Day(), 19, 0, 0, 0, newDate.Location())
	require.NotNil(t, rescheduled.StartAt)
	assert.WithinDuration(t, wantStart, *rescheduled.StartAt, time.Second)

	patch, ok := env.conferencing.updated[eventID]
	require.True(t, ok)
	require.NotNil(t, patch.StartAt)
	assert.WithinDuration(t, wantStart, *patch.StartAt, time.Second)
	require.NotNil(t, patch.EndAt)
	assert.WithinDuration(t, wantStart.Add(90*time.Minute), *patch.EndAt, time.Second)

	var entries []entities.CalendarEntry
	require.NoError(t, env.repo.GetDB().Where("lesson_id = ?", lesson.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.WithinDuration(t, wantStart, entries[0].StartsAt, time.Second)
}

func TestTimeColumnsSurviveReload(t *testing.T) {
	env := newTestEnv(t)
	curriculum := seedCurriculum(t, env.repo)
	class := seedClass(t, env.repo, curriculum.ID, constant.ModalityLive, constant.ClassStatusInProgress)

	startAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	endAt := startAt.Add(90 * time.Minute)
	lesson := &entities.Lesson{
		Title:    "Persistida",
		Modality: constant.ModalityLive,
		Status:   constant.LessonStatusPublished,
		ClassID:  &class.ID,
		StartAt:  &startAt,
		EndAt:    &endAt,
	}
	require.NoError(t, env.repo.GetDB().Create(lesson).Error)

	reloaded, err := env.repo.FindLessonById(testCtx(), lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.StartAt)
	require.NotNil(t, reloaded.EndAt)
	assert.WithinDuration(t, startAt, *reloaded.StartAt, time.Second)
	assert.WithinDuration(t, endAt, *reloaded.EndAt, time.Second)
	assert.False(t, reloaded.CreatedAt.IsZero())

	reloadedClass, err := env.repo.FindClassById(testCtx(), class.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, class.StartDate, reloadedClass.StartDate, time.Second)
	assert.WithinDuration(t, class.EndDate, reloadedClass.EndDate, time.Second)
}

func TestHistoryIsAppendOnlyPerMutation(t *testing.T) {
	env := newTestEnv(t)
	actor := staffActor(t, env)
	curriculum := seedCurriculum(t, env.repo)

	lesson, err := env.lessons.Create(testCtx(), dto.CreateLessonInput{
		Title:        "Auditada",
		Modality:     constant.ModalityOnline,
		CurriculumID: &curriculum.ID,
		VideoURL:     ptr("https://videos.example.com/x.m3u8"),
	}, actor)
	require.NoError(t, err)

	_, err = env.lessons.Update(testCtx(), lesson.ID, publishInput(lesson), actor)
	require.NoError(t, err)

	var history []entities.LessonHistory
	require.NoError(t, env.repo.GetDB().Where("lesson_id = ?", lesson.ID).Order("created_at ASC").Find(&history).Error)
	require.Len(t, history, 2)
	assert.Equal(t, constant.HistoryActionCreated, history[0].Action)
	assert.Equal(t, constant.HistoryActionStatusChanged, history[1].Action)
}
