package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lesson-engine/constant"
	"lesson-engine/dto"
	"lesson-engine/service"
)

type ServiceDependencies struct {
	LessonService       service.LessonService
	ConferencingService service.ConferencingService
	NotificationService service.NotificationService
	AgendaService       service.AgendaService
}

// actorFrom reads the identity the upstream gateway resolved; this core does
// not authenticate.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-Id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-User-Id"})
		return service.Actor{}, false
	}
	role := constant.Role(c.GetHeader("X-User-Role"))
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-User-Role"})
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: role}, true
}

func writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var notFoundErr *service.NotFoundError
	var forbiddenErr *service.ForbiddenError
	var conflictErr *service.ConflictError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg, "fields": validationErr.Fields})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func Register(r *gin.Engine, deps ServiceDependencies) {
	r.POST("/lessons", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var input dto.CreateLessonInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lesson, err := deps.LessonService.Create(c.Request.Context(), input, actor)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lesson)
	})

	r.PUT("/lessons/:id", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
			return
		}
		var input dto.UpdateLessonInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lesson, err := deps.LessonService.Update(c.Request.Context(), id, input, actor)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, lesson)
	})

	r.DELETE("/lessons/:id", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
			return
		}
		if err := deps.LessonService.Delete(c.Request.Context(), id, actor); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST("/lessons/:id/progress", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
			return
		}
		var input dto.ProgressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		progress, err := deps.LessonService.RecordProgress(c.Request.Context(), id, input, actor)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, progress)
	})

	r.POST("/lessons/:id/attendance", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
			return
		}
		var input dto.AttendanceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		attendance, err := deps.LessonService.RecordAttendance(c.Request.Context(), id, input, actor)
		if err != nil {
			writeError(c, err)
			return
		}
		if attendance == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, attendance)
	})

	r.GET("/agenda", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		rangeStart, err := time.Parse(time.RFC3339, c.Query("start"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
			return
		}
		rangeEnd, err := time.Parse(time.RFC3339, c.Query("end"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
			return
		}
		var typeFilter []constant.AgendaEventType
		for _, t := range c.QueryArray("type") {
			typeFilter = append(typeFilter, constant.AgendaEventType(t))
		}
		events, err := deps.AgendaService.GetEvents(c.Request.Context(), actor.ID, actor.Role, rangeStart, rangeEnd, typeFilter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, events)
	})

	r.GET("/notifications", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		notifications, err := deps.NotificationService.ListForRecipient(c.Request.Context(), actor.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, notifications)
	})

	r.POST("/notifications/:id/read", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
			return
		}
		if err := deps.NotificationService.MarkRead(c.Request.Context(), id, actor.ID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST("/conferencing/backfill", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		created, err := deps.ConferencingService.BackfillLessons(c.Request.Context(), actor.ID)
		if err != nil {
			if errors.Is(err, service.ErrNotConnected) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"created": created})
	})

	r.DELETE("/conferencing/connection", func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if err := deps.ConferencingService.Disconnect(c.Request.Context(), actor.ID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
