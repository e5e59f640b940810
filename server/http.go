package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lesson-engine/config"
	"lesson-engine/constant"
	lessonHandler "lesson-engine/handler"
	"lesson-engine/pkg/crypto"
	"lesson-engine/pkg/rabbitmq"
	"lesson-engine/repository"
	"lesson-engine/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	cipher, err := crypto.NewCipher(cfg.TokenSecret)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to build token cipher")
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}
	var publisher rabbitmq.Publisher
	if conn != nil {
		publisher = rabbitmq.NewPublisher(conn, cfg.Queue)
	}

	repo := repository.NewRepo(cfg.DB)
	conferencingService := service.NewConferencingService(repo, cipher, &cfg.Conferencing)
	notificationService := service.NewNotificationService(repo, publisher, &cfg.Email)
	lessonService := service.NewLessonService(repo, conferencingService, notificationService, cfg.Storage, cfg.MinIOBucket)
	agendaService := service.NewAgendaService(repo)

	scanner := service.NewScanner(repo, notificationService)
	cronRunner := scanner.Start(ctx)
	defer cronRunner.Stop()

	serviceDeps := lessonHandler.ServiceDependencies{
		LessonService:       lessonService,
		ConferencingService: conferencingService,
		NotificationService: notificationService,
		AgendaService:       agendaService,
	}

	r := gin.Default()
	addHealth(r)
	lessonHandler.Register(r, serviceDeps)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
