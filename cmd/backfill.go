package cmd

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lesson-engine/config"
	"lesson-engine/pkg/crypto"
	"lesson-engine/repository"
	"lesson-engine/service"
)

// backfill creates conferencing events for one organizer's published lessons
// that have none yet.
func backfill(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill <organizer-id>",
		Short: "create missing conferencing events for an organizer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			ctx := logger.WithContext(context.Background())

			organizerID, err := uuid.Parse(args[0])
			if err != nil {
				logger.Fatal().Err(err).Msg("invalid organizer id")
			}

			cipher, err := crypto.NewCipher(cfg.TokenSecret)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to build token cipher")
			}

			repo := repository.NewRepo(cfg.DB)
			conferencing := service.NewConferencingService(repo, cipher, &cfg.Conferencing)

			created, err := conferencing.BackfillLessons(ctx, organizerID)
			if err != nil {
				logger.Fatal().Err(err).Msg("backfill failed")
			}
			logger.Info().Int("created", created).Msg("backfill done")
		},
	}
}
