package cmd

import (
	"context"

	"github.com/deltaone/deltaone-backend/repositories"
	"github.com/deltaone/deltaone-backend/usecases"
	"github.com/deltaone/deltaone-backend/utils"
)

func setupContext() context.Context {
	logger := utils.NewLogger(utils.GetEnv("LOGGING_FORMAT", "text"))
	return utils.StoreLoggerInContext(context.Background(), logger)
}

func setupEvaluationUsecase() (usecases.EvaluationUsecase, repositories.TrackingRepository, error) {
	tracking := repositories.NewTrackingRepository(trackingConfig())
	evaluation, err := usecases.NewEvaluationUsecase(tracking, engineParams())
	return evaluation, tracking, err
}

func setupSpecResolver() repositories.BenchmarkSpecRepository {
	return repositories.NewBenchmarkSpecRepository(specResolverConfig())
}

func setupOrchestrator(tracking repositories.TrackingRepository, dryRun bool) (usecases.MintOrchestratorUsecase, error) {
	redisClient, err := repositories.NewRedisClient(redisConfig())
	if err != nil {
		return usecases.MintOrchestratorUsecase{}, err
	}
	store := repositories.NewRedisKvStore(redisClient)

	mintRepository, err := repositories.NewMintRepository(mintConfig(dryRun))
	if err != nil {
		return usecases.MintOrchestratorUsecase{}, err
	}

	return usecases.NewMintOrchestratorUsecase(
		repositories.NewAttestationRegistry(store, registryConfig()),
		repositories.NewScoreLedger(store),
		mintRepository,
		repositories.NewBenchmarkSpecRepository(specResolverConfig()),
		repositories.NewNotificationRepository(notificationConfig()),
		tracking,
	), nil
}
