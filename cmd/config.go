package cmd

import (
	"time"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/utils"
)

// This is where we read the environment variables and set up the
// configuration for the application.

func redisConfig() infra.RedisConfig {
	return infra.RedisConfig{
		Address:       utils.GetRequiredEnv[string]("REDIS_ADDRESS"),
		Key:           utils.GetEnv("REDIS_KEY", ""),
		Tls:           utils.GetEnv("REDIS_TLS", false),
		TlsSkipVerify: utils.GetEnv("REDIS_TLS_SKIP_VERIFY", false),
	}
}

func trackingConfig() infra.TrackingConfig {
	return infra.TrackingConfig{
		BaseUrl: utils.GetRequiredEnv[string]("TRACKING_BASE_URL"),
		Token:   utils.GetEnv("TRACKING_TOKEN", ""),
		Timeout: time.Duration(utils.GetEnv("TRACKING_TIMEOUT_SECOND", 10)) * time.Second,
	}
}

func mintConfig(dryRun bool) infra.MintConfig {
	return infra.MintConfig{
		Endpoint:       utils.GetEnv("MINT_ENDPOINT", ""),
		ApiKey:         utils.GetEnv("MINT_API_KEY", ""),
		DryRun:         dryRun || utils.GetEnv("MINT_DRY_RUN", false),
		MaxAttempts:    utils.GetEnv("MINT_MAX_ATTEMPTS", 3),
		AttemptTimeout: time.Duration(utils.GetEnv("MINT_TIMEOUT_SECOND", 10)) * time.Second,
	}
}

func specResolverConfig() infra.SpecResolverConfig {
	return infra.SpecResolverConfig{
		BaseUrl: utils.GetEnv("SPEC_RESOLVER_BASE_URL", ""),
		Timeout: time.Duration(utils.GetEnv("SPEC_RESOLVER_TIMEOUT_SECOND", 5)) * time.Second,
	}
}

func notificationConfig() infra.NotificationConfig {
	return infra.NotificationConfig{
		WebhookUrl: utils.GetEnv("NOTIFICATION_WEBHOOK_URL", ""),
		Timeout:    time.Duration(utils.GetEnv("NOTIFICATION_TIMEOUT_SECOND", 5)) * time.Second,
	}
}

func registryConfig() infra.RegistryConfig {
	return infra.RegistryConfig{
		KeyTtl: time.Duration(utils.GetEnv("REGISTRY_KEY_TTL_SECOND", 7_776_000)) * time.Second,
	}
}

func engineParams() models.EngineParams {
	return models.EngineParams{
		CooldownHours:    utils.GetEnv("ENGINE_COOLDOWN_HOURS", 24.0),
		MinExamples:      utils.GetEnv("ENGINE_MIN_EXAMPLES", 1000),
		DeltaThresholdPP: utils.GetEnv("ENGINE_DELTA_THRESHOLD_PP", 1.0),
	}
}
