package infra

import (
	"time"
)

type RedisConfig struct {
	Address       string
	Key           string
	Tls           bool
	TlsSkipVerify bool
}

// TrackingConfig points at the run-tracking store's REST API.
type TrackingConfig struct {
	BaseUrl string
	Token   string
	Timeout time.Duration
}

// MintConfig configures the reward-issuance hook. An empty Endpoint means
// mint calls are skipped; DryRun short-circuits before any network call.
type MintConfig struct {
	Endpoint       string
	ApiKey         string
	DryRun         bool
	MaxAttempts    int
	AttemptTimeout time.Duration
}

// SpecResolverConfig points at the benchmark spec resolver service.
type SpecResolverConfig struct {
	BaseUrl string
	Timeout time.Duration
}

// NotificationConfig configures fire-and-forget event delivery. An empty
// WebhookUrl disables dispatch entirely.
type NotificationConfig struct {
	WebhookUrl string
	Timeout    time.Duration
}

// RegistryConfig governs replay-protection record lifetime. After KeyTtl a
// consumed hash or reserved nonce is treated as never used again.
type RegistryConfig struct {
	KeyTtl time.Duration
}

const DefaultRegistryKeyTtl = 90 * 24 * time.Hour
