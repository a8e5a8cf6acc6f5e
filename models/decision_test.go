package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownReason(t *testing.T) {
	until := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	reason := CooldownReason(until)

	assert.Equal(t, DecisionReason("cooldown_active_until_2026-03-02T12:00:00Z"), reason)
	assert.True(t, reason.IsCooldown())

	assert.False(t, ReasonAccepted.IsCooldown())
	assert.False(t, ReasonDeltaBelowThreshold.IsCooldown())
}

func TestEngineParamsValidate(t *testing.T) {
	valid := EngineParams{CooldownHours: 24, MinExamples: 1000, DeltaThresholdPP: 1.0}
	assert.NoError(t, valid.Validate())

	zeroCooldown := EngineParams{CooldownHours: 0, MinExamples: 1, DeltaThresholdPP: 0}
	assert.NoError(t, zeroCooldown.Validate())

	tts := []EngineParams{
		{CooldownHours: -1, MinExamples: 1000, DeltaThresholdPP: 1},
		{CooldownHours: 24, MinExamples: 0, DeltaThresholdPP: 1},
		{CooldownHours: 24, MinExamples: 1000, DeltaThresholdPP: -1},
	}
	for _, params := range tts {
		assert.ErrorIs(t, params.Validate(), BadParameterError)
	}
}

func TestValidDatasetHash(t *testing.T) {
	assert.True(t, ValidDatasetHash("sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))

	invalid := []string{
		"",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"sha256:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"sha256:aaaa",
		"md5:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaz",
	}
	for _, hash := range invalid {
		assert.False(t, ValidDatasetHash(hash), hash)
	}
}

func TestMintStatusIsTerminal(t *testing.T) {
	assert.True(t, MintStatusSuccess.IsTerminal())
	assert.True(t, MintStatusDryRun.IsTerminal())
	assert.True(t, MintStatusSkipped.IsTerminal())
	assert.False(t, MintStatusFailed.IsTerminal())
}
