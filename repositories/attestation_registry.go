package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/utils"
)

const (
	attestationKeyPrefix = "deltaone:attestation:"
	nonceKeyPrefix       = "deltaone:nonce:"
)

// AttestationRegistry is the replay-protection ledger: at most one successful
// Consume per attestation hash and per nonce, system-wide. The guarantee
// comes from the backing store's atomic create-if-absent, so independent
// processes racing on the same hash resolve correctly without coordination.
type AttestationRegistry struct {
	store  KvStore
	keyTtl time.Duration
}

func NewAttestationRegistry(store KvStore, cfg infra.RegistryConfig) AttestationRegistry {
	ttl := cfg.KeyTtl
	if ttl <= 0 {
		ttl = infra.DefaultRegistryKeyTtl
	}
	return AttestationRegistry{store: store, keyTtl: ttl}
}

// IsConsumed reports whether the hash currently has a consumed record. It is
// advisory only: between this check and a Consume another process may win the
// race. The authoritative gate is the return value of Consume itself.
func (repo AttestationRegistry) IsConsumed(ctx context.Context, hash string) (bool, error) {
	_, err := repo.store.Get(ctx, attestationKeyPrefix+hash)
	if err != nil {
		if errors.Is(err, models.NotFoundError) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetConsumed returns the consumed record for a hash, or models.NotFoundError.
func (repo AttestationRegistry) GetConsumed(ctx context.Context, hash string) (models.ConsumedAttestationRecord, error) {
	raw, err := repo.store.Get(ctx, attestationKeyPrefix+hash)
	if err != nil {
		return models.ConsumedAttestationRecord{}, err
	}

	var record models.ConsumedAttestationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.ConsumedAttestationRecord{}, errors.Wrap(err, "corrupt consumed attestation record")
	}
	return record, nil
}

// Consume marks the hash as consumed, exactly once. When the record carries a
// nonce, the nonce is reserved first; a nonce reservation made in this call
// is rolled back if the hash turns out to be already consumed, so a failed
// attempt never permanently burns a nonce.
func (repo AttestationRegistry) Consume(ctx context.Context, hash string, record models.ConsumedAttestationRecord) error {
	logger := utils.LoggerFromContext(ctx)

	nonceReserved := false
	if record.Nonce.Valid && record.Nonce.String != "" {
		reservation, err := json.Marshal(models.NonceReservation{
			AttestationHash: hash,
			ReservedAt:      record.ConsumedAt,
		})
		if err != nil {
			return errors.Wrap(err, "could not serialize nonce reservation")
		}

		created, err := repo.store.CreateIfAbsent(ctx, nonceKeyPrefix+record.Nonce.String, reservation, repo.keyTtl)
		if err != nil {
			return err
		}
		if !created {
			return errors.Wrapf(models.ErrNonceAlreadyUsed, "nonce %s", record.Nonce.String)
		}
		nonceReserved = true
	}

	rollbackNonce := func() {
		if !nonceReserved {
			return
		}
		if delErr := repo.store.Delete(ctx, nonceKeyPrefix+record.Nonce.String); delErr != nil {
			logger.ErrorContext(ctx, "could not roll back nonce reservation",
				"nonce", record.Nonce.String, "error", delErr.Error())
		}
	}

	serialized, err := json.Marshal(record)
	if err != nil {
		rollbackNonce()
		return errors.Wrap(err, "could not serialize consumed attestation record")
	}

	created, err := repo.store.CreateIfAbsent(ctx, attestationKeyPrefix+hash, serialized, repo.keyTtl)
	if err != nil {
		rollbackNonce()
		return err
	}
	if !created {
		rollbackNonce()
		return errors.Wrapf(models.ErrAttestationAlreadyConsumed, "hash %s", hash)
	}

	return nil
}

// DecisionSummary renders the one-line human summary stored alongside a
// consumed attestation.
func DecisionSummary(decision models.Decision) string {
	return fmt.Sprintf("%s: %s -> %s, %+.2fpp (%s)",
		decision.ModelId, decision.BaselineRunId, decision.RunId,
		decision.DeltaPercentagePoints, decision.Reason)
}
