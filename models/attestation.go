package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/guregu/null/v5"
)

// AttestationPayload carries the decision-identifying fields bound into one
// attestation. Hashing is pure: no I/O, no randomness. A nonce, when used, is
// generated once upstream and carried through so that the orchestrator and
// the offline evaluate command produce equal hashes for equal inputs.
type AttestationPayload struct {
	ModelId        string
	DatasetHash    string
	MetricName     string
	RunId          string
	BaselineRunId  string
	DeltaPP        float64
	SpecId         string
	DatasetVersion string
	Nonce          string
}

// CanonicalBytes serializes the payload as sorted-key, whitespace-free JSON.
// An empty nonce is omitted entirely rather than serialized as "".
func (p AttestationPayload) CanonicalBytes() ([]byte, error) {
	fields := map[string]any{
		"model_id":        p.ModelId,
		"dataset_hash":    p.DatasetHash,
		"metric_name":     p.MetricName,
		"run_id":          p.RunId,
		"baseline_run_id": p.BaselineRunId,
		"delta_pp":        p.DeltaPP,
		"spec_id":         p.SpecId,
		"dataset_version": p.DatasetVersion,
	}
	if p.Nonce != "" {
		fields["nonce"] = p.Nonce
	}

	// encoding/json sorts map keys, which gives us the canonical ordering
	return json.Marshal(fields)
}

// Hash returns the content-addressed identity of this payload: the lowercase
// hex SHA-256 of its canonical serialization. Identical logical inputs,
// nonce included, always yield the identical hash.
func (p AttestationPayload) Hash() (string, error) {
	raw, err := p.CanonicalBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ConsumedAttestationRecord is stored in the registry under the attestation
// hash by a successful Consume. It expires after the registry TTL, after
// which the hash is treated as never consumed.
type ConsumedAttestationRecord struct {
	MintAuditRef    string      `json:"mint_audit_ref"`
	ModelId         string      `json:"model_id"`
	ConsumedAt      time.Time   `json:"consumed_at"`
	DecisionSummary string      `json:"decision_summary"`
	Nonce           null.String `json:"nonce,omitzero"`
}

// NonceReservation is stored under the nonce key, pointing back at the hash
// that claimed it. It is rolled back when the paired hash reservation fails,
// so a failed Consume never permanently burns a nonce.
type NonceReservation struct {
	AttestationHash string    `json:"attestation_hash"`
	ReservedAt      time.Time `json:"reserved_at"`
}
