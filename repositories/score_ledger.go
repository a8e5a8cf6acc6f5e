package repositories

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/models"
)

const (
	transitionsKeyPrefix  = "deltaone:transitions:"
	currentScoreKeyPrefix = "deltaone:score:"
)

// ScoreLedger is the append-only audit trail of accepted score transitions,
// plus one running current-score scalar per model. The transition log and the
// scalar are written in a single atomic batch so they never diverge for one
// call. The ledger performs no replay protection; it trusts the orchestrator
// to call RecordTransition at most once per accepted decision.
type ScoreLedger struct {
	store KvStore
}

func NewScoreLedger(store KvStore) ScoreLedger {
	return ScoreLedger{store: store}
}

// CurrentScore returns the model's running score, 0.0 when never set.
func (repo ScoreLedger) CurrentScore(ctx context.Context, modelId string) (float64, error) {
	raw, err := repo.store.Get(ctx, currentScoreKeyPrefix+modelId)
	if err != nil {
		if errors.Is(err, models.NotFoundError) {
			return 0.0, nil
		}
		return 0, err
	}

	score, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "corrupt current score for model %s", modelId)
	}
	return score, nil
}

// RecordTransition computes the model's next score from its current one and
// appends the completed transition, returning it with FromScore and ToScore
// filled in.
func (repo ScoreLedger) RecordTransition(ctx context.Context, transition models.ScoreTransition) (models.ScoreTransition, error) {
	current, err := repo.CurrentScore(ctx, transition.ModelId)
	if err != nil {
		return models.ScoreTransition{}, err
	}

	transition.FromScore = current
	transition.ToScore = current + transition.DeltaPercentagePoints

	serialized, err := json.Marshal(transition)
	if err != nil {
		return models.ScoreTransition{}, errors.Wrap(err, "could not serialize score transition")
	}

	err = repo.store.Batch(ctx, func(b KvBatch) {
		b.Append(transitionsKeyPrefix+transition.ModelId, serialized)
		b.Set(currentScoreKeyPrefix+transition.ModelId,
			[]byte(strconv.FormatFloat(transition.ToScore, 'f', -1, 64)))
	})
	if err != nil {
		return models.ScoreTransition{}, err
	}

	return transition, nil
}

// ListTransitions returns the model's full transition log in recorded order.
func (repo ScoreLedger) ListTransitions(ctx context.Context, modelId string) ([]models.ScoreTransition, error) {
	entries, err := repo.store.List(ctx, transitionsKeyPrefix+modelId)
	if err != nil {
		return nil, err
	}

	transitions := make([]models.ScoreTransition, len(entries))
	for i, entry := range entries {
		if err := json.Unmarshal(entry, &transitions[i]); err != nil {
			return nil, errors.Wrapf(err, "corrupt score transition for model %s", modelId)
		}
	}
	return transitions, nil
}
