package usecases

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/utils"
)

const (
	// critical value of the normal distribution for a two-sided 95% interval
	z95 = 1.96

	cooldownSearchMaxResults = 50
)

type EvaluationTrackingRepository interface {
	GetRun(ctx context.Context, runId string) (models.Run, error)
	SearchRuns(ctx context.Context, query models.RunSearchQuery) ([]models.Run, error)
	SetTag(ctx context.Context, runId, key, value string) error
}

// EvaluationUsecase is the statistical decision engine: it compares a
// candidate run against a baseline run and produces an accept/reject decision
// with a machine-checkable reason. Engine parameters are validated at
// construction and immutable afterwards; reconstruct rather than mutate.
type EvaluationUsecase struct {
	tracking EvaluationTrackingRepository
	params   models.EngineParams
	clock    func() time.Time
}

func NewEvaluationUsecase(tracking EvaluationTrackingRepository, params models.EngineParams) (EvaluationUsecase, error) {
	if err := params.Validate(); err != nil {
		return EvaluationUsecase{}, err
	}
	return EvaluationUsecase{
		tracking: tracking,
		params:   params,
		clock:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// snapshotFromRun extracts the normalized metric view of one run. The primary
// metric comes from an explicit tag, or is inferred only when the run has
// exactly one numeric metric. Sample size and dataset hash are read from tags
// first, params second; malformed values are validation failures, never
// rejection reasons.
func (u EvaluationUsecase) snapshotFromRun(run models.Run) (models.MetricSnapshot, error) {
	metricName := run.Tags[models.TagMetricName]
	if metricName == "" {
		if len(run.Metrics) != 1 {
			return models.MetricSnapshot{}, errors.Wrapf(models.ErrUnresolvableMetric,
				"run %s has %d metrics and no metric name tag", run.RunId, len(run.Metrics))
		}
		for name := range run.Metrics {
			metricName = name
		}
	}

	metricValue, ok := run.Metrics[metricName]
	if !ok {
		return models.MetricSnapshot{}, errors.Wrapf(models.BadParameterError,
			"metric %s not found on run %s", metricName, run.RunId)
	}

	rawSampleSize := tagOrParam(run, models.TagSampleSize)
	sampleSize, err := strconv.Atoi(rawSampleSize)
	if err != nil || sampleSize < 1 {
		return models.MetricSnapshot{}, errors.Wrapf(models.ErrInvalidSampleSize,
			"run %s: %q", run.RunId, rawSampleSize)
	}

	datasetHash := tagOrParam(run, models.TagDatasetHash)
	if !models.ValidDatasetHash(datasetHash) {
		return models.MetricSnapshot{}, errors.Wrapf(models.ErrInvalidDatasetHash,
			"run %s: %q", run.RunId, datasetHash)
	}

	modelId := tagOrParam(run, models.TagModelId)
	if modelId == "" {
		return models.MetricSnapshot{}, errors.Wrapf(models.BadParameterError,
			"run %s is missing the %s tag", run.RunId, models.TagModelId)
	}

	return models.MetricSnapshot{
		MetricName:   metricName,
		MetricValue:  metricValue,
		SampleSize:   sampleSize,
		DatasetHash:  datasetHash,
		Timestamp:    run.StartTime,
		RunId:        run.RunId,
		ModelId:      modelId,
		ExperimentId: run.ExperimentId,
	}, nil
}

func tagOrParam(run models.Run, key string) string {
	if value, ok := run.Tags[key]; ok {
		return value
	}
	return run.Params[key]
}

// Evaluate compares the candidate run against the baseline run. The decision
// is always produced and always persisted as audit tags on the candidate run,
// accepted or not. Repeated identical calls overwrite the same tags.
func (u EvaluationUsecase) Evaluate(ctx context.Context, runId, baselineRunId string) (models.Decision, error) {
	logger := utils.LoggerFromContext(ctx)

	candidateRun, err := u.tracking.GetRun(ctx, runId)
	if err != nil {
		return models.Decision{}, err
	}
	baselineRun, err := u.tracking.GetRun(ctx, baselineRunId)
	if err != nil {
		return models.Decision{}, err
	}

	candidate, err := u.snapshotFromRun(candidateRun)
	if err != nil {
		return models.Decision{}, err
	}
	baseline, err := u.snapshotFromRun(baselineRun)
	if err != nil {
		return models.Decision{}, err
	}

	logger.InfoContext(ctx, "deltaone_evaluation_started",
		"run_id", runId,
		"baseline_run_id", baselineRunId,
		"model_id", candidate.ModelId,
		"metric_name", candidate.MetricName,
	)

	now := u.clock()
	decision := models.Decision{
		RunId:                 runId,
		BaselineRunId:         baselineRunId,
		ModelId:               candidate.ModelId,
		DatasetHash:           candidate.DatasetHash,
		MetricName:            candidate.MetricName,
		DeltaPercentagePoints: (candidate.MetricValue - baseline.MetricValue) * 100,
		NCurrent:              candidate.SampleSize,
		NBaseline:             baseline.SampleSize,
		EvaluatedAt:           now,
	}

	reason, err := u.decide(ctx, &decision, candidate, baseline, now)
	if err != nil {
		return models.Decision{}, err
	}
	decision.Reason = reason
	decision.Accepted = reason == models.ReasonAccepted

	if err := u.persistDecisionTags(ctx, decision); err != nil {
		return models.Decision{}, err
	}

	if decision.Accepted {
		logger.InfoContext(ctx, "deltaone_evaluation_accepted",
			"run_id", runId,
			"model_id", decision.ModelId,
			"delta_pp", decision.DeltaPercentagePoints,
			"ci95_low_pp", decision.CI95LowPP,
			"ci95_high_pp", decision.CI95HighPP,
		)
	} else {
		logger.InfoContext(ctx, "deltaone_evaluation_rejected",
			"run_id", runId,
			"model_id", decision.ModelId,
			"reason", string(decision.Reason),
		)
	}

	return decision, nil
}

// decide applies the rejection checks in their fixed, short-circuiting order.
func (u EvaluationUsecase) decide(
	ctx context.Context,
	decision *models.Decision,
	candidate, baseline models.MetricSnapshot,
	now time.Time,
) (models.DecisionReason, error) {
	if candidate.SampleSize < u.params.MinExamples || baseline.SampleSize < u.params.MinExamples {
		return models.ReasonInsufficientSamples, nil
	}

	if candidate.DatasetHash != baseline.DatasetHash {
		return models.ReasonDatasetHashMismatch, nil
	}

	if u.params.CooldownHours > 0 {
		lastEval, found, err := u.lastEvaluationTime(ctx, candidate)
		if err != nil {
			return "", err
		}
		if found {
			cooldownEnd := lastEval.Add(time.Duration(u.params.CooldownHours * float64(time.Hour)))
			if now.Before(cooldownEnd) {
				return models.CooldownReason(cooldownEnd), nil
			}
		}
	}

	if decision.DeltaPercentagePoints < u.params.DeltaThresholdPP {
		return models.ReasonDeltaBelowThreshold, nil
	}

	ciLow, ciHigh, err := confidenceInterval(candidate, baseline, decision.DeltaPercentagePoints)
	if err != nil {
		return "", err
	}
	decision.CI95LowPP = ciLow
	decision.CI95HighPP = ciHigh

	if ciLow <= 0 {
		return models.ReasonNotStatisticallySignificant, nil
	}
	return models.ReasonAccepted, nil
}

// lastEvaluationTime finds the most recent prior decision against the same
// model and dataset within the candidate's experiment, excluding the
// candidate run itself. Cooldown is a best-effort anti-spam heuristic: two
// concurrent evaluations can both pass this check, and the replay check at
// mint time remains the real backstop against double rewards.
func (u EvaluationUsecase) lastEvaluationTime(ctx context.Context, candidate models.MetricSnapshot) (time.Time, bool, error) {
	runs, err := u.tracking.SearchRuns(ctx, models.RunSearchQuery{
		ExperimentIds: []string{candidate.ExperimentId},
		Filter: fmt.Sprintf("tags.`%s` = '%s' and tags.`%s` = '%s'",
			models.TagModelId, candidate.ModelId,
			models.TagDatasetHash, candidate.DatasetHash),
		MaxResults: cooldownSearchMaxResults,
		OrderBy:    []string{fmt.Sprintf("tags.`%s` DESC", models.TagEvaluatedAt)},
	})
	if err != nil {
		return time.Time{}, false, err
	}

	for _, run := range runs {
		if run.RunId == candidate.RunId {
			continue
		}
		evaluatedAt, err := time.Parse(time.RFC3339, run.Tags[models.TagEvaluatedAt])
		if err != nil {
			continue
		}
		return evaluatedAt, true, nil
	}
	return time.Time{}, false, nil
}

// confidenceInterval computes the 95% interval of the delta, in percentage
// points, using the two-proportion normal approximation. Only valid for
// metrics that are proportions in [0,1].
func confidenceInterval(candidate, baseline models.MetricSnapshot, deltaPP float64) (float64, float64, error) {
	for _, snapshot := range []models.MetricSnapshot{candidate, baseline} {
		if snapshot.MetricValue < 0 || snapshot.MetricValue > 1 {
			return 0, 0, errors.Wrapf(models.ErrMetricNotProportion,
				"run %s has metric value %f", snapshot.RunId, snapshot.MetricValue)
		}
	}

	seCandidate := standardError(candidate.MetricValue, candidate.SampleSize)
	seBaseline := standardError(baseline.MetricValue, baseline.SampleSize)
	combined := math.Sqrt(seCandidate*seCandidate + seBaseline*seBaseline)
	margin := z95 * combined * 100

	return deltaPP - margin, deltaPP + margin, nil
}

func standardError(p float64, n int) float64 {
	return math.Sqrt(p * (1 - p) / float64(n))
}

// persistDecisionTags writes the fixed audit tag set on the candidate run so
// external tooling can reconstruct the decision without calling back into
// this service. Tag writes overwrite, making repeated identical evaluations
// idempotent.
func (u EvaluationUsecase) persistDecisionTags(ctx context.Context, decision models.Decision) error {
	tags := map[string]string{
		models.TagModelId:       decision.ModelId,
		models.TagDatasetHash:   decision.DatasetHash,
		models.TagMetricName:    decision.MetricName,
		models.TagAccepted:      strconv.FormatBool(decision.Accepted),
		models.TagReason:        string(decision.Reason),
		models.TagDeltaPP:       formatFloatTag(decision.DeltaPercentagePoints),
		models.TagCI95LowPP:     formatFloatTag(decision.CI95LowPP),
		models.TagCI95HighPP:    formatFloatTag(decision.CI95HighPP),
		models.TagNCurrent:      strconv.Itoa(decision.NCurrent),
		models.TagNBaseline:     strconv.Itoa(decision.NBaseline),
		models.TagBaselineRunId: decision.BaselineRunId,
		models.TagEvaluatedAt:   decision.EvaluatedAt.UTC().Format(time.RFC3339),
	}

	for key, value := range tags {
		if err := u.tracking.SetTag(ctx, decision.RunId, key, value); err != nil {
			return errors.Wrapf(err, "could not persist decision tag %s on run %s", key, decision.RunId)
		}
	}
	return nil
}

func formatFloatTag(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
