package usecases

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/repositories"
	"github.com/deltaone/deltaone-backend/utils"
)

const (
	testDatasetHash  = "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	otherDatasetHash = "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

type EvaluationUsecaseTestSuite struct {
	suite.Suite
	tracking *repositories.TrackingRepositoryFake
	now      time.Time
	ctx      context.Context
}

func (suite *EvaluationUsecaseTestSuite) SetupTest() {
	suite.tracking = repositories.NewTrackingRepositoryFake()
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.ctx = utils.StoreLoggerInContext(context.Background(), utils.NewLogger("test"))
}

func (suite *EvaluationUsecaseTestSuite) makeUsecase(params models.EngineParams) EvaluationUsecase {
	suite.Require().NoError(params.Validate())
	return EvaluationUsecase{
		tracking: suite.tracking,
		params:   params,
		clock:    func() time.Time { return suite.now },
	}
}

func (suite *EvaluationUsecaseTestSuite) addRun(runId string, value float64, sampleSize int, datasetHash string) {
	suite.tracking.AddRun(models.Run{
		RunId:        runId,
		ExperimentId: "exp-1",
		StartTime:    suite.now.Add(-time.Hour),
		Tags: map[string]string{
			models.TagMetricName:  "accuracy",
			models.TagSampleSize:  strconv.Itoa(sampleSize),
			models.TagDatasetHash: datasetHash,
			models.TagModelId:     "model-1",
		},
		Metrics: map[string]float64{"accuracy": value},
	})
}

func defaultParams() models.EngineParams {
	return models.EngineParams{
		CooldownHours:    0,
		MinExamples:      100,
		DeltaThresholdPP: 1.0,
	}
}

func (suite *EvaluationUsecaseTestSuite) Test_InvalidParamsRejectedAtConstruction() {
	tts := []models.EngineParams{
		{CooldownHours: -1, MinExamples: 100, DeltaThresholdPP: 1},
		{CooldownHours: 0, MinExamples: 0, DeltaThresholdPP: 1},
		{CooldownHours: 0, MinExamples: 100, DeltaThresholdPP: -0.5},
	}
	for _, params := range tts {
		_, err := NewEvaluationUsecase(suite.tracking, params)
		suite.ErrorIs(err, models.BadParameterError)
	}
}

func (suite *EvaluationUsecaseTestSuite) Test_SignificantImprovementAccepted() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.87, 10_000, testDatasetHash)

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.True(decision.Accepted)
	suite.Equal(models.ReasonAccepted, decision.Reason)
	suite.InDelta(2.0, decision.DeltaPercentagePoints, 1e-9)
	suite.Greater(decision.CI95LowPP, 0.0)
	suite.Greater(decision.CI95HighPP, decision.CI95LowPP)
}

func (suite *EvaluationUsecaseTestSuite) Test_SmallSampleNotSignificant() {
	suite.addRun("baseline", 0.85, 800, testDatasetHash)
	suite.addRun("candidate", 0.852, 800, testDatasetHash)

	params := defaultParams()
	params.DeltaThresholdPP = 0.1

	decision, err := suite.makeUsecase(params).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.False(decision.Accepted)
	suite.Equal(models.ReasonNotStatisticallySignificant, decision.Reason)
	suite.Less(decision.CI95LowPP, 0.0)
	suite.Greater(decision.CI95HighPP, 0.0)
}

func (suite *EvaluationUsecaseTestSuite) Test_InsufficientSamples() {
	suite.addRun("baseline", 0.85, 50, testDatasetHash)
	suite.addRun("candidate", 0.90, 10_000, testDatasetHash)

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.False(decision.Accepted)
	suite.Equal(models.ReasonInsufficientSamples, decision.Reason)
}

func (suite *EvaluationUsecaseTestSuite) Test_DatasetHashMismatch() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.90, 10_000, otherDatasetHash)

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.Equal(models.ReasonDatasetHashMismatch, decision.Reason)
}

func (suite *EvaluationUsecaseTestSuite) Test_DeltaBelowThreshold() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.855, 10_000, testDatasetHash)

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.Equal(models.ReasonDeltaBelowThreshold, decision.Reason)
}

func (suite *EvaluationUsecaseTestSuite) addPriorEvaluation(runId string, evaluatedAt time.Time) {
	suite.tracking.AddRun(models.Run{
		RunId:        runId,
		ExperimentId: "exp-1",
		StartTime:    evaluatedAt,
		Tags: map[string]string{
			models.TagModelId:     "model-1",
			models.TagDatasetHash: testDatasetHash,
			models.TagEvaluatedAt: evaluatedAt.Format(time.RFC3339),
		},
	})
}

func (suite *EvaluationUsecaseTestSuite) Test_CooldownActive() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 10_000, testDatasetHash)
	suite.addPriorEvaluation("previous", suite.now.Add(-2*time.Hour))

	params := defaultParams()
	params.CooldownHours = 24

	decision, err := suite.makeUsecase(params).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.False(decision.Accepted)
	suite.True(strings.HasPrefix(string(decision.Reason), "cooldown_active"))
	suite.True(decision.Reason.IsCooldown())
}

func (suite *EvaluationUsecaseTestSuite) Test_CooldownElapsed() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 10_000, testDatasetHash)
	suite.addPriorEvaluation("previous", suite.now.Add(-48*time.Hour))

	params := defaultParams()
	params.CooldownHours = 24

	decision, err := suite.makeUsecase(params).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.True(decision.Accepted)
}

func (suite *EvaluationUsecaseTestSuite) Test_CooldownZeroSkipsLookup() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 10_000, testDatasetHash)
	suite.addPriorEvaluation("previous", suite.now.Add(-time.Minute))

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.True(decision.Accepted)
}

func (suite *EvaluationUsecaseTestSuite) Test_MalformedDatasetHashIsValidationFailure() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 10_000, "sha256:NOT-A-HASH")

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.ErrorIs(err, models.ErrInvalidDatasetHash)
}

func (suite *EvaluationUsecaseTestSuite) Test_MissingSampleSizeIsValidationFailure() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.tracking.AddRun(models.Run{
		RunId:        "candidate",
		ExperimentId: "exp-1",
		Tags: map[string]string{
			models.TagMetricName:  "accuracy",
			models.TagDatasetHash: testDatasetHash,
			models.TagModelId:     "model-1",
		},
		Metrics: map[string]float64{"accuracy": 0.89},
	})

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.ErrorIs(err, models.ErrInvalidSampleSize)
}

func (suite *EvaluationUsecaseTestSuite) Test_SampleSizeReadFromParams() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.tracking.AddRun(models.Run{
		RunId:        "candidate",
		ExperimentId: "exp-1",
		Tags: map[string]string{
			models.TagMetricName:  "accuracy",
			models.TagDatasetHash: testDatasetHash,
			models.TagModelId:     "model-1",
		},
		Params:  map[string]string{models.TagSampleSize: "10000"},
		Metrics: map[string]float64{"accuracy": 0.89},
	})

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)
	suite.True(decision.Accepted)
}

func (suite *EvaluationUsecaseTestSuite) Test_MetricInferredWhenSingleMetric() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.tracking.AddRun(models.Run{
		RunId:        "candidate",
		ExperimentId: "exp-1",
		Tags: map[string]string{
			models.TagSampleSize:  "10000",
			models.TagDatasetHash: testDatasetHash,
			models.TagModelId:     "model-1",
		},
		Metrics: map[string]float64{"accuracy": 0.89},
	})

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)
	suite.Equal("accuracy", decision.MetricName)
}

func (suite *EvaluationUsecaseTestSuite) Test_UnresolvableMetric() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.tracking.AddRun(models.Run{
		RunId:        "candidate",
		ExperimentId: "exp-1",
		Tags: map[string]string{
			models.TagSampleSize:  "10000",
			models.TagDatasetHash: testDatasetHash,
			models.TagModelId:     "model-1",
		},
		Metrics: map[string]float64{"accuracy": 0.89, "f1": 0.8},
	})

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.ErrorIs(err, models.ErrUnresolvableMetric)
}

func (suite *EvaluationUsecaseTestSuite) Test_NonProportionMetricFailsOutright() {
	suite.addRun("baseline", 12.5, 10_000, testDatasetHash)
	suite.addRun("candidate", 14.5, 10_000, testDatasetHash)

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.ErrorIs(err, models.ErrMetricNotProportion)
}

func (suite *EvaluationUsecaseTestSuite) Test_DecisionTagsPersistedOnRejection() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.855, 10_000, testDatasetHash)

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	run, err := suite.tracking.GetRun(suite.ctx, "candidate")
	suite.Require().NoError(err)
	suite.Equal("false", run.Tags[models.TagAccepted])
	suite.Equal(string(models.ReasonDeltaBelowThreshold), run.Tags[models.TagReason])
	suite.Equal("baseline", run.Tags[models.TagBaselineRunId])
	suite.NotEmpty(run.Tags[models.TagEvaluatedAt])
}

func (suite *EvaluationUsecaseTestSuite) Test_IdentityTagsPersisted() {
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 10_000, testDatasetHash)

	_, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	run, err := suite.tracking.GetRun(suite.ctx, "candidate")
	suite.Require().NoError(err)
	suite.Equal("model-1", run.Tags[models.TagModelId])
	suite.Equal(testDatasetHash, run.Tags[models.TagDatasetHash])
	suite.Equal("accuracy", run.Tags[models.TagMetricName])
}

func (suite *EvaluationUsecaseTestSuite) Test_CooldownSeesParamsSourcedRuns() {
	// A run whose identity lives in params gets the identity tags stamped at
	// evaluation time, so later cooldown lookups find it by tag filter.
	suite.addRun("baseline", 0.85, 10_000, testDatasetHash)
	suite.tracking.AddRun(models.Run{
		RunId:        "first",
		ExperimentId: "exp-1",
		Tags:         map[string]string{models.TagMetricName: "accuracy"},
		Params: map[string]string{
			models.TagModelId:     "model-1",
			models.TagDatasetHash: testDatasetHash,
			models.TagSampleSize:  "10000",
		},
		Metrics: map[string]float64{"accuracy": 0.89},
	})
	suite.addRun("second", 0.90, 10_000, testDatasetHash)

	params := defaultParams()
	params.CooldownHours = 24
	usecase := suite.makeUsecase(params)

	first, err := usecase.Evaluate(suite.ctx, "first", "baseline")
	suite.Require().NoError(err)
	suite.True(first.Accepted)

	second, err := usecase.Evaluate(suite.ctx, "second", "baseline")
	suite.Require().NoError(err)
	suite.False(second.Accepted)
	suite.True(second.Reason.IsCooldown())
}

func (suite *EvaluationUsecaseTestSuite) Test_RepeatedEvaluationOverwritesTags() {
	suite.addRun("baseline", 0.86, 12_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 12_000, testDatasetHash)

	usecase := suite.makeUsecase(defaultParams())

	first, err := usecase.Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)
	second, err := usecase.Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.Equal(first.Reason, second.Reason)

	run, err := suite.tracking.GetRun(suite.ctx, "candidate")
	suite.Require().NoError(err)
	suite.Equal("true", run.Tags[models.TagAccepted])
}

func (suite *EvaluationUsecaseTestSuite) Test_EndToEndAcceptance() {
	suite.addRun("baseline", 0.86, 12_000, testDatasetHash)
	suite.addRun("candidate", 0.89, 12_000, testDatasetHash)

	decision, err := suite.makeUsecase(defaultParams()).Evaluate(suite.ctx, "candidate", "baseline")
	suite.Require().NoError(err)

	suite.True(decision.Accepted)
	suite.InDelta(3.0, decision.DeltaPercentagePoints, 1e-9)
	suite.Equal(12_000, decision.NCurrent)
	suite.Equal(12_000, decision.NBaseline)
	suite.Equal("model-1", decision.ModelId)
	suite.Equal(testDatasetHash, decision.DatasetHash)
}

func TestEvaluationUsecase(t *testing.T) {
	suite.Run(t, new(EvaluationUsecaseTestSuite))
}
