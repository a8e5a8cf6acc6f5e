package models

// DeltaOneEventType enumerates the fire-and-forget notifications emitted by
// the mint orchestrator. Delivery failures never fail the orchestration call.
type DeltaOneEventType string

const (
	EventModelImprovementAchieved DeltaOneEventType = "model_improvement_achieved"
	EventModelRewardMinted        DeltaOneEventType = "model_reward_minted"
)

type DeltaOneEvent struct {
	Id            string            `json:"id"`
	EventType     DeltaOneEventType `json:"event_type"`
	RunId         string            `json:"run_id"`
	BaselineRunId string            `json:"baseline_run_id"`
	ModelId       string            `json:"model_id"`
	DatasetHash   string            `json:"dataset_hash"`
	MetricName    string            `json:"metric_name"`
	Data          map[string]any    `json:"data,omitempty"`
}
