package models

// BenchmarkSpec identifies the currently active evaluation specification for
// a model, as served by the external benchmark spec resolver. An attestation
// built against an older spec or dataset version is superseded and must be
// regenerated.
type BenchmarkSpec struct {
	SpecId         string `json:"spec_id"`
	DatasetVersion string `json:"dataset_version"`
}
