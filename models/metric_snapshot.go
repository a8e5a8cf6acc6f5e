package models

import (
	"regexp"
	"time"
)

var datasetHashRe = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// MetricSnapshot is the normalized performance-metric view of one evaluation
// run. Created fresh on every extraction, never persisted directly.
type MetricSnapshot struct {
	MetricName   string
	MetricValue  float64
	SampleSize   int
	DatasetHash  string
	Timestamp    time.Time
	RunId        string
	ModelId      string
	ExperimentId string
}

func ValidDatasetHash(hash string) bool {
	return datasetHashRe.MatchString(hash)
}
