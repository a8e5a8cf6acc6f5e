package models

import (
	"time"
)

// Run is the view of one evaluation run as exposed by the run-tracking store.
// Tags and params are string maps; metrics hold the latest logged value.
type Run struct {
	RunId        string
	ExperimentId string
	StartTime    time.Time
	Tags         map[string]string
	Params       map[string]string
	Metrics      map[string]float64
}

// RunSearchQuery selects runs within a set of experiments. Filter uses the
// tracking store's filter syntax (e.g. `tags.deltaone.model_id = 'm1'`).
type RunSearchQuery struct {
	ExperimentIds []string
	Filter        string
	MaxResults    int
	OrderBy       []string
}
