package repositories

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/models"
)

// TrackingRepositoryFake is an in-memory run-tracking store for tests. Its
// filter support covers the subset this service emits: tag equality clauses
// joined with "and", ordered by a tag value.
type TrackingRepositoryFake struct {
	mu   sync.Mutex
	runs map[string]models.Run
}

func NewTrackingRepositoryFake(runs ...models.Run) *TrackingRepositoryFake {
	fake := &TrackingRepositoryFake{runs: make(map[string]models.Run)}
	for _, run := range runs {
		fake.AddRun(run)
	}
	return fake
}

func (fake *TrackingRepositoryFake) AddRun(run models.Run) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	if run.Tags == nil {
		run.Tags = make(map[string]string)
	}
	if run.Params == nil {
		run.Params = make(map[string]string)
	}
	if run.Metrics == nil {
		run.Metrics = make(map[string]float64)
	}
	fake.runs[run.RunId] = run
}

func (fake *TrackingRepositoryFake) GetRun(ctx context.Context, runId string) (models.Run, error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	run, ok := fake.runs[runId]
	if !ok {
		return models.Run{}, errors.Wrapf(models.NotFoundError, "run %s", runId)
	}
	return cloneRun(run), nil
}

var tagClauseRe = regexp.MustCompile("tags\\.`?([\\w.]+)`?\\s*=\\s*'([^']*)'")

func (fake *TrackingRepositoryFake) SearchRuns(ctx context.Context, query models.RunSearchQuery) ([]models.Run, error) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	clauses := tagClauseRe.FindAllStringSubmatch(query.Filter, -1)

	var matches []models.Run
	for _, run := range fake.runs {
		if len(query.ExperimentIds) > 0 && !slices.Contains(query.ExperimentIds, run.ExperimentId) {
			continue
		}
		matched := true
		for _, clause := range clauses {
			if run.Tags[clause[1]] != clause[2] {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, cloneRun(run))
		}
	}

	for _, orderBy := range query.OrderBy {
		if key, desc, ok := parseTagOrder(orderBy); ok {
			slices.SortStableFunc(matches, func(a, b models.Run) int {
				cmp := strings.Compare(a.Tags[key], b.Tags[key])
				if desc {
					return -cmp
				}
				return cmp
			})
		}
	}

	if query.MaxResults > 0 && len(matches) > query.MaxResults {
		matches = matches[:query.MaxResults]
	}
	return matches, nil
}

func (fake *TrackingRepositoryFake) SetTag(ctx context.Context, runId, key, value string) error {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	run, ok := fake.runs[runId]
	if !ok {
		return errors.Wrapf(models.NotFoundError, "run %s", runId)
	}
	run.Tags[key] = value
	return nil
}

func parseTagOrder(orderBy string) (key string, desc bool, ok bool) {
	fields := strings.Fields(orderBy)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "tags.") {
		return "", false, false
	}
	key = strings.Trim(strings.TrimPrefix(fields[0], "tags."), "`")
	desc = len(fields) > 1 && strings.EqualFold(fields[1], "DESC")
	return key, desc, true
}

func cloneRun(run models.Run) models.Run {
	out := run
	out.Tags = make(map[string]string, len(run.Tags))
	out.Params = make(map[string]string, len(run.Params))
	out.Metrics = make(map[string]float64, len(run.Metrics))
	for k, v := range run.Tags {
		out.Tags[k] = v
	}
	for k, v := range run.Params {
		out.Params[k] = v
	}
	for k, v := range run.Metrics {
		out.Metrics[k] = v
	}
	return out
}
