package cron

import (
	"context"
	"fmt"
	"slices"
)

// Job is one housekeeping task run on every cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs by name, in registration order.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry skips nil jobs so optional ones can be passed through, and
// rejects two jobs sharing a name since names key metrics and -job selection.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		name := job.Name()
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("cron: job %q registered twice", name)
		}
		r.byName[name] = job
		r.order = append(r.order, name)
	}
	return r, nil
}

func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Select returns the named jobs in registration order, or every job when names is empty.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		names = r.order
	}
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("cron: unknown job %q (have %v)", name, r.order)
		}
	}
	jobs := make([]Job, 0, len(names))
	for _, name := range r.order {
		if slices.Contains(names, name) {
			jobs = append(jobs, r.byName[name])
		}
	}
	return jobs, nil
}
