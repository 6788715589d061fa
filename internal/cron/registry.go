package cron

import (
	"context"
	"fmt"
)

// Job is one unit of scheduled work. Run must honour ctx cancellation.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in run order. Names are unique.
type Registry struct {
	jobs  []Job
	index map[string]int
}

// NewRegistry skips nil jobs and later duplicates of an already registered name.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		_ = r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	if _, dup := r.index[job.Name()]; dup {
		return fmt.Errorf("cron job %q already registered", job.Name())
	}
	r.index[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name()
	}
	return names
}

// Only narrows the registry to the named jobs, for manual one-off runs.
func (r *Registry) Only(names ...string) (*Registry, error) {
	narrowed := NewRegistry()
	for _, name := range names {
		i, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown cron job %q (have %v)", name, r.Names())
		}
		if err := narrowed.Register(r.jobs[i]); err != nil {
			return nil, err
		}
	}
	return narrowed, nil
}
