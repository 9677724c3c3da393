package cron

import "context"

// Job is a unit of scheduled work, such as the auction sweep or outbox
// retention. Run is invoked once per tick while the worker holds the lock.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker executes each tick, in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs. Nil
// entries are dropped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	registry.Register(jobs...)
	return registry
}

// Register appends jobs to the execution order, skipping nil entries.
func (r *Registry) Register(jobs ...Job) {
	for _, job := range jobs {
		if job != nil {
			r.jobs = append(r.jobs, job)
		}
	}
}

// Jobs returns a copy of the registered jobs so callers cannot reorder
// the schedule.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
