package workers

import "context"

// Workers aggregates background workers so the application shell can start
// them as one unit.
type Workers struct {
	workers []Worker
}

func NewWorkers(list ...Worker) *Workers {
	return &Workers{workers: list}
}

func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Run(ctx)
	}
}
