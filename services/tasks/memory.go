package tasks

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
)

// MemoryEnqueuer records tasks in process and rejects repeated task ids like the broker does.
type MemoryEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	ids   map[string]struct{}
	Err   error // returned by every enqueue when set
}

func NewMemoryEnqueuer() *MemoryEnqueuer {
	return &MemoryEnqueuer{ids: make(map[string]struct{})}
}

func (m *MemoryEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	info := &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload(), Queue: QueueDefault}
	for _, opt := range opts {
		switch opt.Type() {
		case asynq.TaskIDOpt:
			id := opt.Value().(string)
			if _, seen := m.ids[id]; seen {
				return nil, asynq.ErrTaskIDConflict
			}
			m.ids[id] = struct{}{}
			info.ID = id
		case asynq.QueueOpt:
			info.Queue = opt.Value().(string)
		}
	}
	m.tasks = append(m.tasks, task)
	return info, nil
}

// Tasks returns the accepted tasks of the given type.
func (m *MemoryEnqueuer) Tasks(taskType string) []*asynq.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*asynq.Task
	for _, t := range m.tasks {
		if t.Type() == taskType {
			out = append(out, t)
		}
	}
	return out
}
