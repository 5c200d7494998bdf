package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/veilcash/veild/internal/core/domain"
)

type taskInmemoryStore struct {
	tasks  map[string]domain.FundingTask
	locker *sync.RWMutex
}

type TaskRepositoryImpl struct {
	store *taskInmemoryStore
}

// NewTaskRepositoryImpl returns a new empty in-memory TaskRepository.
func NewTaskRepositoryImpl() domain.TaskRepository {
	return TaskRepositoryImpl{
		store: &taskInmemoryStore{
			tasks:  map[string]domain.FundingTask{},
			locker: &sync.RWMutex{},
		},
	}
}

func (r TaskRepositoryImpl) ReplaceAllTasks(
	ctx context.Context, tasks []domain.FundingTask,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.tasks = make(map[string]domain.FundingTask, len(tasks))
	for _, t := range tasks {
		r.store.tasks[t.Id] = t
	}
	return nil
}

func (r TaskRepositoryImpl) GetAllTasks(
	ctx context.Context,
) ([]domain.FundingTask, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	tasks := make([]domain.FundingTask, 0, len(r.store.tasks))
	for _, t := range r.store.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Ordinal < tasks[j].Ordinal
	})
	return tasks, nil
}

func (r TaskRepositoryImpl) GetTask(
	ctx context.Context, id string,
) (*domain.FundingTask, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r TaskRepositoryImpl) UpdateTask(
	ctx context.Context, id string,
	updateFn func(t *domain.FundingTask) (*domain.FundingTask, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}

	updatedTask, err := updateFn(&task)
	if err != nil {
		return err
	}

	r.store.tasks[id] = *updatedTask
	return nil
}

func (r TaskRepositoryImpl) CountByStatus(
	ctx context.Context,
) (map[domain.FundingTaskStatus]int, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	counts := map[domain.FundingTaskStatus]int{}
	for _, t := range r.store.tasks {
		counts[t.Status]++
	}
	return counts, nil
}
