package domain

import "context"

// TaskRepository is the abstraction for the funding task store. The funding
// service is the only writer, observers only read.
type TaskRepository interface {
	// ReplaceAllTasks drops any previous task set and stores the given one.
	// Called in bulk at the start of a run.
	ReplaceAllTasks(ctx context.Context, tasks []FundingTask) error
	// GetAllTasks returns the stored tasks in ordinal order.
	GetAllTasks(ctx context.Context) ([]FundingTask, error)
	// GetTask returns the task with the given id.
	GetTask(ctx context.Context, id string) (*FundingTask, error)
	// UpdateTask applies updateFn to the task with the given id and persists
	// the result.
	UpdateTask(
		ctx context.Context, id string,
		updateFn func(t *FundingTask) (*FundingTask, error),
	) error
	// CountByStatus returns the number of stored tasks per status.
	CountByStatus(ctx context.Context) (map[FundingTaskStatus]int, error)
}
