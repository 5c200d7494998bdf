package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
	"github.com/veilcash/veild/internal/core/domain"
)

type taskRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTaskRepositoryImpl returns a badger implementation of the
// domain.TaskRepository, persisting tasks under baseDbDir. An empty baseDbDir
// opens an in-memory badger instance.
func NewTaskRepositoryImpl(
	baseDbDir string, logger badger.Logger,
) (domain.TaskRepository, error) {
	var tasksDir string
	if len(baseDbDir) > 0 {
		tasksDir = filepath.Join(baseDbDir, "tasks")
	}

	store, err := createDb(tasksDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening tasks db: %w", err)
	}
	return &taskRepositoryImpl{store}, nil
}

func (r *taskRepositoryImpl) ReplaceAllTasks(
	ctx context.Context, tasks []domain.FundingTask,
) error {
	if err := r.store.DeleteMatching(
		&domain.FundingTask{}, &badgerhold.Query{},
	); err != nil {
		return err
	}
	for _, task := range tasks {
		if err := r.store.Insert(task.Id, &task); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepositoryImpl) GetAllTasks(
	ctx context.Context,
) ([]domain.FundingTask, error) {
	var tasks []domain.FundingTask
	query := (&badgerhold.Query{}).SortBy("Ordinal")
	if err := r.store.Find(&tasks, query); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepositoryImpl) GetTask(
	ctx context.Context, id string,
) (*domain.FundingTask, error) {
	var task domain.FundingTask
	if err := r.store.Get(id, &task); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepositoryImpl) UpdateTask(
	ctx context.Context, id string,
	updateFn func(t *domain.FundingTask) (*domain.FundingTask, error),
) error {
	task, err := r.GetTask(ctx, id)
	if err != nil {
		return err
	}

	updatedTask, err := updateFn(task)
	if err != nil {
		return err
	}

	return r.store.Update(id, updatedTask)
}

func (r *taskRepositoryImpl) CountByStatus(
	ctx context.Context,
) (map[domain.FundingTaskStatus]int, error) {
	tasks, err := r.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[domain.FundingTaskStatus]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
