package domain

import (
	"time"

	"github.com/google/uuid"
)

// FundingRunStatus represents the coarse state machine of a whole funding
// operation.
type FundingRunStatus int

const (
	// FundingRunStatusIdle is the status of a run not yet started or reset.
	FundingRunStatusIdle FundingRunStatus = iota
	// FundingRunStatusShielding is the status of a run topping up the
	// shielded balance.
	FundingRunStatusShielding
	// FundingRunStatusDistributing is the status of a run performing the
	// per-recipient withdrawals.
	FundingRunStatusDistributing
	// FundingRunStatusCompleted is the terminal status of a run that finished
	// without a fatal error. Individual tasks may still have failed.
	FundingRunStatusCompleted
	// FundingRunStatusFailed is the terminal status of a run aborted by a
	// fatal error.
	FundingRunStatusFailed
)

func (s FundingRunStatus) String() string {
	switch s {
	case FundingRunStatusIdle:
		return "idle"
	case FundingRunStatusShielding:
		return "shielding"
	case FundingRunStatusDistributing:
		return "distributing"
	case FundingRunStatusCompleted:
		return "completed"
	case FundingRunStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FundingRun is the aggregate of a single user-initiated funding operation.
// The run owns its tasks for its whole lifetime, a retry creates a new run
// with new tasks rather than mutating terminal ones.
type FundingRun struct {
	Id           string
	Status       FundingRunStatus
	Tasks        []FundingTask
	FatalError   string
	CreationTime int64
	EndTime      int64
}

// NewFundingRun returns an idle run with a new id and no tasks.
func NewFundingRun() *FundingRun {
	return &FundingRun{
		Id:           uuid.New().String(),
		Status:       FundingRunStatusIdle,
		CreationTime: time.Now().Unix(),
	}
}

// StartShielding brings an idle run to the Shielding status.
func (r *FundingRun) StartShielding() error {
	if r.Status != FundingRunStatusIdle {
		return ErrRunNotShieldable
	}
	r.Status = FundingRunStatusShielding
	return nil
}

// StartDistributing brings a run to the Distributing status, either from
// Idle when no shielding top-up is needed, or from Shielding.
func (r *FundingRun) StartDistributing() error {
	if r.Status != FundingRunStatusIdle && r.Status != FundingRunStatusShielding {
		return ErrRunNotDistributable
	}
	r.Status = FundingRunStatusDistributing
	return nil
}

// Complete brings a distributing run to the Completed terminal status.
// Per-task failures do not prevent completion.
func (r *FundingRun) Complete() error {
	if r.Status != FundingRunStatusDistributing {
		return ErrRunNotDistributing
	}
	r.Status = FundingRunStatusCompleted
	r.EndTime = time.Now().Unix()
	return nil
}

// Fail brings a non-terminal run to the Failed terminal status, recording
// the fatal error. Tasks already succeeded keep their status.
func (r *FundingRun) Fail(detail string) error {
	if r.IsTerminal() {
		return ErrRunTerminal
	}
	r.Status = FundingRunStatusFailed
	r.FatalError = detail
	r.EndTime = time.Now().Unix()
	return nil
}

// Reset brings a terminal run back to Idle, dropping its tasks.
func (r *FundingRun) Reset() error {
	if !r.IsTerminal() {
		return ErrRunNotTerminal
	}
	r.Status = FundingRunStatusIdle
	r.Tasks = nil
	r.FatalError = ""
	r.EndTime = 0
	return nil
}

// IsTerminal returns whether the run reached Completed or Failed.
func (r *FundingRun) IsTerminal() bool {
	return r.Status == FundingRunStatusCompleted ||
		r.Status == FundingRunStatusFailed
}

// SuccessCount returns the number of tasks that succeeded so far.
func (r *FundingRun) SuccessCount() int {
	count := 0
	for i := range r.Tasks {
		if r.Tasks[i].Status == FundingTaskStatusSucceeded {
			count++
		}
	}
	return count
}
