package domain

import (
	"time"

	"github.com/google/uuid"
)

// FundingTaskStatus represents the different statuses that a funding task can
// assume. Transitions are monotonic, a task never re-enters Pending.
type FundingTaskStatus int

const (
	// FundingTaskStatusPending is the status of a task not yet attempted.
	FundingTaskStatusPending FundingTaskStatus = iota
	// FundingTaskStatusProcessing is the status of the task whose withdrawal
	// is currently in flight.
	FundingTaskStatusProcessing
	// FundingTaskStatusSucceeded is the terminal status of a task whose
	// withdrawal confirmed.
	FundingTaskStatusSucceeded
	// FundingTaskStatusFailed is the terminal status of a task whose
	// withdrawal returned an error.
	FundingTaskStatusFailed
)

func (s FundingTaskStatus) String() string {
	switch s {
	case FundingTaskStatusPending:
		return "pending"
	case FundingTaskStatusProcessing:
		return "processing"
	case FundingTaskStatusSucceeded:
		return "succeeded"
	case FundingTaskStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FundingTask is the data structure representing a single private withdrawal
// towards one recipient wallet within a funding run.
type FundingTask struct {
	Id               string
	Ordinal          int
	RecipientIndex   uint32
	RecipientAddress string
	GrossAmount      uint64
	Status           FundingTaskStatus
	TxSignature      string
	ErrorDetail      string
	Timestamp        int64
}

// NewFundingTask returns a pending task with a new id. The ordinal records
// the selection order of the recipient and drives the attempt order.
func NewFundingTask(
	ordinal int, recipientIndex uint32, recipientAddress string,
	grossAmount uint64,
) FundingTask {
	return FundingTask{
		Id:               uuid.New().String(),
		Ordinal:          ordinal,
		RecipientIndex:   recipientIndex,
		RecipientAddress: recipientAddress,
		GrossAmount:      grossAmount,
		Status:           FundingTaskStatusPending,
		Timestamp:        time.Now().Unix(),
	}
}

// Process brings a task from Pending to Processing.
func (t *FundingTask) Process() error {
	if t.Status != FundingTaskStatusPending {
		return ErrTaskNotPending
	}
	t.Status = FundingTaskStatusProcessing
	return nil
}

// Succeed brings a task from Processing to Succeeded, storing the signature
// of the withdrawal transaction.
func (t *FundingTask) Succeed(txSignature string) error {
	if t.Status != FundingTaskStatusProcessing {
		return ErrTaskNotProcessing
	}
	t.Status = FundingTaskStatusSucceeded
	t.TxSignature = txSignature
	return nil
}

// Fail brings a task from Processing to Failed, storing the failure detail.
func (t *FundingTask) Fail(detail string) error {
	if t.Status != FundingTaskStatusProcessing {
		return ErrTaskNotProcessing
	}
	t.Status = FundingTaskStatusFailed
	t.ErrorDetail = detail
	return nil
}

// IsTerminal returns whether the task reached Succeeded or Failed.
func (t *FundingTask) IsTerminal() bool {
	return t.Status == FundingTaskStatusSucceeded ||
		t.Status == FundingTaskStatusFailed
}
