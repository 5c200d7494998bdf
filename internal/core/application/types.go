package application

import "github.com/veilcash/veild/internal/core/domain"

// FundingReport is the aggregate outcome of a funding run. Individual task
// failures do not fail the run, they show up as a mixed SuccessCount/Total.
type FundingReport struct {
	RunId        string
	Status       domain.FundingRunStatus
	SuccessCount int
	Total        int
	Tasks        []domain.FundingTask
	FatalError   string
}

type fundingReply struct {
	msg string
	err error
}

func (r fundingReply) GetMessage() string {
	return r.msg
}

func (r fundingReply) GetError() error {
	return r.err
}
