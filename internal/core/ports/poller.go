package ports

// BalancePoller is the lifecycle handle of the background balance polling
// process. The funding service pauses it for the duration of a run to avoid
// racing its own balance re-queries, and resumes it afterwards.
type BalancePoller interface {
	Pause()
	Resume()
	TriggerRefresh()
}

// FundingReply is a progress message streamed by the funding service while a
// run is executing.
type FundingReply interface {
	GetMessage() string
	GetError() error
}
