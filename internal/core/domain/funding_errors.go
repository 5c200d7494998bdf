package domain

import "errors"

var (
	// ErrEmptyRecipients is thrown when starting a funding run without recipients
	ErrEmptyRecipients = errors.New("recipient list must not be empty")
	// ErrZeroAmount is thrown when the per-recipient amount is zero
	ErrZeroAmount = errors.New("amount per recipient must be greater than zero")
	// ErrTaskNotPending is thrown when trying to process a task that already left the pending status
	ErrTaskNotPending = errors.New("task must be pending to start processing")
	// ErrTaskNotProcessing is thrown when settling a task that is not being processed
	ErrTaskNotProcessing = errors.New("task must be processing to be settled")
	// ErrTaskNotFound ...
	ErrTaskNotFound = errors.New("task not found")
	// ErrRunNotIdle is thrown when starting a run that is already in progress or terminal
	ErrRunNotIdle = errors.New("funding run must be idle to be started")
	// ErrRunNotShieldable is thrown on an invalid transition to the shielding status
	ErrRunNotShieldable = errors.New("funding run must be idle to enter shielding")
	// ErrRunNotDistributable is thrown on an invalid transition to the distributing status
	ErrRunNotDistributable = errors.New("funding run must be idle or shielding to enter distributing")
	// ErrRunNotDistributing is thrown when completing a run that is not distributing
	ErrRunNotDistributing = errors.New("funding run must be distributing to be completed")
	// ErrRunNotTerminal is thrown when resetting a run that is still in progress
	ErrRunNotTerminal = errors.New("funding run must be completed or failed to be reset")
	// ErrRunTerminal is thrown when failing a run that already reached a terminal status
	ErrRunTerminal = errors.New("funding run already reached a terminal status")
	// ErrDuplicateWalletIndex is thrown when a wallet set contains two wallets with the same index
	ErrDuplicateWalletIndex = errors.New("wallet indexes must be unique within a wallet set")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
)
