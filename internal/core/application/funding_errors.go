package application

import "errors"

var (
	// ErrMissingPrivacyPool ...
	ErrMissingPrivacyPool = errors.New("missing privacy pool client")
	// ErrMissingChainService ...
	ErrMissingChainService = errors.New("missing chain service")
	// ErrMissingSigner ...
	ErrMissingSigner = errors.New("missing transaction signer")
	// ErrMissingTaskRepository ...
	ErrMissingTaskRepository = errors.New("missing task repository")
	// ErrMissingBalancePoller ...
	ErrMissingBalancePoller = errors.New("missing balance poller")
	// ErrInvalidTreasuryAddress ...
	ErrInvalidTreasuryAddress = errors.New("treasury address is not a valid base58 public key")
	// ErrRunInProgress is thrown when starting a funding run while another one
	// is still executing.
	ErrRunInProgress = errors.New("a funding run is already in progress")
)
