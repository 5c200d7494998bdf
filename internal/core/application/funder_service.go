package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"github.com/veilcash/veild/internal/core/domain"
	"github.com/veilcash/veild/internal/core/ports"
	"github.com/veilcash/veild/pkg/feemodel"
	"go.uber.org/ratelimit"
)

const defaultTasksPerMinute = 30

// FunderServiceOpts defines the parameters needed for creating a funder
// service with NewFunderService.
type FunderServiceOpts struct {
	PrivacyPool    ports.PrivacyPool
	ChainService   ports.ChainService
	TxSigner       ports.TransactionSigner
	TaskRepository domain.TaskRepository
	BalancePoller  ports.BalancePoller

	TreasuryAddress       string
	ProtocolFeeBasisPoint uint64
	WithdrawFeeBasisPoint uint64
	WithdrawRentLamports  uint64

	// TasksPerMinute paces the withdrawals so the external relay is not
	// overwhelmed, zero selects the default.
	TasksPerMinute int
	// Pacer overrides the rate limiter entirely when set.
	Pacer ratelimit.Limiter
}

// FunderService drives a funding run: it optionally tops up the shielded
// balance, then performs one private withdrawal per recipient, one at a
// time, tracking per-task state in the repository.
type FunderService struct {
	pool     ports.PrivacyPool
	chainSvc ports.ChainService
	txSigner ports.TransactionSigner
	taskRepo domain.TaskRepository
	poller   ports.BalancePoller

	treasuryAddress string
	protocolFeeBP   uint64
	withdrawFeeBP   uint64
	withdrawRent    uint64

	pacer ratelimit.Limiter

	run     *domain.FundingRun
	running bool
	aborted bool
	mtx     sync.Mutex
}

// NewFunderService returns a funder service after validating its
// collaborators and configuration.
func NewFunderService(opts FunderServiceOpts) (*FunderService, error) {
	if opts.PrivacyPool == nil {
		return nil, ErrMissingPrivacyPool
	}
	if opts.ChainService == nil {
		return nil, ErrMissingChainService
	}
	if opts.TxSigner == nil {
		return nil, ErrMissingSigner
	}
	if opts.TaskRepository == nil {
		return nil, ErrMissingTaskRepository
	}
	if opts.BalancePoller == nil {
		return nil, ErrMissingBalancePoller
	}
	if _, err := solana.PublicKeyFromBase58(opts.TreasuryAddress); err != nil {
		return nil, ErrInvalidTreasuryAddress
	}

	pacer := opts.Pacer
	if pacer == nil {
		tasksPerMinute := opts.TasksPerMinute
		if tasksPerMinute <= 0 {
			tasksPerMinute = defaultTasksPerMinute
		}
		pacer = ratelimit.New(tasksPerMinute, ratelimit.Per(time.Minute))
	}

	return &FunderService{
		pool:            opts.PrivacyPool,
		chainSvc:        opts.ChainService,
		txSigner:        opts.TxSigner,
		taskRepo:        opts.TaskRepository,
		poller:          opts.BalancePoller,
		treasuryAddress: opts.TreasuryAddress,
		protocolFeeBP:   opts.ProtocolFeeBasisPoint,
		withdrawFeeBP:   opts.WithdrawFeeBasisPoint,
		withdrawRent:    opts.WithdrawRentLamports,
		pacer:           pacer,
		run:             domain.NewFundingRun(),
	}, nil
}

// Fund executes one funding run towards the given recipients, amountPerWallet
// lamports each. Progress is streamed on chRes when non-nil, the channel is
// closed when the run ends. Fatal errors (credential rejection, protocol fee
// transfer failure, deposit failure) abort the run, per-withdrawal failures
// are recorded on their task and the run continues.
func (s *FunderService) Fund(
	ctx context.Context,
	recipients []domain.DerivedWallet, amountPerWallet uint64,
	chRes chan ports.FundingReply,
) (*FundingReport, error) {
	if chRes != nil {
		defer close(chRes)
	}

	// Preconditions are checked before any state transition, the run never
	// leaves idle on a rejected request.
	if len(recipients) == 0 {
		return nil, domain.ErrEmptyRecipients
	}
	if amountPerWallet == 0 {
		return nil, domain.ErrZeroAmount
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	s.poller.Pause()
	defer func() {
		s.poller.Resume()
		s.poller.TriggerRefresh()
	}()

	if err := s.pool.EnsureInitialized(ctx); err != nil {
		return s.failRun(chRes, fmt.Errorf("account initialization failed: %w", err))
	}

	s.reply(chRes, "fetching shielded balance")
	shieldedBalance, err := s.pool.GetBalance(ctx)
	if err != nil {
		return s.failRun(chRes, fmt.Errorf("failed to fetch shielded balance: %w", err))
	}

	totalWithFees := feemodel.TotalWithFees(
		amountPerWallet, len(recipients), s.withdrawFeeBP, s.withdrawRent,
	)
	amountToShield := feemodel.ShieldingNeed(totalWithFees, shieldedBalance)

	tasks := s.buildTasks(recipients, amountPerWallet)
	if err := s.taskRepo.ReplaceAllTasks(ctx, tasks); err != nil {
		return s.failRun(chRes, fmt.Errorf("failed to store tasks: %w", err))
	}
	s.run.Tasks = tasks

	if amountToShield > 0 {
		if err := s.shield(ctx, amountToShield, chRes); err != nil {
			return s.failRun(chRes, err)
		}
		if balance, err := s.pool.GetBalance(ctx); err == nil {
			log.WithField("lamports", balance).Debug("shielded balance after top-up")
		}
	}

	if err := s.run.StartDistributing(); err != nil {
		return s.failRun(chRes, err)
	}
	s.distribute(ctx, chRes)

	if err := s.run.Complete(); err != nil {
		return s.failRun(chRes, err)
	}

	report := s.buildReport(ctx)
	s.reply(chRes, fmt.Sprintf(
		"funding run completed: %d/%d recipients funded",
		report.SuccessCount, report.Total,
	))
	return report, nil
}

// Unshield performs a single private withdrawal of netAmount lamports to the
// given recipient, outside of any funding run.
func (s *FunderService) Unshield(
	ctx context.Context, recipient string, netAmount uint64,
) (string, error) {
	if netAmount == 0 {
		return "", domain.ErrZeroAmount
	}

	if err := s.pool.EnsureInitialized(ctx); err != nil {
		return "", fmt.Errorf("account initialization failed: %w", err)
	}

	s.poller.Pause()
	defer func() {
		s.poller.Resume()
		s.poller.TriggerRefresh()
	}()

	gross, _ := feemodel.WithdrawalGross(netAmount, s.withdrawFeeBP, s.withdrawRent)
	sig, err := s.pool.Withdraw(ctx, gross, recipient)
	if err != nil {
		return "", fmt.Errorf("withdrawal failed: %w", err)
	}

	log.WithField("recipient", recipient).WithField("signature", sig).
		Info("unshielded funds")
	return sig, nil
}

// Abort requests a cooperative stop of the current run. It is honored
// between tasks only, a withdrawal already in flight runs to completion or
// failure.
func (s *FunderService) Abort() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.running {
		s.aborted = true
	}
}

// Reset brings a terminal run back to idle so a new one can be started.
func (s *FunderService) Reset() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.running {
		return ErrRunInProgress
	}
	return s.run.Reset()
}

// CurrentRun returns a copy of the run aggregate.
func (s *FunderService) CurrentRun() domain.FundingRun {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return *s.run
}

func (s *FunderService) begin() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.running {
		return ErrRunInProgress
	}
	if s.run.IsTerminal() {
		s.run = domain.NewFundingRun()
	}
	if s.run.Status != domain.FundingRunStatusIdle {
		return domain.ErrRunNotIdle
	}
	s.running = true
	s.aborted = false
	return nil
}

func (s *FunderService) end() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.running = false
}

func (s *FunderService) isAborted() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.aborted
}

func (s *FunderService) buildTasks(
	recipients []domain.DerivedWallet, amountPerWallet uint64,
) []domain.FundingTask {
	tasks := make([]domain.FundingTask, 0, len(recipients))
	for i, recipient := range recipients {
		gross, _ := feemodel.WithdrawalGross(
			amountPerWallet, s.withdrawFeeBP, s.withdrawRent,
		)
		tasks = append(tasks, domain.NewFundingTask(
			i, recipient.Index, recipient.Address(), gross,
		))
	}
	return tasks
}

// shield tops up the shielded balance: the protocol fee is paid to the
// treasury with a plain transfer first, then the deposit is submitted to the
// pool. Both steps are fatal on failure, no withdrawal is attempted after a
// failed top-up.
func (s *FunderService) shield(
	ctx context.Context, amountToShield uint64, chRes chan ports.FundingReply,
) error {
	if err := s.run.StartShielding(); err != nil {
		return err
	}

	protocolFee := feemodel.ProtocolFee(amountToShield, s.protocolFeeBP)
	if protocolFee > 0 {
		s.reply(chRes, "paying protocol fee to treasury")
		feeSig, err := s.chainSvc.Transfer(ctx, s.txSigner, s.treasuryAddress, protocolFee)
		if err != nil {
			return fmt.Errorf("protocol fee transfer failed: %w", err)
		}
		log.WithField("signature", feeSig).WithField("lamports", protocolFee).
			Debug("protocol fee paid")
	}

	s.reply(chRes, "shielding funds, generating proof may take a while")
	depositSig, err := s.pool.Deposit(ctx, amountToShield)
	if err != nil {
		return fmt.Errorf("deposit failed: %w", err)
	}
	log.WithField("signature", depositSig).WithField("lamports", amountToShield).
		Debug("funds shielded")

	s.reply(chRes, "funds shielded")
	return nil
}

// distribute walks the tasks strictly in ordinal order with one outstanding
// withdrawal at a time. A failed withdrawal marks its task and the loop
// moves on to the next recipient.
func (s *FunderService) distribute(
	ctx context.Context, chRes chan ports.FundingReply,
) {
	for i := range s.run.Tasks {
		task := &s.run.Tasks[i]

		if s.isAborted() {
			log.WithField("run", s.run.Id).Info("funding run aborted, remaining tasks skipped")
			s.reply(chRes, "funding run aborted")
			return
		}
		if i > 0 {
			s.pacer.Take()
		}

		s.setTaskProcessing(ctx, task)
		s.reply(chRes, fmt.Sprintf(
			"funding recipient %d of %d", i+1, len(s.run.Tasks),
		))

		sig, err := s.pool.Withdraw(ctx, task.GrossAmount, task.RecipientAddress)
		if err != nil {
			s.setTaskFailed(ctx, task, err)
		} else {
			s.setTaskSucceeded(ctx, task, sig)
		}

		// keep the observed balance fresh for the next task, drift here is
		// informational and never aborts the run.
		if _, err := s.pool.GetBalance(ctx); err != nil {
			log.WithError(err).Debug("failed to refresh shielded balance")
		}
	}
}

func (s *FunderService) setTaskProcessing(ctx context.Context, task *domain.FundingTask) {
	if err := task.Process(); err != nil {
		log.WithError(err).WithField("task", task.Id).Warn("invalid task transition")
		return
	}
	s.persistTask(ctx, *task)
}

func (s *FunderService) setTaskSucceeded(
	ctx context.Context, task *domain.FundingTask, signature string,
) {
	if err := task.Succeed(signature); err != nil {
		log.WithError(err).WithField("task", task.Id).Warn("invalid task transition")
		return
	}
	s.persistTask(ctx, *task)
	log.WithField("recipient", task.RecipientAddress).
		WithField("signature", signature).Info("recipient funded")
}

func (s *FunderService) setTaskFailed(
	ctx context.Context, task *domain.FundingTask, cause error,
) {
	if err := task.Fail(cause.Error()); err != nil {
		log.WithError(err).WithField("task", task.Id).Warn("invalid task transition")
		return
	}
	s.persistTask(ctx, *task)
	log.WithError(cause).WithField("recipient", task.RecipientAddress).
		Warn("recipient funding failed")
}

func (s *FunderService) persistTask(ctx context.Context, task domain.FundingTask) {
	if err := s.taskRepo.UpdateTask(
		ctx, task.Id,
		func(t *domain.FundingTask) (*domain.FundingTask, error) {
			return &task, nil
		},
	); err != nil {
		log.WithError(err).WithField("task", task.Id).Warn("failed to persist task")
	}
}

func (s *FunderService) failRun(
	chRes chan ports.FundingReply, cause error,
) (*FundingReport, error) {
	if err := s.run.Fail(cause.Error()); err != nil {
		log.WithError(err).Warn("invalid run transition")
	}
	log.WithError(cause).WithField("run", s.run.Id).Error("funding run failed")
	if chRes != nil {
		chRes <- fundingReply{"", cause}
	}
	return s.buildReport(context.Background()), cause
}

func (s *FunderService) buildReport(ctx context.Context) *FundingReport {
	var tasks []domain.FundingTask
	if len(s.run.Tasks) > 0 {
		var err error
		tasks, err = s.taskRepo.GetAllTasks(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to read tasks for report")
			tasks = s.run.Tasks
		}
	}

	successCount := 0
	for i := range tasks {
		if tasks[i].Status == domain.FundingTaskStatusSucceeded {
			successCount++
		}
	}

	return &FundingReport{
		RunId:        s.run.Id,
		Status:       s.run.Status,
		SuccessCount: successCount,
		Total:        len(tasks),
		Tasks:        tasks,
		FatalError:   s.run.FatalError,
	}
}

func (s *FunderService) reply(chRes chan ports.FundingReply, msg string) {
	if chRes == nil {
		return
	}
	chRes <- fundingReply{msg, nil}
}
