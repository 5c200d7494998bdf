// Package poller periodically reads public balances for a set of watched
// addresses and emits them on an event channel. The service has an explicit
// start/stop lifecycle and can be paused while another component needs
// exclusive access to balance reads.
package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const eventQueueMaxSize = 100

// BalanceEvent is emitted through the event channel on every successful
// balance read.
type BalanceEvent struct {
	Address  string
	Lamports uint64
}

// BalanceSource abstracts where balances are read from.
type BalanceSource interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Service is the interface of the balance poller.
type Service interface {
	Start()
	Stop()
	Pause()
	Resume()
	TriggerRefresh()
	AddAddress(address string)
	RemoveAddress(address string)
	GetEventChannel() chan BalanceEvent
}

// Opts defines the parameters needed for creating a poller service with
// NewService.
type Opts struct {
	Source                 BalanceSource
	IntervalInMilliseconds int
	RequestsPerSecond      float64
	ErrorHandler           func(err error)
}

type balancePoller struct {
	interval     time.Duration
	source       BalanceSource
	limiter      *rate.Limiter
	errorHandler func(err error)
	eventChan    chan BalanceEvent
	addresses    map[string]struct{}
	paused       bool
	mutex        *sync.RWMutex
	refreshChan  chan struct{}
	quitChan     chan struct{}
	wg           *sync.WaitGroup
}

// NewService returns a poller that is ready to watch addresses. Use Start
// and Stop to manage it.
func NewService(opts Opts) Service {
	return &balancePoller{
		interval:     time.Duration(opts.IntervalInMilliseconds) * time.Millisecond,
		source:       opts.Source,
		limiter:      rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		errorHandler: opts.ErrorHandler,
		eventChan:    make(chan BalanceEvent, eventQueueMaxSize),
		addresses:    map[string]struct{}{},
		mutex:        &sync.RWMutex{},
		refreshChan:  make(chan struct{}, 1),
		quitChan:     make(chan struct{}),
		wg:           &sync.WaitGroup{},
	}
}

// Start spawns the polling loop.
func (p *balancePoller) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop terminates the polling loop and closes the event channel.
func (p *balancePoller) Stop() {
	close(p.quitChan)
	p.wg.Wait()
	close(p.eventChan)
}

// Pause suspends polling without tearing down the loop. Reads requested
// while paused are skipped entirely.
func (p *balancePoller) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.paused = true
}

// Resume re-enables polling after a Pause.
func (p *balancePoller) Resume() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.paused = false
}

// TriggerRefresh requests an immediate poll out of schedule.
func (p *balancePoller) TriggerRefresh() {
	select {
	case p.refreshChan <- struct{}{}:
	default:
	}
}

func (p *balancePoller) AddAddress(address string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.addresses[address] = struct{}{}
}

func (p *balancePoller) RemoveAddress(address string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.addresses, address)
}

// GetEventChannel returns the channel balance events are emitted on.
func (p *balancePoller) GetEventChannel() chan BalanceEvent {
	return p.eventChan
}

func (p *balancePoller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.quitChan:
			return
		case <-ticker.C:
			p.poll()
		case <-p.refreshChan:
			p.poll()
		}
	}
}

func (p *balancePoller) poll() {
	p.mutex.RLock()
	if p.paused {
		p.mutex.RUnlock()
		return
	}
	addresses := make([]string, 0, len(p.addresses))
	for addr := range p.addresses {
		addresses = append(addresses, addr)
	}
	p.mutex.RUnlock()

	ctx := context.Background()
	for _, addr := range addresses {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		lamports, err := p.source.GetBalance(ctx, addr)
		if err != nil {
			if p.errorHandler != nil {
				p.errorHandler(err)
			}
			continue
		}
		select {
		case p.eventChan <- BalanceEvent{Address: addr, Lamports: lamports}:
		default:
		}
	}
}
