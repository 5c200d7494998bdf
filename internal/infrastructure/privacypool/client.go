// Package privacypool implements the HTTP client of the external
// private-balance service. Transient upstream failures are retried with a
// doubling backoff under a capped attempt count, and all calls go through a
// circuit breaker so a misbehaving relay does not hang a funding run
// indefinitely.
package privacypool

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/veilcash/veild/internal/core/domain"
	"github.com/veilcash/veild/internal/core/ports"
	"github.com/veilcash/veild/pkg/circuitbreaker"
)

const (
	balancePath  = "/balance"
	depositPath  = "/deposit"
	withdrawPath = "/withdraw"

	credentialHeader = "X-Veil-Credential"
	accountHeader    = "X-Veil-Account"

	// Fixed message whose signature the shielded credential is derived
	// from. Changing it would lock every account out of its private
	// balance.
	credentialMessage = "veil account credential v1"

	defaultMaxAttempts = 4
	defaultBaseBackoff = 500 * time.Millisecond

	// Proof generation on deposit and withdraw runs tens of seconds, reads
	// come back quickly.
	readTimeout  = 30 * time.Second
	proofTimeout = 5 * time.Minute
)

var (
	// ErrNotInitialized is returned when an operation is attempted before a
	// credential has been derived for the account.
	ErrNotInitialized = errors.New("privacy pool account is not initialized")
	// ErrRetriesExhausted wraps the last transient error once the retry
	// budget is spent.
	ErrRetriesExhausted = errors.New("upstream retries exhausted")
)

type client struct {
	baseURL   string
	owner     string
	msgSigner ports.MessageSigner

	httpClient  *http.Client
	proofClient *http.Client
	cb          *gobreaker.CircuitBreaker

	maxAttempts int
	baseBackoff time.Duration

	credential *domain.ShieldedCredential
	credVault  sync.Mutex
}

// Opts defines the parameters needed for creating a pool client with
// NewClient.
type Opts struct {
	BaseURL      string
	OwnerAddress string
	MessageSigner ports.MessageSigner
	// MaxAttempts and BaseBackoff tune the transient retry policy, zero
	// values select the defaults.
	MaxAttempts int
	BaseBackoff time.Duration
}

// NewClient returns a ports.PrivacyPool backed by the HTTP API at the given
// base URL.
func NewClient(opts Opts) (ports.PrivacyPool, error) {
	if len(opts.BaseURL) == 0 {
		return nil, fmt.Errorf("missing pool base url")
	}
	if len(opts.OwnerAddress) == 0 {
		return nil, fmt.Errorf("missing owner address")
	}
	if opts.MessageSigner == nil {
		return nil, fmt.Errorf("missing message signer")
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	baseBackoff := opts.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBaseBackoff
	}

	return &client{
		baseURL:     opts.BaseURL,
		owner:       opts.OwnerAddress,
		msgSigner:   opts.MessageSigner,
		httpClient:  &http.Client{Timeout: readTimeout},
		proofClient: &http.Client{Timeout: proofTimeout},
		cb:          circuitbreaker.NewCircuitBreaker("privacypool"),
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
	}, nil
}

func (c *client) EnsureInitialized(ctx context.Context) error {
	c.credVault.Lock()
	defer c.credVault.Unlock()

	if c.credential != nil && c.credential.Matches(c.owner) {
		return nil
	}

	signature, err := c.msgSigner.SignMessage(ctx, []byte(credentialMessage))
	if err != nil {
		return fmt.Errorf("credential signing rejected: %w", err)
	}

	credential := domain.NewShieldedCredential(c.owner, signature)
	c.credential = &credential
	log.WithField("account", c.owner).Debug("derived shielded credential")
	return nil
}

func (c *client) GetBalance(ctx context.Context) (uint64, error) {
	body, err := c.roundTrip(ctx, c.httpClient, http.MethodGet, balancePath, nil)
	if err != nil {
		return 0, err
	}

	res := balanceResponse{}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("malformed balance response: %w", err)
	}
	return res.Amount, nil
}

func (c *client) Deposit(ctx context.Context, amount uint64) (string, error) {
	body, err := c.roundTrip(
		ctx, c.proofClient, http.MethodPost, depositPath,
		depositRequest{Amount: amount},
	)
	if err != nil {
		return "", err
	}

	res := signatureResponse{}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("malformed deposit response: %w", err)
	}
	return res.Signature, nil
}

func (c *client) Withdraw(
	ctx context.Context, amount uint64, recipient string,
) (string, error) {
	body, err := c.roundTrip(
		ctx, c.proofClient, http.MethodPost, withdrawPath,
		withdrawRequest{Amount: amount, Recipient: recipient},
	)
	if err != nil {
		return "", err
	}

	res := signatureResponse{}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("malformed withdraw response: %w", err)
	}
	return res.Signature, nil
}

func (c *client) roundTrip(
	ctx context.Context, httpClient *http.Client,
	method, path string, reqBody interface{},
) ([]byte, error) {
	credential, err := c.currentCredential()
	if err != nil {
		return nil, err
	}

	iRes, err := c.cb.Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, httpClient, method, path, reqBody, credential)
	})
	if err != nil {
		return nil, err
	}
	return iRes.([]byte), nil
}

func (c *client) doWithRetry(
	ctx context.Context, httpClient *http.Client,
	method, path string, reqBody interface{},
	credential *domain.ShieldedCredential,
) ([]byte, error) {
	backoff := c.baseBackoff
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			log.WithField("path", path).WithField("attempt", attempt).
				Debug("retrying privacy pool request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		body, transient, err := c.do(ctx, httpClient, method, path, reqBody, credential)
		if err == nil {
			return body, nil
		}
		if !transient {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s", ErrRetriesExhausted, lastErr)
}

// do performs a single request. The second return value flags transient
// failures that are worth retrying: network-level errors and upstream
// 502/503/504 responses.
func (c *client) do(
	ctx context.Context, httpClient *http.Client,
	method, path string, reqBody interface{},
	credential *domain.ShieldedCredential,
) ([]byte, bool, error) {
	var payload io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return nil, false, err
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accountHeader, c.owner)
	req.Header.Set(credentialHeader, base64.StdEncoding.EncodeToString(credential.Secret()))

	res, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return body, false, nil
	case res.StatusCode == http.StatusBadGateway,
		res.StatusCode == http.StatusServiceUnavailable,
		res.StatusCode == http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("upstream unavailable: %s", res.Status)
	default:
		errRes := errorResponse{}
		if err := json.Unmarshal(body, &errRes); err == nil && len(errRes.Error) > 0 {
			return nil, false, fmt.Errorf("pool error: %s", errRes.Error)
		}
		return nil, false, fmt.Errorf("pool error: %s", res.Status)
	}
}

func (c *client) currentCredential() (*domain.ShieldedCredential, error) {
	c.credVault.Lock()
	defer c.credVault.Unlock()
	if c.credential == nil || !c.credential.Matches(c.owner) {
		return nil, ErrNotInitialized
	}
	return c.credential, nil
}
