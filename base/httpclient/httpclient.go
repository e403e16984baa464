package httpclient

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/backoff"
	"github.com/basewatch/goapi/base/log"
)

// Policy controls throttling and retry behavior for one logical upstream.
type Policy struct {
	// HostKey groups requests under one concurrency limiter. Requests with
	// the same key share the in-flight slots.
	HostKey string
	// Concurrency is the max number of in-flight requests for this key.
	Concurrency int
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay and MaxDelay shape the exponential retry backoff.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// ShouldRetry decides whether an HTTP status is retryable. Defaults to
	// 5xx and 429.
	ShouldRetry func(status int) bool
}

func defaultShouldRetry(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// Response is the terminal result of a guarded request. Callers interpret
// non-2xx statuses themselves; only transport-level exhaustion is an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// AttemptsError is returned when all attempts failed at the transport level.
// It means "lookup unavailable", not "entity does not exist".
type AttemptsError struct {
	Attempts int
	LastErr  error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *AttemptsError) Unwrap() error {
	return e.LastErr
}

// Guard issues HTTP requests under per-key concurrency limits with
// timeout-bounded attempts and exponential retry on transient failures.
type Guard struct {
	client *http.Client

	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewGuard(client *http.Client) *Guard {
	if client == nil {
		client = &http.Client{}
	}
	return &Guard{
		client: client,
		slots:  make(map[string]chan struct{}),
	}
}

// Get performs a guarded GET.
func (g *Guard) Get(ctx bCtx.Ctx, url string, header http.Header, policy *Policy) (*Response, error) {
	return g.Do(ctx, http.MethodGet, url, nil, header, policy)
}

// Do performs a guarded request. Excess callers for the same HostKey block
// until an in-flight slot frees; blocked callers resume in no particular
// order. Each attempt is bounded by policy.Timeout;
// network errors, aborts, and retryable statuses back off exponentially up to
// policy.MaxRetries. Non-retryable statuses return immediately with no error.
func (g *Guard) Do(ctx bCtx.Ctx, method, url string, body []byte, header http.Header, policy *Policy) (*Response, error) {
	if err := g.acquire(ctx, policy); err != nil {
		return nil, err
	}
	defer g.release(policy)

	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = defaultShouldRetry
	}

	bo := backoff.NewExponential(policy.InitialDelay, policy.MaxDelay)
	attempts := 0
	var lastErr error

	for attempts <= policy.MaxRetries {
		if attempts > 0 {
			if err := bo.Backoff(ctx); err != nil {
				return nil, err
			}
			ctx.WithFields(log.Fields{
				"url":     url,
				"attempt": attempts,
				"err":     lastErr,
			}).Warn("retrying request")
		}
		attempts++

		resp, err := g.attempt(ctx, method, url, body, header, policy.Timeout)
		if err != nil {
			lastErr = err
			continue
		}
		if shouldRetry(resp.StatusCode) {
			lastErr = fmt.Errorf("http status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, &AttemptsError{Attempts: attempts, LastErr: lastErr}
}

func (g *Guard) attempt(ctx bCtx.Ctx, method, url string, body []byte, header http.Header, timeout time.Duration) (*Response, error) {
	aCtx := ctx
	if timeout > 0 {
		var cancel func()
		aCtx, cancel = bCtx.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(aCtx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (g *Guard) acquire(ctx bCtx.Ctx, policy *Policy) error {
	slot := g.slotFor(policy)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case slot <- struct{}{}:
		return nil
	}
}

func (g *Guard) release(policy *Policy) {
	<-g.slotFor(policy)
}

func (g *Guard) slotFor(policy *Policy) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.slots[policy.HostKey]
	if !ok {
		n := policy.Concurrency
		if n <= 0 {
			n = 1
		}
		slot = make(chan struct{}, n)
		g.slots[policy.HostKey] = slot
	}
	return slot
}
