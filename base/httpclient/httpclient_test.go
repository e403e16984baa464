package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/basewatch/goapi/base/ctx"
)

var mockCtx = bCtx.Background()

type guardSuite struct {
	suite.Suite
	guard *Guard
}

func TestGuard(t *testing.T) {
	suite.Run(t, new(guardSuite))
}

func (s *guardSuite) SetupTest() {
	s.guard = NewGuard(&http.Client{})
}

func (s *guardSuite) policy(maxRetries int) *Policy {
	return &Policy{
		HostKey:      "test",
		Concurrency:  2,
		Timeout:      time.Second,
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
	}
}

func (s *guardSuite) TestOkResponse() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(2))
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"ok":true}`, string(resp.Body))
}

func (s *guardSuite) TestRetriesOn5xxThenSucceeds() {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(3))
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(int32(3), atomic.LoadInt32(&calls))
}

func (s *guardSuite) TestNoRetryOn404() {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(3))
	s.NoError(err)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(int32(1), atomic.LoadInt32(&calls))
}

func (s *guardSuite) TestRetryOn429() {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(2))
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(int32(2), atomic.LoadInt32(&calls))
}

func (s *guardSuite) TestExhaustedRetriesReturnsAttemptsError() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(2))
	s.Error(err)
	ae, ok := err.(*AttemptsError)
	s.True(ok)
	s.Equal(3, ae.Attempts)
	s.Error(ae.LastErr)
}

func (s *guardSuite) TestConcurrencyLimit() {
	var inflight, peak int32
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&inflight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.guard.Get(mockCtx, srv.URL, nil, s.policy(0))
			s.NoError(err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	s.LessOrEqual(peak, int32(2))
}

func (s *guardSuite) TestPerAttemptTimeoutRetries() {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	policy := s.policy(1)
	policy.Timeout = 50 * time.Millisecond
	resp, err := s.guard.Get(mockCtx, srv.URL, nil, policy)
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(int32(2), atomic.LoadInt32(&calls))
}
