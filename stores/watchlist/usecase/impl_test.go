package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/alert"
	alertMocks "github.com/basewatch/goapi/domain/alert/mocks"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/domain/watchlist"
	watchlistMocks "github.com/basewatch/goapi/domain/watchlist/mocks"
)

type clock struct {
	now time.Time
}

func (cl *clock) Now() time.Time          { return cl.now }
func (cl *clock) Advance(d time.Duration) { cl.now = cl.now.Add(d) }

func newTestWatchlist(tweak func(*Cfg)) (*impl, *watchlistMocks.StatsProvider, *alertMocks.Dispatcher, *clock) {
	stats := &watchlistMocks.StatsProvider{}
	dispatcher := &alertMocks.Dispatcher{}
	cfg := &Cfg{Stats: stats, Dispatcher: dispatcher}
	if tweak != nil {
		tweak(cfg)
	}
	im := New(cfg).(*impl)
	cl := &clock{now: time.Unix(1700000000, 0)}
	im.nowFn = cl.Now
	return im, stats, dispatcher, cl
}

func event(token string) *launch.TokenEvent {
	return &launch.TokenEvent{
		TokenAddress: domain.Address(token),
		Symbol:       "TKN",
		Platform:     launch.PlatformClanker,
	}
}

func stats(liquidity int64) *watchlist.TokenStats {
	return &watchlist.TokenStats{
		LiquidityUsd: decimal.NewFromInt(liquidity),
		Volume24hUsd: decimal.NewFromInt(100),
	}
}

func Test_Add_IsIdempotentPerToken(t *testing.T) {
	req := require.New(t)
	im, _, _, _ := newTestWatchlist(nil)
	c := bCtx.Background()

	req.True(im.Add(c, event("0xAAA"), &creator.CreatorInfo{}))
	req.False(im.Add(c, event("0xaaa"), &creator.CreatorInfo{}))
	req.Equal(1, im.Len())
}

func Test_DispatchOnceWhenThresholdMet(t *testing.T) {
	req := require.New(t)
	im, statsMock, dispatcher, cl := newTestWatchlist(nil)
	c := bCtx.Background()
	addr := domain.Address("0xAAA")

	statsMock.On("TokenStats", mock.Anything, addr).Return(nil, domain.ErrNotFound).Twice()
	statsMock.On("TokenStats", mock.Anything, addr).Return(stats(6000), nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(a *alert.TokenAlert) bool {
		return a.TokenAddress == addr && a.LiquidityUsd.Equal(decimal.NewFromInt(6000))
	})).Return(nil).Once()

	im.Add(c, event(string(addr)), &creator.CreatorInfo{})
	for i := 0; i < 3; i++ {
		cl.Advance(10 * time.Second)
		im.scanOnce(c)
	}

	req.Equal(0, im.Len())
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)

	// further scans find nothing to do
	cl.Advance(10 * time.Second)
	im.scanOnce(c)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func Test_BelowThresholdStaysPending(t *testing.T) {
	req := require.New(t)
	im, statsMock, dispatcher, cl := newTestWatchlist(nil)
	c := bCtx.Background()
	addr := domain.Address("0xAAA")

	statsMock.On("TokenStats", mock.Anything, addr).Return(stats(300), nil)

	im.Add(c, event(string(addr)), &creator.CreatorInfo{})
	cl.Advance(10 * time.Second)
	im.scanOnce(c)

	req.Equal(1, im.Len())
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func Test_ExpiresSilentlyAfterMaxAge(t *testing.T) {
	req := require.New(t)
	im, statsMock, dispatcher, cl := newTestWatchlist(nil)
	c := bCtx.Background()
	addr := domain.Address("0xAAA")

	statsMock.On("TokenStats", mock.Anything, addr).Return(nil, domain.ErrNotFound)

	im.Add(c, event(string(addr)), &creator.CreatorInfo{})
	cl.Advance(10 * time.Second)
	im.scanOnce(c)
	req.Equal(1, im.Len())

	cl.Advance(time.Hour)
	im.scanOnce(c)
	req.Equal(0, im.Len())
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func Test_MinRecheckIntervalSkipsFreshEntries(t *testing.T) {
	req := require.New(t)
	im, statsMock, _, cl := newTestWatchlist(func(cfg *Cfg) {
		cfg.MinRecheckInterval = 30 * time.Second
	})
	c := bCtx.Background()
	addr := domain.Address("0xAAA")

	statsMock.On("TokenStats", mock.Anything, addr).Return(nil, domain.ErrNotFound)

	im.Add(c, event(string(addr)), &creator.CreatorInfo{})
	cl.Advance(10 * time.Second)
	im.scanOnce(c)
	cl.Advance(10 * time.Second)
	im.scanOnce(c) // within the recheck interval, skipped

	statsMock.AssertNumberOfCalls(t, "TokenStats", 1)
	req.Equal(1, im.Len())
}

func Test_StartStop(t *testing.T) {
	im, statsMock, _, _ := newTestWatchlist(func(cfg *Cfg) {
		cfg.ScanInterval = 5 * time.Millisecond
	})
	statsMock.On("TokenStats", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	c := bCtx.Background()
	im.Start(c)
	im.Add(c, event("0xAAA"), &creator.CreatorInfo{})
	time.Sleep(20 * time.Millisecond)
	im.Stop()
}
