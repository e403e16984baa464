package watchlist

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
)

// Entry is a validated token awaiting liquidity confirmation. Unique per
// token address (case-insensitive); mutated in place on each poll.
type Entry struct {
	Event       *launch.TokenEvent
	Creator     *creator.CreatorInfo
	EnqueuedAt  time.Time
	LastChecked time.Time
	CheckCount  int
}

// TokenStats aggregates liquidity/volume metrics across a token's pools.
type TokenStats struct {
	LiquidityUsd decimal.Decimal
	Volume24hUsd decimal.Decimal
	PriceUsd     decimal.Decimal
	Txns24h      int
}

// StatsProvider fetches current market metrics for a token. Returns
// domain.ErrNotFound while no pool has been indexed yet.
type StatsProvider interface {
	TokenStats(ctx.Ctx, domain.Address) (*TokenStats, error)
}

// UseCase holds tokens that passed validation but lack sufficient liquidity
// and polls until a threshold is met or the entry ages out.
type UseCase interface {
	// Add enqueues a token. Re-adding an already-watched token address is a
	// no-op; returns whether a new entry was created.
	Add(c ctx.Ctx, ev *launch.TokenEvent, info *creator.CreatorInfo) bool
	Len() int
	// Start launches the background poll loop; Stop halts it and waits for
	// in-flight checks to finish.
	Start(ctx.Ctx)
	Stop()
}
