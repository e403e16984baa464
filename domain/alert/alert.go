package alert

import (
	"github.com/shopspring/decimal"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
)

// TokenAlert is the sole output contract of the watcher core: a fully
// validated, liquidity-confirmed (or big-account bypassed) token.
type TokenAlert struct {
	AlertId      string
	TokenAddress domain.Address
	Symbol       string
	Name         string
	Platform     launch.Platform
	LiquidityUsd decimal.Decimal
	Volume24hUsd decimal.Decimal
	Creator      *creator.CreatorInfo
	PoolAddress  domain.Address
}

// Dispatcher receives alerts and performs notification/auto-buy side
// effects. Implementations live outside the core pipeline.
type Dispatcher interface {
	Dispatch(ctx.Ctx, *TokenAlert) error
}
