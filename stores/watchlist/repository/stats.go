package repository

import (
	"github.com/shopspring/decimal"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/watchlist"
	"github.com/basewatch/goapi/service/dexscreener"
)

type statsImpl struct {
	client dexscreener.Client
}

// NewDexscreenerStats aggregates dexscreener pair data into per-token stats.
// Liquidity and volume sum across all pairs; the price comes from the pair
// holding the most liquidity.
func NewDexscreenerStats(client dexscreener.Client) watchlist.StatsProvider {
	return &statsImpl{client: client}
}

func (im *statsImpl) TokenStats(c ctx.Ctx, addr domain.Address) (*watchlist.TokenStats, error) {
	pairs, err := im.client.TokenPairs(c, addr)
	if err != nil {
		return nil, err
	}

	stats := &watchlist.TokenStats{}
	best := decimal.Zero
	priceSet := false
	for _, p := range pairs {
		stats.LiquidityUsd = stats.LiquidityUsd.Add(p.Liquidity.Usd)
		stats.Volume24hUsd = stats.Volume24hUsd.Add(p.Volume.H24)
		stats.Txns24h += p.Txns.H24.Buys + p.Txns.H24.Sells

		// on equal liquidity the earliest pair keeps the price
		if p.PriceUsd != "" && (!priceSet || p.Liquidity.Usd.GreaterThan(best)) {
			price, err := decimal.NewFromString(p.PriceUsd)
			if err != nil {
				c.WithFields(log.Fields{
					"err":   err,
					"pair":  p.PairAddress,
					"price": p.PriceUsd,
				}).Warn("unparsable pair price")
				continue
			}
			best = p.Liquidity.Usd
			stats.PriceUsd = price
			priceSet = true
		}
	}
	return stats, nil
}
