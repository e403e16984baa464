package dexscreener

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/domain"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
)

// Client talks to the Dexscreener pairs API.
type Client interface {
	// TokenPairs returns all indexed pairs for a token. Returns
	// domain.ErrNotFound while dexscreener has no pair for it yet.
	TokenPairs(c bCtx.Ctx, addr domain.Address) ([]Pair, error)
}

type ClientCfg struct {
	Guard   *httpclient.Guard
	BaseUrl string
	Timeout time.Duration
}

type Pair struct {
	ChainId     string `json:"chainId"`
	DexId       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	PriceUsd    string `json:"priceUsd"`

	Liquidity struct {
		Usd decimal.Decimal `json:"usd"`
	} `json:"liquidity"`

	Volume struct {
		H24 decimal.Decimal `json:"h24"`
	} `json:"volume"`

	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
}

type pairsResp struct {
	Pairs []Pair `json:"pairs"`
}
