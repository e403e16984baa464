package clanker

import (
	"errors"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/domain"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
	// ErrInfrastructure marks clanker 503 "infrastructure" responses so the
	// slow validation path can stretch its retry schedule.
	ErrInfrastructure = errors.New("clanker infrastructure error")
)

// Client talks to the Clanker platform API.
type Client interface {
	// TokenByAddress looks up a deployed clanker token and its requestor
	// identity. Returns domain.ErrNotFound when the token is not indexed
	// yet.
	TokenByAddress(c bCtx.Ctx, addr domain.Address) (*Token, error)
}

type ClientCfg struct {
	Guard   *httpclient.Guard
	BaseUrl string
	Timeout time.Duration
}

type Token struct {
	ContractAddress string         `json:"contract_address"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	RequestorFid    *int64         `json:"requestor_fid"`
	PoolAddress     string         `json:"pool_address"`
	SocialContext   *SocialContext `json:"social_context"`
}

type SocialContext struct {
	Interface string `json:"interface"` // deploying frontend, e.g. "Bankr"
	Platform  string `json:"platform"`
	Username  string `json:"username"`
}

type tokensResp struct {
	Data []Token `json:"data"`
}
