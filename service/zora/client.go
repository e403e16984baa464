package zora

import (
	"errors"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/domain"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
)

// Client talks to the Zora coins API.
type Client interface {
	// CoinByAddress looks up a zora coin and its creator profile. Returns
	// domain.ErrNotFound when the coin is not indexed yet.
	CoinByAddress(c bCtx.Ctx, addr domain.Address) (*Coin, error)
}

type ClientCfg struct {
	Guard   *httpclient.Guard
	BaseUrl string
	ApiKey  string
	Timeout time.Duration
}

type Coin struct {
	Address        string          `json:"address"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	CreatorAddress string          `json:"creatorAddress"`
	CreatorProfile *CreatorProfile `json:"creatorProfile"`
}

type CreatorProfile struct {
	Handle         string          `json:"handle"`
	SocialAccounts *SocialAccounts `json:"socialAccounts"`
}

type SocialAccounts struct {
	Farcaster *SocialAccount `json:"farcaster"`
	Twitter   *SocialAccount `json:"twitter"`
}

type SocialAccount struct {
	Username string `json:"username"`
	// FollowerCount is a snapshot cached by zora, used as fallback when the
	// live lookup fails.
	FollowerCount *int `json:"followerCount"`
}

type coinResp struct {
	Zora20Token *Coin `json:"zora20Token"`
}
