package neynar

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

// Client talks to the Neynar Farcaster API. A 404 maps to
// domain.ErrNotFound; any other failure is "lookup unavailable".
type Client interface {
	// UserBulkByAddress resolves Farcaster users controlling a wallet
	// (custody or verified address).
	UserBulkByAddress(c bCtx.Ctx, addr domain.Address) ([]User, error)
	UserByFid(c bCtx.Ctx, fid int64) (*User, error)
	UserByUsername(c bCtx.Ctx, username string) (*User, error)
	// VerificationsByFid lists addresses the user has verified.
	VerificationsByFid(c bCtx.Ctx, fid int64) ([]domain.Address, error)
}

type ClientCfg struct {
	Guard   *httpclient.Guard
	BaseUrl string
	ApiKey  string
	Timeout time.Duration
}

type User struct {
	Fid           int64       `json:"fid"`
	Username      string      `json:"username"`
	FollowerCount int         `json:"follower_count"`
	Experimental  *ScoreBlock `json:"experimental,omitempty"`

	VerifiedAccounts []VerifiedAccount `json:"verified_accounts"`
}

type ScoreBlock struct {
	NeynarUserScore float64 `json:"neynar_user_score"`
}

type VerifiedAccount struct {
	Platform string `json:"platform"` // "x" for twitter
	Username string `json:"username"`
}

// Score returns the user reputation score when the API exposes it.
func (u *User) Score() *float64 {
	if u.Experimental == nil {
		return nil
	}
	s := u.Experimental.NeynarUserScore
	return &s
}

// TwitterUsername returns the verified X/Twitter handle, if any.
func (u *User) TwitterUsername() *string {
	for _, acc := range u.VerifiedAccounts {
		if acc.Platform == "x" && acc.Username != "" {
			name := acc.Username
			return &name
		}
	}
	return nil
}

type bulkByAddressResp map[string][]User

type usersResp struct {
	Users []User `json:"users"`
}

type userResp struct {
	User *User `json:"user"`
}

type verificationsResp struct {
	Result struct {
		Verifications []string `json:"verifications"`
	} `json:"result"`
}
