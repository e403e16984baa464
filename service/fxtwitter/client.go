package fxtwitter

import (
	"errors"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
)

// Client fetches public Twitter/X profile data through the fxtwitter proxy.
type Client interface {
	// FollowersByUsername returns the current follower count. Returns
	// domain.ErrNotFound for unknown or suspended handles.
	FollowersByUsername(c bCtx.Ctx, username string) (int, error)
}

type ClientCfg struct {
	Guard   *httpclient.Guard
	BaseUrl string
	Timeout time.Duration
}

type userResp struct {
	Code int `json:"code"`
	User *struct {
		ScreenName string `json:"screen_name"`
		Followers  int    `json:"followers"`
	} `json:"user"`
}
