package fxtwitter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/domain"
)

const defaultBaseUrl = "https://api.fxtwitter.com"

func NewClient(cfg *ClientCfg) Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &client{
		guard:   cfg.Guard,
		baseUrl: baseUrl,
		policy: &httpclient.Policy{
			HostKey:      "fxtwitter",
			Concurrency:  2,
			Timeout:      timeout,
			MaxRetries:   1,
			InitialDelay: time.Second,
			MaxDelay:     4 * time.Second,
		},
	}
}

type client struct {
	guard   *httpclient.Guard
	baseUrl string
	policy  *httpclient.Policy
}

func (c *client) FollowersByUsername(ctx bCtx.Ctx, username string) (int, error) {
	u := fmt.Sprintf("%s/%s", c.baseUrl, url.PathEscape(username))
	resp, err := c.guard.Get(ctx, u, nil, c.policy)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": u,
			"err": err,
		}).Error("guard.Get failed")
		return 0, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return 0, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        u,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return 0, ErrStatusCodeNotOk
	}

	parsed := userResp{}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return 0, err
	}
	if parsed.User == nil {
		return 0, domain.ErrNotFound
	}
	return parsed.User.Followers, nil
}
