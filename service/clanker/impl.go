package clanker

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

const defaultBaseUrl = "https://www.clanker.world/api"

func NewClient(cfg *ClientCfg) Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &client{
		guard:   cfg.Guard,
		baseUrl: baseUrl,
		policy: &httpclient.Policy{
			HostKey:      "clanker",
			Concurrency:  3,
			Timeout:      timeout,
			MaxRetries:   1,
			InitialDelay: time.Second,
			MaxDelay:     4 * time.Second,
			// 503s surface to the caller so the slow path can apply its own
			// stretched schedule
			ShouldRetry: func(status int) bool {
				return status == http.StatusTooManyRequests ||
					(status >= 500 && status != http.StatusServiceUnavailable)
			},
		},
	}
}

type client struct {
	guard   *httpclient.Guard
	baseUrl string
	policy  *httpclient.Policy
}

func (c *client) TokenByAddress(ctx bCtx.Ctx, addr domain.Address) (*Token, error) {
	u := fmt.Sprintf("%s/tokens?address=%s", c.baseUrl, url.QueryEscape(addr.ToLowerStr()))
	resp, err := c.guard.Get(ctx, u, nil, c.policy)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": u,
			"err": err,
		}).Error("guard.Get failed")
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrInfrastructure
	case resp.StatusCode != http.StatusOK:
		ctx.WithFields(log.Fields{
			"url":        u,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, ErrStatusCodeNotOk
	}

	parsed := tokensResp{}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, domain.ErrNotFound
	}
	return &parsed.Data[0], nil
}
