package dexscreener

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/domain"
)

const defaultBaseUrl = "https://api.dexscreener.com/latest/dex"

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
			HostKey:      "dexscreener",
			Concurrency:  4,
			Timeout:      timeout,
			MaxRetries:   2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
	}
}

type client struct {
	guard   *httpclient.Guard
	baseUrl string
	policy  *httpclient.Policy
}

func (c *client) TokenPairs(ctx bCtx.Ctx, addr domain.Address) ([]Pair, error) {
	u := fmt.Sprintf("%s/tokens/%s", c.baseUrl, addr.ToLowerStr())
	resp, err := c.guard.Get(ctx, u, nil, c.policy)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": u,
			"err": err,
		}).Error("guard.Get failed")
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        u,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, ErrStatusCodeNotOk
	}

	parsed := pairsResp{}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	if len(parsed.Pairs) == 0 {
		return nil, domain.ErrNotFound
	}
	return parsed.Pairs, nil
}
