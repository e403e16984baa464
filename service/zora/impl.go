package zora

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

const defaultBaseUrl = "https://api-sdk.zora.engineering"

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
		apiKey:  cfg.ApiKey,
		policy: &httpclient.Policy{
			HostKey:      "zora",
			Concurrency:  3,
			Timeout:      timeout,
			MaxRetries:   2,
			InitialDelay: time.Second,
			MaxDelay:     8 * time.Second,
		},
	}
}

type client struct {
	guard   *httpclient.Guard
	baseUrl string
	apiKey  string
	policy  *httpclient.Policy
}

func (c *client) CoinByAddress(ctx bCtx.Ctx, addr domain.Address) (*Coin, error) {
	u := fmt.Sprintf("%s/coin?address=%s&chain=%d", c.baseUrl, url.QueryEscape(addr.ToLowerStr()), domain.BaseMainnet)

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("api-key", c.apiKey)
	}

	resp, err := c.guard.Get(ctx, u, header, c.policy)
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

	parsed := coinResp{}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	if parsed.Zora20Token == nil {
		return nil, domain.ErrNotFound
	}
	return parsed.Zora20Token, nil
}
