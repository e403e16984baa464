package neynar

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

const defaultBaseUrl = "https://api.neynar.com/v2/farcaster"

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
			HostKey:      "neynar",
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
	apiKey  string
	policy  *httpclient.Policy
}

func (c *client) UserBulkByAddress(ctx bCtx.Ctx, addr domain.Address) ([]User, error) {
	u := fmt.Sprintf("%s/user/bulk-by-address?addresses=%s", c.baseUrl, url.QueryEscape(addr.ToLowerStr()))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	resp := bulkByAddressResp{}
	if err := json.Unmarshal(body, &resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	users, ok := resp[addr.ToLowerStr()]
	if !ok || len(users) == 0 {
		return nil, domain.ErrNotFound
	}
	return users, nil
}

func (c *client) UserByFid(ctx bCtx.Ctx, fid int64) (*User, error) {
	u := fmt.Sprintf("%s/user/bulk?fids=%d", c.baseUrl, fid)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	resp := usersResp{}
	if err := json.Unmarshal(body, &resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, domain.ErrNotFound
	}
	return &resp.Users[0], nil
}

func (c *client) UserByUsername(ctx bCtx.Ctx, username string) (*User, error) {
	u := fmt.Sprintf("%s/user/by_username?username=%s", c.baseUrl, url.QueryEscape(username))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	resp := userResp{}
	if err := json.Unmarshal(body, &resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	if resp.User == nil {
		return nil, domain.ErrNotFound
	}
	return resp.User, nil
}

func (c *client) VerificationsByFid(ctx bCtx.Ctx, fid int64) ([]domain.Address, error) {
	u := fmt.Sprintf("%s/verifications?fid=%d", c.baseUrl, fid)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	resp := verificationsResp{}
	if err := json.Unmarshal(body, &resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	addrs := make([]domain.Address, 0, len(resp.Result.Verifications))
	for _, v := range resp.Result.Verifications {
		addrs = append(addrs, domain.Address(v).ToLower())
	}
	return addrs, nil
}

func (c *client) get(ctx bCtx.Ctx, url string) ([]byte, error) {
	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("accept", "application/json")

	resp, err := c.guard.Get(ctx, url, header, c.policy)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("guard.Get failed")
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, ErrStatusCodeNotOk
	}
	return resp.Body, nil
}
