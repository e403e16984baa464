package zora

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/httpclient"
	"github.com/basewatch/goapi/domain"
)

func newTestClient(baseUrl string) Client {
	return NewClient(&ClientCfg{
		Guard:   httpclient.NewGuard(&http.Client{}),
		BaseUrl: baseUrl,
	})
}

func Test_CoinByAddress(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"zora20Token": {
				"address": "0xccc",
				"name": "Creator Coin",
				"symbol": "CC",
				"creatorAddress": "0xbbb",
				"creatorProfile": {
					"handle": "carol",
					"socialAccounts": {
						"farcaster": {"username": "carol.fc"},
						"twitter": {"username": "carol_x", "followerCount": 1234}
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	coin, err := c.CoinByAddress(bCtx.Background(), "0xCCC")
	req.NoError(err)
	req.Equal("CC", coin.Symbol)
	req.Equal("carol", coin.CreatorProfile.Handle)
	req.Equal("carol.fc", coin.CreatorProfile.SocialAccounts.Farcaster.Username)
	req.NotNil(coin.CreatorProfile.SocialAccounts.Twitter.FollowerCount)
	req.Equal(1234, *coin.CreatorProfile.SocialAccounts.Twitter.FollowerCount)
}

func Test_CoinByAddress_404(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CoinByAddress(bCtx.Background(), "0xCCC")
	req.ErrorIs(err, domain.ErrNotFound)
}
