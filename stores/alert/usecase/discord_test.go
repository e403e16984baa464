package usecase

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain/alert"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/launch"
)

type fakeSender struct {
	channelId string
	embeds    []*discordgo.MessageEmbed
	err       error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.channelId = channelID
	f.embeds = append(f.embeds, embed)
	return nil, f.err
}

func testAlert() *alert.TokenAlert {
	handle := "alice"
	followers := 80000
	return &alert.TokenAlert{
		AlertId:      "test-alert",
		TokenAddress: "0xAAA",
		Symbol:       "EXM",
		Name:         "Example",
		Platform:     launch.PlatformClanker,
		LiquidityUsd: decimal.NewFromInt(6000),
		Creator: &creator.CreatorInfo{
			TwitterHandle:    &handle,
			TwitterFollowers: &followers,
		},
	}
}

func Test_Dispatch(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	d := &discordDispatcher{channelId: "chan-1", discord: sender, met: metrics.New("alert")}

	req.NoError(d.Dispatch(bCtx.Background(), testAlert()))
	req.Equal("chan-1", sender.channelId)
	req.Len(sender.embeds, 1)

	embed := sender.embeds[0]
	req.Contains(embed.Description, "0xaaa")
	names := map[string]string{}
	for _, f := range embed.Fields {
		names[f.Name] = f.Value
	}
	req.Contains(names["Token"], "EXM")
	req.Contains(names["Liquidity"], "6000.00")
	req.Contains(names["Twitter"], "@alice")
}

func Test_Dispatch_SendFailure(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{err: errors.New("api down")}
	d := &discordDispatcher{channelId: "chan-1", discord: sender, met: metrics.New("alert")}

	req.Error(d.Dispatch(bCtx.Background(), testAlert()))
}
