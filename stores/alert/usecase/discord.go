package usecase

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/domain/alert"
)

type DiscordCfg struct {
	BotKey    string
	ChannelId string
}

// embedSender is the slice of discordgo.Session the dispatcher needs.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type discordDispatcher struct {
	channelId string
	discord   embedSender
	met       metrics.Service
}

// NewDiscordDispatcher posts token alerts to a discord channel.
func NewDiscordDispatcher(cfg DiscordCfg) alert.Dispatcher {
	discord, err := discordgo.New(fmt.Sprintf("Bot %s", cfg.BotKey))
	if err != nil {
		panic("failed to connect to discord")
	}

	return &discordDispatcher{
		channelId: cfg.ChannelId,
		discord:   discord,
		met:       metrics.New("alert"),
	}
}

func (d *discordDispatcher) Dispatch(c ctx.Ctx, a *alert.TokenAlert) error {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Token", Value: fmt.Sprintf("%s (%s)", a.Name, a.Symbol)},
		{Name: "Platform", Value: string(a.Platform)},
		{Name: "Liquidity", Value: fmt.Sprintf("$%s", a.LiquidityUsd.StringFixed(2))},
	}
	if a.Volume24hUsd.IsPositive() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Volume 24h", Value: fmt.Sprintf("$%s", a.Volume24hUsd.StringFixed(2)),
		})
	}
	if cr := a.Creator; cr != nil {
		if cr.FarcasterUsername != nil {
			value := *cr.FarcasterUsername
			if cr.FarcasterFollowers != nil {
				value = fmt.Sprintf("%s (%d followers)", value, *cr.FarcasterFollowers)
			}
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Farcaster", Value: value})
		}
		if cr.TwitterHandle != nil {
			value := "@" + *cr.TwitterHandle
			if cr.TwitterFollowers != nil {
				value = fmt.Sprintf("%s (%d followers)", value, *cr.TwitterFollowers)
			}
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Twitter", Value: value})
		}
	}
	if !a.PoolAddress.IsEmpty() {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Pool", Value: a.PoolAddress.ToLowerStr()})
	}

	msg := &discordgo.MessageEmbed{
		Title:       "New token launch",
		Description: fmt.Sprintf("https://basescan.org/token/%s", a.TokenAddress.ToLowerStr()),
		Fields:      fields,
	}

	if _, err := d.discord.ChannelMessageSendEmbed(d.channelId, msg); err != nil {
		d.met.BumpSum("dispatch.err", 1)
		c.WithFields(log.Fields{
			"err":     err,
			"alertId": a.AlertId,
			"token":   a.TokenAddress,
		}).Error("discord notify failed")
		return err
	}

	d.met.BumpSum("dispatch", 1, "platform:"+string(a.Platform))
	return nil
}
