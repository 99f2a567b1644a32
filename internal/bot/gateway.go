package bot

import (
	"context"
	"fmt"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// Gateway publishes raffle events to Discord channels and DMs.
type Gateway struct {
	discord  Discord
	renderer *Renderer
}

func NewGateway(discord Discord, renderer *Renderer) *Gateway {
	return &Gateway{discord: discord, renderer: renderer}
}

func (g *Gateway) PublishAnnouncement(ctx context.Context, raffle domain.Raffle, tally domain.Tally) (string, error) {
	msg, err := g.discord.ChannelMessageSendComplex(raffle.PublishChannelID, g.renderer.Announcement(raffle, tally), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("g.discord.ChannelMessageSendComplex -> %w", err)
	}

	return msg.ID, nil
}

func (g *Gateway) DeleteAnnouncement(ctx context.Context, raffle domain.Raffle) error {
	if err := g.discord.ChannelMessageDelete(raffle.PublishChannelID, raffle.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageDelete -> %w", err)
	}
	return nil
}

func (g *Gateway) RefreshAnnouncement(ctx context.Context, raffle domain.Raffle, tally domain.Tally) error {
	if _, err := g.discord.ChannelMessageEditComplex(g.renderer.AnnouncementUpdate(raffle, tally), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageEditComplex -> %w", err)
	}
	return nil
}

// CloseAnnouncement disables the announcement and posts the result under it. Both steps are
// attempted even if the first fails.
func (g *Gateway) CloseAnnouncement(ctx context.Context, raffle domain.Raffle, outcome domain.DrawOutcome) error {
	_, editErr := g.discord.ChannelMessageEditComplex(g.renderer.ClosedAnnouncement(raffle), discordgo.WithContext(ctx))

	_, sendErr := g.discord.ChannelMessageSendComplex(raffle.PublishChannelID, g.renderer.DrawResult(raffle, outcome), discordgo.WithContext(ctx))
	if sendErr != nil {
		return fmt.Errorf("g.discord.ChannelMessageSendComplex -> %w", sendErr)
	}
	if editErr != nil {
		return fmt.Errorf("g.discord.ChannelMessageEditComplex -> %w", editErr)
	}

	return nil
}

func (g *Gateway) CancelAnnouncement(ctx context.Context, raffle domain.Raffle) error {
	if _, err := g.discord.ChannelMessageEditComplex(g.renderer.ClosedAnnouncement(raffle), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageEditComplex -> %w", err)
	}
	return nil
}

func (g *Gateway) RequestApproval(ctx context.Context, raffle domain.Raffle, participant domain.Participant) error {
	if _, err := g.discord.ChannelMessageSendComplex(raffle.LogChannelID, g.renderer.ApprovalRequest(raffle, participant), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageSendComplex -> %w", err)
	}
	return nil
}

func (g *Gateway) ForwardMessage(ctx context.Context, raffle domain.Raffle, userID, content string) error {
	if _, err := g.discord.ChannelMessageSendComplex(raffle.LogChannelID, g.renderer.ForwardedMessage(userID, content), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageSendComplex -> %w", err)
	}
	return nil
}

func (g *Gateway) NotifyUser(ctx context.Context, userID string, notice domain.Notice) error {
	return g.DirectMessage(ctx, userID, &discordgo.MessageSend{Content: g.renderer.Notice(notice)})
}

// DirectMessage opens (or reuses) the DM channel with userID and sends msg there.
func (g *Gateway) DirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) error {
	channel, err := g.discord.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("g.discord.UserChannelCreate -> %w", err)
	}

	if _, err = g.discord.ChannelMessageSendComplex(channel.ID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("g.discord.ChannelMessageSendComplex -> %w", err)
	}

	return nil
}
