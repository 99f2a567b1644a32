package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/action"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RaffleService interface {
	GetRaffleWithTally(ctx context.Context, id string) (domain.Raffle, domain.Tally, error)
	ListOpenRaffles(ctx context.Context, guildID string) ([]domain.Raffle, error)
	ExportParticipants(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, []domain.Participant, error)
	SetDefaultChannels(ctx context.Context, actor domain.Actor, settings domain.GuildSettings) (domain.GuildSettings, error)
	GetGuildSettings(ctx context.Context, guildID string) (domain.GuildSettings, error)
	CheckParticipation(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, domain.Tally, error)
	Reserve(ctx context.Context, raffleID, userID string, quantity int) (domain.Participant, domain.Raffle, error)
	ReleaseReservation(ctx context.Context, raffleID, userID string) (domain.Participant, error)
	SubmitProof(ctx context.Context, userID, proofURL string) (domain.Participant, domain.Raffle, error)
	RelayMessage(ctx context.Context, userID, content string) (domain.Raffle, error)
	Confirm(ctx context.Context, actor domain.Actor, raffleID, userID string) (domain.Participant, domain.Raffle, error)
	Refuse(ctx context.Context, actor domain.Actor, raffleID, userID string) (domain.Participant, domain.Raffle, error)
	Publish(ctx context.Context, actor domain.Actor, draft domain.Raffle) (domain.Raffle, error)
	QuickRaffle(ctx context.Context, actor domain.Actor, guildID, title string, price decimal.Decimal, maxTickets int) (domain.Raffle, error)
	Draw(ctx context.Context, actor domain.Actor, raffleID string) (domain.DrawOutcome, domain.Raffle, error)
	Cancel(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, error)
}

type SessionManager interface {
	Open(ctx context.Context, userID string, settings domain.GuildSettings) (session.Session, error)
	Get(ctx context.Context, userID string) (session.Session, error)
	AttachPanel(ctx context.Context, userID, channelID, messageID string) (session.Session, error)
	SetField(ctx context.Context, userID string, field session.Field, raw string) (session.Session, error)
	SetDates(ctx context.Context, userID, start, end string) (session.Session, error)
	SetPaymentKeyKind(ctx context.Context, userID, kind string) (session.Session, error)
	Discard(ctx context.Context, userID string) error
	Location() *time.Location
}

type ReplyWaiter interface {
	Await(ctx context.Context, userID, channelID string, timeout time.Duration) (string, error)
	Deliver(userID, channelID, content string) bool
}

type Bot struct {
	discord      Discord
	raffles      RaffleService
	sessions     SessionManager
	replies      ReplyWaiter
	gateway      *Gateway
	renderer     *Renderer
	dispatcher   *Dispatcher
	replyTimeout atomic.Int64
}

// New builds the bot. gateway should be the Messenger the raffle service was built with.
func New(discord Discord, raffles RaffleService, sessions SessionManager, replies ReplyWaiter, gateway *Gateway, replyTimeout time.Duration) *Bot {
	b := &Bot{
		discord:    discord,
		raffles:    raffles,
		sessions:   sessions,
		replies:    replies,
		gateway:    gateway,
		renderer:   gateway.renderer,
		dispatcher: NewDispatcher(),
	}
	b.SetReplyTimeout(replyTimeout)
	b.mountRoutes()

	return b
}

func (b *Bot) SetReplyTimeout(d time.Duration) {
	if d <= 0 {
		d = 2 * time.Minute
	}
	b.replyTimeout.Store(int64(d))
}

func (b *Bot) ReplyTimeout() time.Duration {
	return time.Duration(b.replyTimeout.Load())
}

func (b *Bot) mountRoutes() {
	d := b.dispatcher

	d.Command(cmdHelp, b.handleHelp)
	d.Command(cmdConfigure, b.handleConfigure)
	d.Command(cmdPublishChannel, b.handleSetPublishChannel)
	d.Command(cmdLogChannel, b.handleSetLogChannel)
	d.Command(cmdList, b.handleListRaffles)
	d.Command(cmdListParticipant, b.handleListParticipants)
	d.Command(cmdDraw, b.handleDraw)
	d.Command(cmdCancel, b.handleCancel)
	d.Command(cmdQuick, b.handleQuickRaffle)

	d.Component(action.PanelField, b.handlePanelField)
	d.Component(action.PanelKeyKind, b.handlePanelKeyKind)
	d.Component(action.PanelPublish, b.handlePanelPublish)
	d.Component(action.PanelCancel, b.handlePanelCancel)
	d.Modal(action.PanelDates, b.handlePanelDates)

	d.Component(action.Participate, b.handleParticipate)
	d.Component(action.ChooseQuantity, b.handleChooseQuantity)
	d.Modal(action.QuantityModal, b.handleQuantity)
	d.Component(action.CancelPurchase, b.handleCancelPurchase)
	d.Component(action.Approve, b.handleApprove)
	d.Component(action.Refuse, b.handleRefuse)
}

// HandleInteraction routes one interaction. Handler errors are logged and answered with a
// generic failure message.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	e, h, err := b.dispatcher.Resolve(i)
	if err != nil {
		zap.L().Debug("ignoring interaction", zap.Error(err))
		return
	}

	if err = h(ctx, e); err != nil {
		zap.L().Error("interaction handler failed",
			zap.String("kind", e.Kind.String()),
			zap.String("action", string(e.Action.Kind)),
			zap.String("user_id", e.UserID()),
			zap.Error(err),
		)
		if replyErr := b.reply(i, genericFailure); replyErr != nil {
			_ = b.followup(i, genericFailure)
		}
	}
}

// HandleMessage feeds guild messages to pending prompts and treats DMs as payment proofs or
// messages for the staff.
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	if m.GuildID != "" {
		b.replies.Deliver(m.Author.ID, m.ChannelID, m.Content)
		return
	}

	if len(m.Attachments) > 0 {
		b.handleProof(ctx, m)
		return
	}

	if m.Content == "" {
		return
	}
	if _, err := b.raffles.RelayMessage(ctx, m.Author.ID, m.Content); err != nil && !errors.Is(err, service.ErrParticipantNotFound) {
		zap.L().Warn("failed to forward direct message", zap.String("user_id", m.Author.ID), zap.Error(err))
	}
}

func (b *Bot) handleProof(ctx context.Context, m *discordgo.Message) {
	_, _, err := b.raffles.SubmitProof(ctx, m.Author.ID, m.Attachments[0].URL)
	switch {
	case err == nil:
		b.send(m.ChannelID, "✅ Comprovante recebido! A administração irá analisá-lo em breve e você será notificado.")
	case errors.Is(err, service.ErrParticipantNotFound):
	default:
		zap.L().Warn("failed to submit payment proof", zap.String("user_id", m.Author.ID), zap.Error(err))
		b.send(m.ChannelID, userMessage(err))
	}
}

func (b *Bot) send(channelID, content string) {
	if _, err := b.discord.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content}); err != nil {
		zap.L().Warn("failed to send message", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func actorOf(e Event) domain.Actor {
	return domain.Actor{UserID: e.UserID(), Admin: e.IsAdmin()}
}
