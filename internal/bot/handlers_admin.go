package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleHelp(_ context.Context, e Event) error {
	return b.replyEmbed(e.Interaction, HelpEmbed())
}

func (b *Bot) handleSetPublishChannel(ctx context.Context, e Event) error {
	return b.setChannel(ctx, e, func(s *domain.GuildSettings, id string) { s.DefaultPublishChannelID = id },
		"✅ O canal de anúncios padrão foi definido como %s.")
}

func (b *Bot) handleSetLogChannel(ctx context.Context, e Event) error {
	return b.setChannel(ctx, e, func(s *domain.GuildSettings, id string) { s.DefaultLogChannelID = id },
		"✅ O canal de logs padrão foi definido como %s.")
}

func (b *Bot) setChannel(ctx context.Context, e Event, set func(*domain.GuildSettings, string), done string) error {
	opts := optionMap(e.Interaction.ApplicationCommandData().Options)
	opt, ok := opts[optChannel]
	if !ok {
		return b.reply(e.Interaction, "❌ Informe um canal.")
	}
	channelID := opt.ChannelValue(nil).ID

	settings := domain.GuildSettings{GuildID: e.Interaction.GuildID}
	set(&settings, channelID)

	if _, err := b.raffles.SetDefaultChannels(ctx, actorOf(e), settings); err != nil {
		return b.replyErr(e.Interaction, err)
	}

	return b.reply(e.Interaction, fmt.Sprintf(done, channelMention(channelID)))
}

func (b *Bot) handleListRaffles(ctx context.Context, e Event) error {
	raffles, err := b.raffles.ListOpenRaffles(ctx, e.Interaction.GuildID)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}
	if len(raffles) == 0 {
		return b.reply(e.Interaction, "Não há nenhuma rifa ativa neste servidor no momento.")
	}

	return b.replyEmbed(e.Interaction, b.renderer.RaffleList(raffles))
}

func (b *Bot) handleListParticipants(ctx context.Context, e Event) error {
	raffleID := stringOption(e, optRaffleID)

	raffle, participants, err := b.raffles.ExportParticipants(ctx, actorOf(e), raffleID)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}
	if len(participants) == 0 {
		return b.reply(e.Interaction, "Nenhum participante confirmado encontrado para esta rifa.")
	}

	return b.respond(e.Interaction, &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Lista de participantes da rifa **%s**:", raffle.Title),
		Flags:   discordgo.MessageFlagsEphemeral,
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("participantes_%s.txt", raffle.ID),
			ContentType: "text/plain",
			Reader:      strings.NewReader(b.renderer.ParticipantsFile(raffle, participants)),
		}},
	})
}

func (b *Bot) handleDraw(ctx context.Context, e Event) error {
	if err := b.deferReply(e.Interaction); err != nil {
		return err
	}

	outcome, raffle, err := b.raffles.Draw(ctx, actorOf(e), stringOption(e, optRaffleID))
	if err != nil {
		return b.editErr(e.Interaction, err)
	}

	if outcome.NoParticipants {
		return b.editReply(e.Interaction, fmt.Sprintf("A rifa **%s** foi encerrada sem participantes confirmados.", raffle.Title))
	}

	return b.editReply(e.Interaction, fmt.Sprintf("✅ Rifa **%s** encerrada! Vencedor: <@%s> com o número **%d**.",
		raffle.Title, outcome.WinnerUserID, outcome.WinningNumber))
}

func (b *Bot) handleCancel(ctx context.Context, e Event) error {
	if err := b.deferReply(e.Interaction); err != nil {
		return err
	}

	raffle, err := b.raffles.Cancel(ctx, actorOf(e), stringOption(e, optRaffleID))
	if err != nil {
		return b.editErr(e.Interaction, err)
	}

	return b.editReply(e.Interaction, fmt.Sprintf("✅ A rifa **%s** foi cancelada.", raffle.Title))
}

func (b *Bot) handleQuickRaffle(ctx context.Context, e Event) error {
	opts := optionMap(e.Interaction.ApplicationCommandData().Options)

	var title, rawPrice string
	var tickets int64
	if opt, ok := opts[optTitle]; ok {
		title = opt.StringValue()
	}
	if opt, ok := opts[optPrice]; ok {
		rawPrice = opt.StringValue()
	}
	if opt, ok := opts[optTickets]; ok {
		tickets = opt.IntValue()
	}

	price, err := session.ParsePrice(rawPrice)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	if err = b.deferReply(e.Interaction); err != nil {
		return err
	}

	raffle, err := b.raffles.QuickRaffle(ctx, actorOf(e), e.Interaction.GuildID, title, price, int(tickets))
	if err != nil {
		return b.editErr(e.Interaction, err)
	}

	return b.editReply(e.Interaction, fmt.Sprintf("✅ Rifa rápida **%s** publicada em %s! ID: `%s`",
		raffle.Title, channelMention(raffle.PublishChannelID), raffle.ID))
}

// handleConfigure opens a creation session and posts its panel in the current channel.
func (b *Bot) handleConfigure(ctx context.Context, e Event) error {
	if !e.IsAdmin() {
		return b.replyErr(e.Interaction, service.ErrPermissionDenied)
	}

	settings, err := b.raffles.GetGuildSettings(ctx, e.Interaction.GuildID)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	userID := e.UserID()
	if _, err = b.sessions.Get(ctx, userID); err == nil {
		return b.reply(e.Interaction, "⚠️ Você já tem um painel de criação ativo. Publique ou cancele antes de abrir outro.")
	} else if !errors.Is(err, session.ErrSessionNotFound) {
		return err
	}

	s, err := b.sessions.Open(ctx, userID, settings)
	if err != nil {
		return err
	}

	embed, components := b.renderer.Panel(s, false)
	msg, err := b.discord.ChannelMessageSendComplex(e.Interaction.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		_ = b.sessions.Discard(ctx, userID)
		return b.replyErr(e.Interaction, fmt.Errorf("%w: %w", service.ErrExternalDelivery, err))
	}

	if _, err = b.sessions.AttachPanel(ctx, userID, msg.ChannelID, msg.ID); err != nil {
		return err
	}

	return b.reply(e.Interaction, "Painel de criação aberto! Use o menu para preencher os campos.")
}

// panelSession loads the invoker's session and checks the component belongs to its panel.
func (b *Bot) panelSession(ctx context.Context, e Event) (session.Session, bool, error) {
	s, err := b.sessions.Get(ctx, e.UserID())
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.Session{}, false, b.replyErr(e.Interaction, err)
		}
		return session.Session{}, false, err
	}

	if e.Interaction.Message != nil && s.PanelMessageID != "" && e.Interaction.Message.ID != s.PanelMessageID {
		return session.Session{}, false, b.reply(e.Interaction, "❌ Este painel pertence a outro administrador.")
	}

	return s, true, nil
}

func (b *Bot) handlePanelField(ctx context.Context, e Event) error {
	s, ok, err := b.panelSession(ctx, e)
	if !ok {
		return err
	}

	values := e.Interaction.MessageComponentData().Values
	if len(values) == 0 {
		return b.reply(e.Interaction, "❌ Nenhum campo selecionado.")
	}

	switch values[0] {
	case string(session.FieldDates):
		return b.discord.InteractionRespond(e.Interaction, DatesModal(s, b.sessions.Location()))
	case keyKindOption:
		return b.respond(e.Interaction, &discordgo.InteractionResponseData{
			Content:    "Selecione o tipo da chave PIX:",
			Components: KeyKindMenu(),
			Flags:      discordgo.MessageFlagsEphemeral,
		})
	}

	field := session.Field(values[0])
	info, known := session.LookupField(field)
	if !known {
		return b.reply(e.Interaction, "❌ Campo desconhecido.")
	}

	if err = b.reply(e.Interaction, fmt.Sprintf("%s Você tem %d segundos para responder neste canal.", info.Prompt, int(b.ReplyTimeout().Seconds()))); err != nil {
		return err
	}

	content, err := b.replies.Await(ctx, e.UserID(), e.Interaction.ChannelID, b.ReplyTimeout())
	if err != nil {
		if errors.Is(err, session.ErrReplyTimeout) {
			return b.followup(e.Interaction, "⌛ Tempo esgotado. Selecione o campo novamente.")
		}
		if errors.Is(err, session.ErrReplySuperseded) {
			return nil
		}
		return err
	}

	s, err = b.sessions.SetField(ctx, e.UserID(), field, content)
	if err != nil {
		if isUserError(err) {
			return b.followup(e.Interaction, userMessage(err))
		}
		return err
	}

	b.refreshPanel(ctx, s)

	return b.followup(e.Interaction, fmt.Sprintf("✅ Campo **%s** atualizado!", info.Label))
}

func (b *Bot) handlePanelDates(ctx context.Context, e Event) error {
	values := modalValues(e.Interaction.ModalSubmitData())

	s, err := b.sessions.SetDates(ctx, e.UserID(), values[startInputID], values[endInputID])
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	b.refreshPanel(ctx, s)

	return b.reply(e.Interaction, "✅ Datas atualizadas!")
}

func (b *Bot) handlePanelKeyKind(ctx context.Context, e Event) error {
	values := e.Interaction.MessageComponentData().Values
	if len(values) == 0 {
		return b.reply(e.Interaction, "❌ Nenhum tipo selecionado.")
	}

	s, err := b.sessions.SetPaymentKeyKind(ctx, e.UserID(), values[0])
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	b.refreshPanel(ctx, s)

	return b.updateMessage(e.Interaction, &discordgo.InteractionResponseData{
		Content:    fmt.Sprintf("✅ Tipo de PIX definido como **%s**.", values[0]),
		Components: []discordgo.MessageComponent{},
	})
}

func (b *Bot) handlePanelPublish(ctx context.Context, e Event) error {
	s, ok, err := b.panelSession(ctx, e)
	if !ok {
		return err
	}

	if err = b.deferReply(e.Interaction); err != nil {
		return err
	}

	raffle, err := b.raffles.Publish(ctx, actorOf(e), s.Draft)
	if err != nil {
		return b.editErr(e.Interaction, err)
	}

	b.closePanel(ctx, s)

	return b.editReply(e.Interaction, fmt.Sprintf("✅ Rifa publicada com sucesso em %s! ID: `%s`",
		channelMention(raffle.PublishChannelID), raffle.ID))
}

func (b *Bot) handlePanelCancel(ctx context.Context, e Event) error {
	s, ok, err := b.panelSession(ctx, e)
	if !ok {
		return err
	}

	b.closePanel(ctx, s)

	return b.reply(e.Interaction, "Criação de rifa cancelada.")
}

// refreshPanel re-renders the panel message after a field changed.
func (b *Bot) refreshPanel(ctx context.Context, s session.Session) {
	if s.PanelMessageID == "" {
		return
	}

	embed, components := b.renderer.Panel(s, service.ValidateDraft(s.Draft) == nil)
	edit := discordgo.NewMessageEdit(s.PanelChannelID, s.PanelMessageID).SetEmbeds([]*discordgo.MessageEmbed{embed})
	edit.Components = &components

	if _, err := b.discord.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		zap.L().Warn("failed to refresh creation panel", zap.String("user_id", s.UserID), zap.Error(err))
	}
}

func (b *Bot) closePanel(ctx context.Context, s session.Session) {
	if err := b.sessions.Discard(ctx, s.UserID); err != nil {
		zap.L().Warn("failed to discard creation session", zap.String("user_id", s.UserID), zap.Error(err))
	}
	if s.PanelMessageID == "" {
		return
	}
	if err := b.discord.ChannelMessageDelete(s.PanelChannelID, s.PanelMessageID, discordgo.WithContext(ctx)); err != nil {
		zap.L().Warn("failed to delete creation panel", zap.String("user_id", s.UserID), zap.Error(err))
	}
}

func stringOption(e Event, name string) string {
	if opt, ok := optionMap(e.Interaction.ApplicationCommandData().Options)[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// modalValues collects text input values by custom id.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, row := range data.Components {
		r, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range r.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}
