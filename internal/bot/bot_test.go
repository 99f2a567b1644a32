package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/action"
	"github.com/Victorh-Tasca/discord-example-app/internal/config"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID   = "guild"
	adminID   = "admin"
	buyerID   = "buyer"
	adminChan = "admin-chan"
	annChan   = "announcements"
	logChan   = "logs"
)

type harness struct {
	bot      *Bot
	discord  *fakeDiscord
	svc      *service.RaffleService
	store    *repository.MemoryRepository
	sessions *session.Manager
	waiter   *session.ReplyWaiter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	discord := &fakeDiscord{}
	gateway := NewGateway(discord, NewRenderer("R$"))
	store := repository.NewMemoryRepository()
	svc := service.NewRaffleService(store, gateway, nil, config.RaffleConfig{MaxQuantityPerReservation: 100})
	sessions := session.NewManager(session.NewMemoryStore(), 30*time.Minute, time.UTC)
	waiter := session.NewReplyWaiter()

	return &harness{
		bot:      New(discord, svc, sessions, waiter, gateway, time.Second),
		discord:  discord,
		svc:      svc,
		store:    store,
		sessions: sessions,
		waiter:   waiter,
	}
}

func (h *harness) publish(t *testing.T, maxTickets int) domain.Raffle {
	t.Helper()
	now := time.Now()
	raffle, err := h.svc.Publish(context.Background(), domain.Actor{UserID: adminID, Admin: true}, domain.Raffle{
		GuildID:          guildID,
		Title:            "Cesta de Natal",
		Description:      "Panetone e vinho",
		PricePerTicket:   decimal.RequireFromString("5.50"),
		MaxTickets:       maxTickets,
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(24 * time.Hour),
		PaymentKey:       "rifa@example.com",
		PaymentKeyKind:   "E-mail",
		PublishChannelID: annChan,
		LogChannelID:     logChan,
	})
	require.NoError(t, err)
	return raffle
}

func member(userID string, admin bool) *discordgo.Member {
	m := &discordgo.Member{User: &discordgo.User{ID: userID}}
	if admin {
		m.Permissions = discordgo.PermissionAdministrator
	}
	return m
}

func command(name, userID string, admin bool, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: adminChan,
		Member:    member(userID, admin),
		Data:      discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}
}

func strOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func chanOpt(value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: optChannel, Type: discordgo.ApplicationCommandOptionChannel, Value: value}
}

func component(a action.Action, userID string, admin bool, values ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guildID,
		ChannelID: adminChan,
		Member:    member(userID, admin),
		Message:   &discordgo.Message{ID: "clicked"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: action.MustEncode(a), Values: values},
	}
}

// dmComponent is a component clicked inside a DM, where there is no member.
func dmComponent(a action.Action, userID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "dm-" + userID,
		User:      &discordgo.User{ID: userID},
		Data:      discordgo.MessageComponentInteractionData{CustomID: action.MustEncode(a)},
	}
}

func modal(a action.Action, userID string, inputs map[string]string) *discordgo.Interaction {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for id, value := range inputs {
		rows = append(rows, &discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: id, Value: value}},
		})
	}
	return &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   guildID,
		ChannelID: adminChan,
		Member:    member(userID, true),
		Data:      discordgo.ModalSubmitInteractionData{CustomID: action.MustEncode(a), Components: rows},
	}
}

func responseContent(r *discordgo.InteractionResponse) string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Content
}

func configureGuild(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	h.bot.HandleInteraction(ctx, command(cmdPublishChannel, adminID, true, chanOpt(annChan)))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "<#"+annChan+">")
	h.bot.HandleInteraction(ctx, command(cmdLogChannel, adminID, true, chanOpt(logChan)))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "<#"+logChan+">")
}

func TestDispatcher_Resolve(t *testing.T) {
	d := NewDispatcher()
	called := ""
	d.Command(cmdHelp, func(context.Context, Event) error { called = "help"; return nil })
	d.Component(action.Participate, func(_ context.Context, e Event) error { called = e.Action.RaffleID; return nil })

	e, h, err := d.Resolve(command(cmdHelp, adminID, true))
	require.NoError(t, err)
	assert.Equal(t, EventCommand, e.Kind)
	require.NoError(t, h(context.Background(), e))
	assert.Equal(t, "help", called)

	e, h, err = d.Resolve(component(action.Action{Kind: action.Participate, RaffleID: "r1"}, buyerID, false))
	require.NoError(t, err)
	assert.Equal(t, EventComponent, e.Kind)
	assert.Equal(t, buyerID, e.UserID())
	assert.False(t, e.IsAdmin())
	require.NoError(t, h(context.Background(), e))
	assert.Equal(t, "r1", called)

	_, _, err = d.Resolve(command("desconhecido", adminID, true))
	assert.ErrorIs(t, err, ErrNoRoute)

	_, _, err = d.Resolve(component(action.Action{Kind: action.Approve, RaffleID: "r1", UserID: "u"}, adminID, true))
	assert.ErrorIs(t, err, ErrNoRoute)

	bad := &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "nonsense:1"},
	}
	_, _, err = d.Resolve(bad)
	assert.ErrorIs(t, err, action.ErrUnknownKind)
}

func TestEvent_UserIDInDM(t *testing.T) {
	e := Event{Interaction: dmComponent(action.Action{Kind: action.ChooseQuantity, RaffleID: "r"}, buyerID)}
	assert.Equal(t, buyerID, e.UserID())
	assert.False(t, e.IsAdmin())
}

func TestCommands_AdminOnly(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, len(commandHelp))

	names := make(map[string]bool)
	for _, c := range cmds {
		assert.False(t, names[c.Name], "duplicate command %s", c.Name)
		names[c.Name] = true
		require.NotNil(t, c.DefaultMemberPermissions)
		assert.Equal(t, int64(discordgo.PermissionAdministrator), *c.DefaultMemberPermissions)
		require.NotNil(t, c.DMPermission)
		assert.False(t, *c.DMPermission)
	}
	for _, c := range commandHelp {
		assert.True(t, names[c.name], "help lists unknown command %s", c.name)
	}
}

func TestTallyLine(t *testing.T) {
	assert.Equal(t, "7/10", TallyLine(domain.Tally{MaxTickets: 10, Sold: 3, Remaining: 7}))
	assert.Equal(t, "4/10 (3 em processo de compra)", TallyLine(domain.Tally{MaxTickets: 10, Sold: 3, Reserved: 3, Remaining: 4}))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&service.CapacityError{Remaining: 0}, "Que pena! Os tickets para esta rifa já se esgotaram."},
		{fmt.Errorf("wrap: %w", &service.CapacityError{Remaining: 4}), "❌ Não há tickets suficientes. Restam apenas **4**."},
		{service.ErrNotStarted, "Esta rifa ainda não começou."},
		{fmt.Errorf("s.store.GetRaffle -> %w", service.ErrRaffleNotFound), "❌ Rifa não encontrada com este ID."},
		{errors.New("boom"), genericFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
	assert.False(t, isUserError(errors.New("boom")))
	assert.True(t, isUserError(service.ErrAlreadyFinalized))
}

func TestHandleConfigure_RequiresChannels(t *testing.T) {
	h := newHarness(t)

	h.bot.HandleInteraction(context.Background(), command(cmdConfigure, adminID, true))

	assert.Contains(t, responseContent(h.discord.lastResponse()), "canais padrão")
	_, err := h.sessions.Get(context.Background(), adminID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestCreationPanel_Flow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	configureGuild(t, h)

	h.bot.HandleInteraction(ctx, command(cmdConfigure, adminID, true))
	panels := h.discord.sentTo(adminChan)
	require.Len(t, panels, 1)
	assert.Equal(t, "Painel de Criação de Rifa", panels[0].Embeds[0].Title)

	s, err := h.sessions.Get(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, annChan, s.Draft.PublishChannelID)
	assert.Equal(t, logChan, s.Draft.LogChannelID)
	require.NotEmpty(t, s.PanelMessageID)

	// Opening a second panel is refused while the first is alive.
	h.bot.HandleInteraction(ctx, command(cmdConfigure, adminID, true))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "já tem um painel")

	pick := func(values ...string) *discordgo.Interaction {
		i := component(action.Action{Kind: action.PanelField}, adminID, true, values...)
		i.Message.ID = s.PanelMessageID
		return i
	}

	answer := func(field, reply string) {
		done := make(chan struct{})
		go func() {
			h.bot.HandleInteraction(ctx, pick(field))
			close(done)
		}()
		require.Eventually(t, func() bool { return h.waiter.Deliver(adminID, adminChan, reply) }, time.Second, 5*time.Millisecond)
		<-done
	}

	answer(string(session.FieldTitle), "Rifa de Natal")
	answer(string(session.FieldDescription), "Uma cesta incrível")
	answer(string(session.FieldPrice), "R$ 2,50")
	answer(string(session.FieldMaxTickets), "50")
	answer(string(session.FieldPaymentKey), "11999990000")
	answer(string(session.FieldPrice), "grátis")

	followups := h.discord.followupContents()
	require.Len(t, followups, 6)
	assert.Contains(t, followups[0], "Título")
	assert.Contains(t, followups[5], "❌ Erro")

	h.bot.HandleInteraction(ctx, pick(string(session.FieldDates)))
	resp := h.discord.lastResponse()
	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseModal, resp.Type)

	start := time.Now().Add(-time.Hour).UTC().Format(session.DateLayout)
	end := time.Now().Add(48 * time.Hour).UTC().Format(session.DateLayout)
	h.bot.HandleInteraction(ctx, modal(action.Action{Kind: action.PanelDates}, adminID, map[string]string{
		startInputID: start,
		endInputID:   end,
	}))
	assert.Equal(t, "✅ Datas atualizadas!", responseContent(h.discord.lastResponse()))

	h.bot.HandleInteraction(ctx, pick(keyKindOption))
	assert.NotEmpty(t, h.discord.lastResponse().Data.Components)

	h.bot.HandleInteraction(ctx, component(action.Action{Kind: action.PanelKeyKind}, adminID, true, "Celular"))
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, h.discord.lastResponse().Type)

	s, err = h.sessions.Get(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, "Rifa de Natal", s.Draft.Title)
	assert.True(t, s.Draft.PricePerTicket.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 50, s.Draft.MaxTickets)
	assert.Equal(t, "Celular", s.Draft.PaymentKeyKind)
	assert.NoError(t, service.ValidateDraft(s.Draft))
	assert.Greater(t, h.discord.editCount(), 0)

	publish := component(action.Action{Kind: action.PanelPublish}, adminID, true)
	publish.Message.ID = s.PanelMessageID
	h.bot.HandleInteraction(ctx, publish)
	assert.Contains(t, h.discord.lastWebhookContent(), "✅ Rifa publicada")

	announcements := h.discord.sentTo(annChan)
	require.Len(t, announcements, 1)
	assert.Contains(t, announcements[0].Embeds[0].Title, "Rifa de Natal")
	assert.Contains(t, h.discord.deletedMessages(), adminChan+"/"+s.PanelMessageID)

	_, err = h.sessions.Get(ctx, adminID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	raffles, err := h.svc.ListOpenRaffles(ctx, guildID)
	require.NoError(t, err)
	require.Len(t, raffles, 1)
	assert.Equal(t, adminID, raffles[0].CreatorID)
}

func TestCreationPanel_PromptTimeout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.bot.SetReplyTimeout(20 * time.Millisecond)
	configureGuild(t, h)
	h.bot.HandleInteraction(ctx, command(cmdConfigure, adminID, true))
	s, err := h.sessions.Get(ctx, adminID)
	require.NoError(t, err)

	i := component(action.Action{Kind: action.PanelField}, adminID, true, string(session.FieldTitle))
	i.Message.ID = s.PanelMessageID
	h.bot.HandleInteraction(ctx, i)

	assert.Equal(t, []string{"⌛ Tempo esgotado. Selecione o campo novamente."}, h.discord.followupContents())
}

func TestCreationPanel_OtherAdminsPanel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	configureGuild(t, h)
	h.bot.HandleInteraction(ctx, command(cmdConfigure, adminID, true))

	h.bot.HandleInteraction(ctx, component(action.Action{Kind: action.PanelCancel}, adminID, true))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "outro administrador")

	h.bot.HandleInteraction(ctx, component(action.Action{Kind: action.PanelCancel}, "other", true))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "não tem um painel")
}

func TestPurchase_Flow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	raffle := h.publish(t, 10)

	h.bot.HandleInteraction(ctx, component(action.Action{Kind: action.Participate, RaffleID: raffle.ID}, buyerID, false))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "privado")
	dms := h.discord.sentTo("dm-" + buyerID)
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Content, "Restam **10** tickets")

	h.bot.HandleInteraction(ctx, dmComponent(action.Action{Kind: action.ChooseQuantity, RaffleID: raffle.ID}, buyerID))
	assert.Equal(t, discordgo.InteractionResponseModal, h.discord.lastResponse().Type)

	qty := modal(action.Action{Kind: action.QuantityModal, RaffleID: raffle.ID}, buyerID, map[string]string{quantityInputID: "abc"})
	h.bot.HandleInteraction(ctx, qty)
	assert.Equal(t, "❌ Por favor, insira um número válido e positivo.", responseContent(h.discord.lastResponse()))

	qty = modal(action.Action{Kind: action.QuantityModal, RaffleID: raffle.ID}, buyerID, map[string]string{quantityInputID: "3"})
	qty.Member = nil
	qty.User = &discordgo.User{ID: buyerID}
	h.bot.HandleInteraction(ctx, qty)
	assert.Contains(t, responseContent(h.discord.lastResponse()), "R$ 16.50")

	_, tally, err := h.svc.GetRaffleWithTally(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, tally.Reserved)

	h.bot.HandleMessage(ctx, &discordgo.Message{
		ChannelID:   "dm-" + buyerID,
		Author:      &discordgo.User{ID: buyerID},
		Attachments: []*discordgo.MessageAttachment{{URL: "https://cdn.example.com/proof.png"}},
	})
	approvals := h.discord.sentTo(logChan)
	require.Len(t, approvals, 1)
	assert.Equal(t, "https://cdn.example.com/proof.png", approvals[0].Embeds[0].Image.URL)
	dms = h.discord.sentTo("dm-" + buyerID)
	assert.Contains(t, dms[len(dms)-1].Content, "Comprovante recebido")

	approve := action.Action{Kind: action.Approve, RaffleID: raffle.ID, UserID: buyerID}

	h.bot.HandleInteraction(ctx, component(approve, "intruder", false))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "Apenas administradores")

	h.bot.HandleInteraction(ctx, component(approve, adminID, true))
	resp := h.discord.lastResponse()
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Contains(t, resp.Data.Content, "aprovado por <@"+adminID+">")

	participants, err := h.store.ListParticipants(ctx, raffle.ID, domain.ParticipantConfirmed)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, []int{1, 2, 3}, participants[0].TicketNumbers)

	dms = h.discord.sentTo("dm-" + buyerID)
	assert.Contains(t, dms[len(dms)-1].Content, "`1, 2, 3`")

	h.bot.HandleInteraction(ctx, component(approve, adminID, true))
	assert.Equal(t, "❌ Este participante não foi encontrado ou já foi processado.", responseContent(h.discord.lastResponse()))

	// Only buyers with an unpaid reservation have their messages forwarded.
	h.bot.HandleMessage(ctx, &discordgo.Message{ChannelID: "dm-" + buyerID, Author: &discordgo.User{ID: buyerID}, Content: "obrigado!"})
	assert.Len(t, h.discord.sentTo(logChan), 1)

	_, _, err = h.svc.Reserve(ctx, raffle.ID, "second", 1)
	require.NoError(t, err)
	h.bot.HandleMessage(ctx, &discordgo.Message{ChannelID: "dm-second", Author: &discordgo.User{ID: "second"}, Content: "paguei agora"})
	forwarded := h.discord.sentTo(logChan)
	require.Len(t, forwarded, 2)
	assert.Contains(t, forwarded[1].Embeds[0].Description, "paguei agora")
}

func TestCancelPurchase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	raffle := h.publish(t, 5)

	_, _, err := h.svc.Reserve(ctx, raffle.ID, buyerID, 2)
	require.NoError(t, err)

	cancel := dmComponent(action.Action{Kind: action.CancelPurchase, RaffleID: raffle.ID}, buyerID)
	h.bot.HandleInteraction(ctx, cancel)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, h.discord.lastResponse().Type)

	_, tally, err := h.svc.GetRaffleWithTally(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, tally.Remaining)

	h.bot.HandleInteraction(ctx, cancel)
	assert.Equal(t, "Você não tem uma compra pendente nesta rifa.", responseContent(h.discord.lastResponse()))
}

func TestParticipate_DMClosed(t *testing.T) {
	h := newHarness(t)
	raffle := h.publish(t, 5)
	h.discord.failDM = true

	h.bot.HandleInteraction(context.Background(), component(action.Action{Kind: action.Participate, RaffleID: raffle.ID}, buyerID, false))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "DMs estão abertas")
}

func TestParticipate_SoldOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	raffle := h.publish(t, 2)
	_, _, err := h.svc.Reserve(ctx, raffle.ID, "someone", 2)
	require.NoError(t, err)

	h.bot.HandleInteraction(ctx, component(action.Action{Kind: action.Participate, RaffleID: raffle.ID}, buyerID, false))
	assert.Equal(t, "Que pena! Os tickets para esta rifa já se esgotaram.", responseContent(h.discord.lastResponse()))
}

func TestDrawAndCancelCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	raffle := h.publish(t, 5)

	_, _, err := h.svc.Reserve(ctx, raffle.ID, buyerID, 1)
	require.NoError(t, err)
	_, _, err = h.svc.Confirm(ctx, domain.Actor{UserID: adminID, Admin: true}, raffle.ID, buyerID)
	require.NoError(t, err)

	h.bot.HandleInteraction(ctx, command(cmdDraw, adminID, true, strOpt(optRaffleID, raffle.ID)))
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, h.discord.lastResponse().Type)
	assert.Contains(t, h.discord.lastWebhookContent(), "Vencedor: <@"+buyerID+"> com o número **1**")

	h.bot.HandleInteraction(ctx, command(cmdDraw, adminID, true, strOpt(optRaffleID, raffle.ID)))
	assert.Equal(t, "⚠️ Esta rifa já foi encerrada ou cancelada.", h.discord.lastWebhookContent())

	other := h.publish(t, 5)
	h.bot.HandleInteraction(ctx, command(cmdCancel, adminID, true, strOpt(optRaffleID, other.ID)))
	assert.Contains(t, h.discord.lastWebhookContent(), "foi cancelada")

	h.bot.HandleInteraction(ctx, command(cmdCancel, adminID, true, strOpt(optRaffleID, "missing")))
	assert.Equal(t, "❌ Rifa não encontrada com este ID.", h.discord.lastWebhookContent())
}

func TestListCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.bot.HandleInteraction(ctx, command(cmdList, adminID, true))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "Não há nenhuma rifa ativa")

	raffle := h.publish(t, 5)
	h.bot.HandleInteraction(ctx, command(cmdList, adminID, true))
	resp := h.discord.lastResponse()
	require.Len(t, resp.Data.Embeds, 1)
	assert.Contains(t, resp.Data.Embeds[0].Description, raffle.ID)

	h.bot.HandleInteraction(ctx, command(cmdListParticipant, adminID, true, strOpt(optRaffleID, raffle.ID)))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "Nenhum participante confirmado")

	_, _, err := h.svc.Reserve(ctx, raffle.ID, buyerID, 2)
	require.NoError(t, err)
	_, _, err = h.svc.Confirm(ctx, domain.Actor{UserID: adminID, Admin: true}, raffle.ID, buyerID)
	require.NoError(t, err)

	h.bot.HandleInteraction(ctx, command(cmdListParticipant, adminID, true, strOpt(optRaffleID, raffle.ID)))
	resp = h.discord.lastResponse()
	require.Len(t, resp.Data.Files, 1)
	assert.Equal(t, "participantes_"+raffle.ID+".txt", resp.Data.Files[0].Name)

	h.bot.HandleInteraction(ctx, command(cmdHelp, adminID, true))
	assert.Equal(t, "Painel de Ajuda | Comandos de Administrador", h.discord.lastResponse().Data.Embeds[0].Title)
}

func TestQuickRaffleCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	configureGuild(t, h)

	tickets := &discordgo.ApplicationCommandInteractionDataOption{Name: optTickets, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(20)}

	h.bot.HandleInteraction(ctx, command(cmdQuick, adminID, true, strOpt(optTitle, "Teste"), strOpt(optPrice, "zero"), tickets))
	assert.Contains(t, responseContent(h.discord.lastResponse()), "❌ Erro")

	h.bot.HandleInteraction(ctx, command(cmdQuick, adminID, true, strOpt(optTitle, "Teste"), strOpt(optPrice, "1,00"), tickets))
	assert.Contains(t, h.discord.lastWebhookContent(), "Rifa rápida **Teste** publicada")

	raffles, err := h.svc.ListOpenRaffles(ctx, guildID)
	require.NoError(t, err)
	require.Len(t, raffles, 1)
	assert.Equal(t, 20, raffles[0].MaxTickets)
	assert.Equal(t, "Chave Aleatória", raffles[0].PaymentKeyKind)
}

type brokenRaffles struct {
	RaffleService
}

func (brokenRaffles) ListOpenRaffles(context.Context, string) ([]domain.Raffle, error) {
	return nil, errors.New("connection reset")
}

func TestHandleInteraction_UnexpectedError(t *testing.T) {
	discord := &fakeDiscord{}
	gateway := NewGateway(discord, NewRenderer(""))
	b := New(discord, brokenRaffles{}, nil, session.NewReplyWaiter(), gateway, time.Second)

	b.HandleInteraction(context.Background(), command(cmdList, adminID, true))

	assert.Equal(t, genericFailure, responseContent(discord.lastResponse()))
}

func TestHandleMessage_GuildReplies(t *testing.T) {
	h := newHarness(t)

	got := make(chan string, 1)
	go func() {
		content, err := h.waiter.Await(context.Background(), adminID, adminChan, time.Second)
		if err == nil {
			got <- content
		}
	}()

	require.Eventually(t, func() bool {
		h.bot.HandleMessage(context.Background(), &discordgo.Message{
			GuildID: guildID, ChannelID: adminChan, Author: &discordgo.User{ID: adminID}, Content: "valor",
		})
		select {
		case content := <-got:
			return content == "valor"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	h.bot.HandleMessage(context.Background(), &discordgo.Message{ChannelID: "dm-bot", Author: &discordgo.User{ID: "bot", Bot: true}, Content: "x"})
	assert.Empty(t, h.discord.sentTo(logChan))
}
