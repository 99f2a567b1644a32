package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/action"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

const (
	colorDefault   = 0x5865F2
	colorGold      = 0xFFD700
	colorCancelled = 0xFF0000
	colorApproval  = 0xF1C40F
	colorForward   = 0x3498DB
	colorHelp      = 0x0099FF

	notSet = "Não definido"
)

// Renderer turns domain values into Discord messages.
type Renderer struct {
	currency string
}

func NewRenderer(currency string) *Renderer {
	if currency == "" {
		currency = "R$"
	}
	return &Renderer{currency: currency}
}

func (r *Renderer) money(d decimal.Decimal) string {
	return fmt.Sprintf("%s %s", r.currency, d.StringFixed(2))
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return notSet
	}
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func channelMention(id string) string {
	if id == "" {
		return notSet
	}
	return "<#" + id + ">"
}

func embedColor(hex string) int {
	if hex == "" {
		return colorDefault
	}
	return session.ColorValue(hex)
}

// TallyLine renders "remaining/max", adding the count of tickets awaiting payment.
func TallyLine(t domain.Tally) string {
	line := fmt.Sprintf("%d/%d", t.Remaining, t.MaxTickets)
	if t.Reserved > 0 {
		line += fmt.Sprintf(" (%d em processo de compra)", t.Reserved)
	}
	return line
}

func (r *Renderer) AnnouncementEmbed(raffle domain.Raffle, tally domain.Tally) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎉 Rifa: %s 🎉", raffle.Title),
		Description: raffle.Description,
		Color:       embedColor(raffle.Color),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎟️ Tickets Restantes", Value: TallyLine(tally)},
			{Name: "💰 Preço por Ticket", Value: r.money(raffle.PricePerTicket)},
			{Name: "▶️ Início", Value: timestamp(raffle.StartTime)},
			{Name: "⏹️ Encerramento", Value: timestamp(raffle.EndTime)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ID: " + raffle.ID},
	}
	if raffle.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: raffle.ImageURL}
	}

	return embed
}

func participateRow(raffleID string, disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Participar",
					Emoji:    &discordgo.ComponentEmoji{Name: "🎟️"},
					Style:    discordgo.SuccessButton,
					CustomID: action.MustEncode(action.Action{Kind: action.Participate, RaffleID: raffleID}),
					Disabled: disabled,
				},
			},
		},
	}
}

func (r *Renderer) Announcement(raffle domain.Raffle, tally domain.Tally) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{r.AnnouncementEmbed(raffle, tally)},
		Components: participateRow(raffle.ID, false),
	}
}

func (r *Renderer) AnnouncementUpdate(raffle domain.Raffle, tally domain.Tally) *discordgo.MessageEdit {
	components := participateRow(raffle.ID, false)
	edit := discordgo.NewMessageEdit(raffle.PublishChannelID, raffle.MessageID).
		SetEmbeds([]*discordgo.MessageEmbed{r.AnnouncementEmbed(raffle, tally)})
	edit.Components = &components
	return edit
}

// ClosedAnnouncement disables the participate button and marks the raffle as finished.
func (r *Renderer) ClosedAnnouncement(raffle domain.Raffle) *discordgo.MessageEdit {
	embed := r.AnnouncementEmbed(raffle, domain.Tally{MaxTickets: raffle.MaxTickets})
	embed.Fields = embed.Fields[1:]
	switch raffle.Status {
	case domain.RaffleCancelled:
		embed.Title = fmt.Sprintf("❌ RIFA CANCELADA: %s", raffle.Title)
		embed.Description = "Esta rifa foi cancelada pela administração."
		embed.Color = colorCancelled
	default:
		embed.Title = fmt.Sprintf("🔒 RIFA ENCERRADA: %s", raffle.Title)
		embed.Color = colorGold
	}

	components := participateRow(raffle.ID, true)
	edit := discordgo.NewMessageEdit(raffle.PublishChannelID, raffle.MessageID).
		SetEmbeds([]*discordgo.MessageEmbed{embed})
	edit.Components = &components
	return edit
}

func (r *Renderer) DrawResult(raffle domain.Raffle, outcome domain.DrawOutcome) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎉 Sorteio da Rifa \"%s\" Realizado! 🎉", raffle.Title),
		Color: colorGold,
	}
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if raffle.MessageID != "" {
		msg.Reference = &discordgo.MessageReference{MessageID: raffle.MessageID, ChannelID: raffle.PublishChannelID}
	}

	if outcome.NoParticipants {
		embed.Description = "A rifa foi encerrada sem participantes confirmados. Nenhum vencedor foi sorteado."
		return msg
	}

	embed.Description = fmt.Sprintf(
		"O número da sorte foi **%d**!\n\nParabéns ao grande vencedor: <@%s>! 🥳\n\nVocê ganhou: **%s**\n\nA administração entrará em contato.",
		outcome.WinningNumber, outcome.WinnerUserID, raffle.Title)
	msg.Content = fmt.Sprintf("Atenção, <@%s>!", outcome.WinnerUserID)
	msg.AllowedMentions = &discordgo.MessageAllowedMentions{Users: []string{outcome.WinnerUserID}}

	return msg
}

func (r *Renderer) ApprovalRequest(raffle domain.Raffle, p domain.Participant) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       "Solicitação de Aprovação de Pagamento",
		Description: fmt.Sprintf("O usuário <@%s> enviou um comprovante para a rifa **\"%s\"**.", p.UserID, raffle.Title),
		Color:       colorApproval,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Quantidade", Value: fmt.Sprint(p.Quantity), Inline: true},
			{Name: "Valor Total", Value: r.money(p.TotalPrice), Inline: true},
			{Name: "ID da Rifa", Value: "`" + raffle.ID + "`", Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if p.ProofURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.ProofURL}
	}

	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: approvalRow(raffle.ID, p.UserID, false),
	}
}

func approvalRow(raffleID, userID string, disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Aprovar",
					Style:    discordgo.SuccessButton,
					CustomID: action.MustEncode(action.Action{Kind: action.Approve, RaffleID: raffleID, UserID: userID}),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Recusar",
					Style:    discordgo.DangerButton,
					CustomID: action.MustEncode(action.Action{Kind: action.Refuse, RaffleID: raffleID, UserID: userID}),
					Disabled: disabled,
				},
			},
		},
	}
}

func (r *Renderer) ForwardedMessage(userID, content string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Author:      &discordgo.MessageEmbedAuthor{Name: "Mensagem de participante"},
			Description: fmt.Sprintf("<@%s>: %s", userID, content),
			Color:       colorForward,
			Footer:      &discordgo.MessageEmbedFooter{Text: "ID do Usuário: " + userID},
			Timestamp:   time.Now().Format(time.RFC3339),
		}},
	}
}

func (r *Renderer) Notice(n domain.Notice) string {
	switch n.Kind {
	case domain.NoticePaymentApproved:
		return fmt.Sprintf("✅ Pagamento Aprovado! Sua participação na rifa **\"%s\"** foi confirmada.\n**Seus números são: `%s`**.",
			n.Raffle.Title, joinInts(n.Participant.TicketNumbers))
	case domain.NoticePaymentRefused:
		return fmt.Sprintf("❌ Pagamento Recusado para a rifa **\"%s\"**.", n.Raffle.Title)
	case domain.NoticeCapacityExceeded:
		return fmt.Sprintf("⚠️ Não foi possível confirmar sua compra na rifa **\"%s\"**: restam apenas **%d** tickets. A administração entrará em contato.",
			n.Raffle.Title, n.Remaining)
	default:
		return ""
	}
}

// ChooseQuantity is the DM that starts a purchase.
func (r *Renderer) ChooseQuantity(raffle domain.Raffle, tally domain.Tally) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("Olá! Você está participando da rifa **\"%s\"**. Restam **%d** tickets.\n\nClique no botão para escolher.",
			raffle.Title, tally.Remaining),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Escolher quantidade",
						Style:    discordgo.PrimaryButton,
						CustomID: action.MustEncode(action.Action{Kind: action.ChooseQuantity, RaffleID: raffle.ID}),
					},
				},
			},
		},
	}
}

const quantityInputID = "quantity_input"

func QuantityModal(raffleID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: action.MustEncode(action.Action{Kind: action.QuantityModal, RaffleID: raffleID}),
			Title:    "Quantidade de Tickets",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    quantityInputID,
							Label:       "Quantos números você quer?",
							Style:       discordgo.TextInputShort,
							Placeholder: "1",
							Required:    true,
							MaxLength:   5,
						},
					},
				},
			},
		},
	}
}

func (r *Renderer) PaymentInstructions(raffle domain.Raffle, p domain.Participant) (string, []discordgo.MessageComponent) {
	content := fmt.Sprintf("Ótimo! Sua solicitação para **%d número(s)** foi registrada.\nO valor total é **%s**.\n\n"+
		"**Tipo de PIX:** %s\n**Chave PIX para pagamento:** `%s`\n\n"+
		"Após o pagamento, **envie o comprovante (imagem) aqui nesta conversa**.",
		p.Quantity, r.money(p.TotalPrice), raffle.PaymentKeyKind, raffle.PaymentKey)

	return content, []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Cancelar Compra",
					Style:    discordgo.DangerButton,
					CustomID: action.MustEncode(action.Action{Kind: action.CancelPurchase, RaffleID: raffle.ID}),
				},
			},
		},
	}
}

// Panel renders the creation panel for an admin's session.
func (r *Renderer) Panel(s session.Session, complete bool) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	d := s.Draft
	price := notSet
	if d.PricePerTicket.IsPositive() {
		price = r.money(d.PricePerTicket)
	}
	tickets := notSet
	if d.MaxTickets > 0 {
		tickets = fmt.Sprint(d.MaxTickets)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Painel de Criação de Rifa",
		Description: "Use o menu abaixo para configurar cada detalhe da rifa. Esta mensagem será apagada ao publicar ou cancelar.",
		Color:       embedColor(d.Color),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📝 Título", Value: orDefault(d.Title, notSet), Inline: true},
			{Name: "💰 Preço", Value: price, Inline: true},
			{Name: "🎟️ Tickets Totais", Value: tickets, Inline: true},
			{Name: "▶️ Início", Value: timestamp(d.StartTime), Inline: true},
			{Name: "⏹️ Fim", Value: timestamp(d.EndTime), Inline: true},
			{Name: "🎨 Cor (Opcional)", Value: orDefault(d.Color, "Padrão"), Inline: true},
			{Name: "🔑 Chave PIX", Value: orDefault(d.PaymentKey, "Não definida"), Inline: true},
			{Name: "✨ Tipo de PIX", Value: orDefault(d.PaymentKeyKind, notSet), Inline: true},
			{Name: "📢 Anúncio", Value: channelMention(d.PublishChannelID), Inline: true},
			{Name: "📢 Logs", Value: channelMention(d.LogChannelID), Inline: true},
			{Name: "📄 Descrição", Value: orDefault(d.Description, "Não definida")},
			{Name: "🖼️ Imagem (Opcional)", Value: orDefault(d.ImageURL, "Nenhuma")},
		},
	}

	options := make([]discordgo.SelectMenuOption, 0, len(session.Fields)+1)
	for _, f := range session.Fields {
		options = append(options, discordgo.SelectMenuOption{Label: f.Label, Value: string(f.Field)})
	}
	options = append(options, discordgo.SelectMenuOption{Label: "Tipo de chave PIX", Value: keyKindOption})

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    action.MustEncode(action.Action{Kind: action.PanelField}),
					Placeholder: "Escolha um campo para configurar",
					Options:     options,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Publicar Rifa",
					Style:    discordgo.SuccessButton,
					CustomID: action.MustEncode(action.Action{Kind: action.PanelPublish}),
					Disabled: !complete,
				},
				discordgo.Button{
					Label:    "Cancelar",
					Style:    discordgo.DangerButton,
					CustomID: action.MustEncode(action.Action{Kind: action.PanelCancel}),
				},
			},
		},
	}

	return embed, components
}

const keyKindOption = "payment_key_kind"

func KeyKindMenu() []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(session.PaymentKeyKinds))
	for _, k := range session.PaymentKeyKinds {
		options = append(options, discordgo.SelectMenuOption{Label: k, Value: k})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    action.MustEncode(action.Action{Kind: action.PanelKeyKind}),
					Placeholder: "Tipo da chave PIX",
					Options:     options,
				},
			},
		},
	}
}

const (
	startInputID = "start_time"
	endInputID   = "end_time"
)

func DatesModal(s session.Session, loc *time.Location) *discordgo.InteractionResponse {
	value := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(session.DateLayout)
	}

	input := func(id, label string, t time.Time) discordgo.MessageComponent {
		return discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    id,
					Label:       label,
					Style:       discordgo.TextInputShort,
					Placeholder: "25/12/2026 18:00",
					Value:       value(t),
					Required:    true,
					MinLength:   len(session.DateLayout),
					MaxLength:   len(session.DateLayout),
				},
			},
		}
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: action.MustEncode(action.Action{Kind: action.PanelDates}),
			Title:    "Datas da Rifa",
			Components: []discordgo.MessageComponent{
				input(startInputID, "Início (dd/mm/aaaa hh:mm)", s.Draft.StartTime),
				input(endInputID, "Fim (dd/mm/aaaa hh:mm)", s.Draft.EndTime),
			},
		},
	}
}

func (r *Renderer) RaffleList(raffles []domain.Raffle) *discordgo.MessageEmbed {
	entries := make([]string, 0, len(raffles))
	for _, raffle := range raffles {
		entries = append(entries, fmt.Sprintf("**%s**\n*ID:* `%s`\n*Encerra em:* <t:%d:R>", raffle.Title, raffle.ID, raffle.EndTime.Unix()))
	}

	return &discordgo.MessageEmbed{
		Title:       "Rifas Ativas neste Servidor",
		Description: strings.Join(entries, "\n\n"),
		Color:       colorHelp,
	}
}

// ParticipantsFile renders one line per confirmed participant.
func (r *Renderer) ParticipantsFile(raffle domain.Raffle, participants []domain.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Participantes da rifa \"%s\" (ID: %s)\n\n", raffle.Title, raffle.ID)
	for _, p := range participants {
		fmt.Fprintf(&b, "Usuário: %s | Quantidade: %d | Números: %s\n", p.UserID, p.Quantity, joinInts(p.TicketNumbers))
	}
	return b.String()
}

func HelpEmbed() *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(commandHelp))
	for _, c := range commandHelp {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "`/" + c.name + "`", Value: c.help})
	}

	return &discordgo.MessageEmbed{
		Title:       "Painel de Ajuda | Comandos de Administrador",
		Description: "Aqui estão todos os comandos disponíveis para gerenciar as rifas.",
		Color:       colorHelp,
		Fields:      fields,
	}
}

func joinInts(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
