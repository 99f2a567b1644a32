package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// handleParticipate checks the raffle can take the user and continues the purchase in DM.
func (b *Bot) handleParticipate(ctx context.Context, e Event) error {
	raffle, tally, err := b.raffles.CheckParticipation(ctx, actorOf(e), e.Action.RaffleID)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	if err = b.gateway.DirectMessage(ctx, e.UserID(), b.renderer.ChooseQuantity(raffle, tally)); err != nil {
		zap.L().Warn("failed to open purchase DM", zap.String("user_id", e.UserID()), zap.Error(err))
		return b.reply(e.Interaction, "❌ Não consegui te enviar uma mensagem privada. Verifique se suas DMs estão abertas.")
	}

	return b.reply(e.Interaction, "Enviei uma mensagem no seu privado para continuarmos! 📬")
}

func (b *Bot) handleChooseQuantity(_ context.Context, e Event) error {
	return b.discord.InteractionRespond(e.Interaction, QuantityModal(e.Action.RaffleID))
}

func (b *Bot) handleQuantity(ctx context.Context, e Event) error {
	raw := strings.TrimSpace(modalValues(e.Interaction.ModalSubmitData())[quantityInputID])
	quantity, err := strconv.Atoi(raw)
	if err != nil || quantity <= 0 {
		return b.replyErr(e.Interaction, service.ErrInvalidQuantity)
	}

	p, raffle, err := b.raffles.Reserve(ctx, e.Action.RaffleID, e.UserID(), quantity)
	if err != nil {
		return b.replyErr(e.Interaction, err)
	}

	content, components := b.renderer.PaymentInstructions(raffle, p)
	return b.respond(e.Interaction, &discordgo.InteractionResponseData{
		Content:    content,
		Components: components,
	})
}

func (b *Bot) handleCancelPurchase(ctx context.Context, e Event) error {
	if _, err := b.raffles.ReleaseReservation(ctx, e.Action.RaffleID, e.UserID()); err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) || errors.Is(err, service.ErrAlreadyProcessed) {
			return b.reply(e.Interaction, "Você não tem uma compra pendente nesta rifa.")
		}
		return b.replyErr(e.Interaction, err)
	}

	return b.updateMessage(e.Interaction, &discordgo.InteractionResponseData{
		Content:    "✅ Sua intenção de compra foi cancelada. Os tickets foram liberados.",
		Components: []discordgo.MessageComponent{},
	})
}

func (b *Bot) handleApprove(ctx context.Context, e Event) error {
	return b.review(ctx, e, b.raffles.Confirm, "✅ Pagamento de <@%s> aprovado por <@%s>.")
}

func (b *Bot) handleRefuse(ctx context.Context, e Event) error {
	return b.review(ctx, e, b.raffles.Refuse, "❌ Pagamento de <@%s> recusado por <@%s>.")
}

type reviewFunc func(ctx context.Context, actor domain.Actor, raffleID, userID string) (domain.Participant, domain.Raffle, error)

// review runs an approval decision and locks the approval message on success.
func (b *Bot) review(ctx context.Context, e Event, decide reviewFunc, done string) error {
	if !e.IsAdmin() {
		return b.reply(e.Interaction, "❌ Apenas administradores podem aprovar ou recusar pagamentos.")
	}

	raffleID, userID := e.Action.RaffleID, e.Action.UserID
	if _, _, err := decide(ctx, actorOf(e), raffleID, userID); err != nil {
		var capErr *service.CapacityError
		switch {
		case errors.As(err, &capErr):
			return b.reply(e.Interaction, fmt.Sprintf("❌ Não há tickets suficientes para aprovar. Restam apenas **%d**. O participante foi avisado.", capErr.Remaining))
		case errors.Is(err, service.ErrAlreadyProcessed), errors.Is(err, service.ErrParticipantNotFound):
			return b.updateMessage(e.Interaction, &discordgo.InteractionResponseData{
				Content:    userMessage(err),
				Embeds:     messageEmbeds(e.Interaction),
				Components: approvalRow(raffleID, userID, true),
			})
		default:
			return b.replyErr(e.Interaction, err)
		}
	}

	return b.updateMessage(e.Interaction, &discordgo.InteractionResponseData{
		Content:    fmt.Sprintf(done, userID, e.UserID()),
		Embeds:     messageEmbeds(e.Interaction),
		Components: approvalRow(raffleID, userID, true),
	})
}

func messageEmbeds(i *discordgo.Interaction) []*discordgo.MessageEmbed {
	if i.Message == nil {
		return nil
	}
	return i.Message.Embeds
}
