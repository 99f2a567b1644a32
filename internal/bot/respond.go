package bot

import (
	"errors"
	"fmt"

	"github.com/Victorh-Tasca/discord-example-app/internal/service"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"

	"github.com/bwmarrin/discordgo"
)

const genericFailure = "❌ Ocorreu um erro ao processar sua solicitação."

// userMessage is what the invoker sees when an operation fails.
func userMessage(err error) string {
	var capErr *service.CapacityError
	switch {
	case errors.As(err, &capErr):
		if capErr.Remaining <= 0 {
			return "Que pena! Os tickets para esta rifa já se esgotaram."
		}
		return fmt.Sprintf("❌ Não há tickets suficientes. Restam apenas **%d**.", capErr.Remaining)
	case errors.Is(err, service.ErrInvalidQuantity):
		return "❌ Por favor, insira um número válido e positivo."
	case errors.Is(err, service.ErrRaffleNotFound):
		return "❌ Rifa não encontrada com este ID."
	case errors.Is(err, service.ErrRaffleNotOpen):
		return "Esta rifa já foi encerrada."
	case errors.Is(err, service.ErrNotStarted):
		return "Esta rifa ainda não começou."
	case errors.Is(err, service.ErrAlreadyParticipating):
		return "⚠️ Você já tem uma compra em andamento ou confirmada nesta rifa."
	case errors.Is(err, service.ErrAlreadyFinalized):
		return "⚠️ Esta rifa já foi encerrada ou cancelada."
	case errors.Is(err, service.ErrAlreadyProcessed), errors.Is(err, service.ErrParticipantNotFound):
		return "❌ Este participante não foi encontrado ou já foi processado."
	case errors.Is(err, service.ErrIncompleteConfiguration):
		return "❌ Preencha todos os campos obrigatórios antes de publicar."
	case errors.Is(err, service.ErrPermissionDenied):
		return "❌ Você precisa ser um administrador para usar este comando."
	case errors.Is(err, service.ErrGuildNotConfigured):
		return "❌ Os canais padrão para este servidor ainda não foram definidos. Use os comandos `/configurar_canal_anuncios` e `/configurar_canal_logs` primeiro."
	case errors.Is(err, service.ErrExternalDelivery):
		return "❌ Não foi possível enviar a mensagem no Discord. Verifique as permissões nos canais configurados."
	case errors.Is(err, session.ErrInvalidValue):
		return "❌ Erro: " + err.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return "⚠️ Você não tem um painel de criação ativo. Use `/configurar_rifa`."
	default:
		return genericFailure
	}
}

// isUserError reports whether err is an expected outcome that only needs a message.
func isUserError(err error) bool {
	return userMessage(err) != genericFailure
}

func (b *Bot) respond(i *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	return b.discord.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) reply(i *discordgo.Interaction, content string) error {
	return b.respond(i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) replyEmbed(i *discordgo.Interaction, embed *discordgo.MessageEmbed) error {
	return b.respond(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) deferReply(i *discordgo.Interaction) error {
	return b.discord.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (b *Bot) editReply(i *discordgo.Interaction, content string) error {
	_, err := b.discord.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content})
	return err
}

func (b *Bot) followup(i *discordgo.Interaction, content string) error {
	_, err := b.discord.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

func (b *Bot) updateMessage(i *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	return b.discord.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

// replyErr answers expected failures with a message and passes anything else up.
func (b *Bot) replyErr(i *discordgo.Interaction, err error) error {
	if !isUserError(err) {
		return err
	}
	return b.reply(i, userMessage(err))
}

// editErr is replyErr for deferred responses.
func (b *Bot) editErr(i *discordgo.Interaction, err error) error {
	if !isUserError(err) {
		_ = b.editReply(i, genericFailure)
		return err
	}
	return b.editReply(i, userMessage(err))
}
