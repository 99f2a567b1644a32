package bot

import (
	"github.com/bwmarrin/discordgo"
)

const (
	cmdHelp            = "ajuda"
	cmdConfigure       = "configurar_rifa"
	cmdPublishChannel  = "configurar_canal_anuncios"
	cmdLogChannel      = "configurar_canal_logs"
	cmdList            = "listar_rifas"
	cmdListParticipant = "listar_participantes"
	cmdDraw            = "encerrar_rifa"
	cmdCancel          = "cancelar_rifa"
	cmdQuick           = "rifa_rapida"

	optRaffleID = "id_da_rifa"
	optChannel  = "canal"
	optTitle    = "titulo"
	optPrice    = "preco"
	optTickets  = "tickets"
)

var adminPermission int64 = discordgo.PermissionAdministrator

var commandHelp = []struct {
	name string
	help string
}{
	{cmdConfigure, "Abre um painel interativo para criar uma nova rifa detalhada."},
	{cmdPublishChannel, "Define o canal padrão para anúncios de rifas neste servidor."},
	{cmdLogChannel, "Define o canal padrão para logs de pagamento neste servidor."},
	{cmdList, "Lista todas as rifas que estão ativas no momento."},
	{cmdListParticipant, "Gera um arquivo `.txt` com os participantes e números de uma rifa."},
	{cmdDraw, "Encerra uma rifa e sorteia um vencedor. Requer o `id_da_rifa`."},
	{cmdCancel, "Cancela uma rifa sem um vencedor. Requer o `id_da_rifa`."},
	{cmdQuick, "Cria uma rifa de teste com valores padrão."},
	{cmdHelp, "Exibe esta mensagem de ajuda."},
}

func raffleIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optRaffleID,
		Description: "O ID da rifa",
		Required:    true,
	}
}

func channelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         optChannel,
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

// Commands returns every slash command. All of them are restricted to administrators.
func Commands() []*discordgo.ApplicationCommand {
	dm := false
	commands := []*discordgo.ApplicationCommand{
		{Name: cmdHelp, Description: "Mostra todos os comandos de administrador."},
		{Name: cmdConfigure, Description: "Abre o painel de criação de rifa."},
		{
			Name:        cmdPublishChannel,
			Description: "Define o canal padrão de anúncios de rifas.",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("Canal onde as rifas serão anunciadas")},
		},
		{
			Name:        cmdLogChannel,
			Description: "Define o canal padrão de logs de pagamento.",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("Canal onde os comprovantes serão enviados")},
		},
		{Name: cmdList, Description: "Lista as rifas ativas neste servidor."},
		{
			Name:        cmdListParticipant,
			Description: "Exporta os participantes confirmados de uma rifa.",
			Options:     []*discordgo.ApplicationCommandOption{raffleIDOption()},
		},
		{
			Name:        cmdDraw,
			Description: "Encerra uma rifa e sorteia o vencedor.",
			Options:     []*discordgo.ApplicationCommandOption{raffleIDOption()},
		},
		{
			Name:        cmdCancel,
			Description: "Cancela uma rifa sem vencedor.",
			Options:     []*discordgo.ApplicationCommandOption{raffleIDOption()},
		},
		{
			Name:        cmdQuick,
			Description: "Publica uma rifa de teste que dura 24 horas.",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: optTitle, Description: "Título da rifa", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: optPrice, Description: "Preço por número (ex: 5,00)", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: optTickets, Description: "Quantidade de números", Required: true, MinValue: floatPtr(1)},
			},
		},
	}

	for _, c := range commands {
		c.DefaultMemberPermissions = &adminPermission
		c.DMPermission = &dm
	}

	return commands
}

func floatPtr(v float64) *float64 {
	return &v
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
