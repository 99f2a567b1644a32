package bot

import (
	"context"
	"fmt"

	"github.com/Victorh-Tasca/discord-example-app/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

func NewSession(conf config.DiscordConfig) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + conf.Token)
	if err != nil {
		return nil, fmt.Errorf("discordgo.New -> %w", err)
	}
	s.Identify.Intents = intents

	return s, nil
}

// Run connects s to the gateway, registers the slash commands and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context, s *discordgo.Session, conf config.DiscordConfig) error {
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		zap.L().Info("connected to discord", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(ctx, i.Interaction)
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.HandleMessage(ctx, m.Message)
	})

	if err := s.Open(); err != nil {
		return fmt.Errorf("s.Open -> %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			zap.L().Warn("failed to close discord session", zap.Error(err))
		}
	}()

	appID := conf.AppID
	if appID == "" && s.State != nil && s.State.User != nil {
		appID = s.State.User.ID
	}
	registered, err := s.ApplicationCommandBulkOverwrite(appID, conf.GuildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("s.ApplicationCommandBulkOverwrite -> %w", err)
	}
	zap.L().Info("slash commands registered", zap.Int("count", len(registered)), zap.String("guild_id", conf.GuildID))

	<-ctx.Done()

	return nil
}
