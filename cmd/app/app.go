package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Victorh-Tasca/discord-example-app/internal/api"
	"github.com/Victorh-Tasca/discord-example-app/internal/bot"
	"github.com/Victorh-Tasca/discord-example-app/internal/config"
	"github.com/Victorh-Tasca/discord-example-app/internal/db"
	"github.com/Victorh-Tasca/discord-example-app/internal/logger"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository/dao"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"
	"github.com/Victorh-Tasca/discord-example-app/internal/session"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize storage -> %w", err)
	}

	sessionStore, closeSessions, err := openSessionStore(ctx, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize session storage -> %w", err)
	}
	defer closeSessions()

	discordSession, err := bot.NewSession(conf.Discord)
	if err != nil {
		return fmt.Errorf("failed to initialize discord session -> %w", err)
	}

	gateway := bot.NewGateway(discordSession, bot.NewRenderer(conf.Raffle.CurrencySymbol))
	svc := service.NewRaffleService(store, gateway, service.NewDrawEngine(nil), conf.Raffle)
	sessions := session.NewManager(sessionStore, conf.Raffle.SessionTTL, conf.Raffle.Location())
	b := bot.New(discordSession, svc, sessions, session.NewReplyWaiter(), gateway, conf.Raffle.ReplyTimeout)
	sweeper := service.NewSweeper(svc, conf.Raffle.SweepInterval)
	server := api.NewServer(conf, svc)
	svc.AddObserver(server.Live)

	_, err = config.Watch(configPath, func(updated *config.AppConfig) {
		sweeper.SetInterval(updated.Raffle.SweepInterval)
		sessions.SetTTL(updated.Raffle.SessionTTL)
		b.SetReplyTimeout(updated.Raffle.ReplyTimeout)
		zap.L().Info("config reloaded",
			zap.Duration("sweep_interval", sweeper.Interval()),
			zap.Duration("session_ttl", sessions.TTL()),
			zap.Duration("reply_timeout", b.ReplyTimeout()),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to watch config -> %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx, discordSession, conf.Discord)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sessions.RunEviction(gctx, time.Minute)
		return nil
	})

	zap.L().Info("raffle bot started",
		zap.String("storage", conf.Storage.Backend),
		zap.String("sessions", conf.Session.Backend),
	)

	if err = g.Wait(); err != nil {
		return fmt.Errorf("raffle bot stopped -> %w", err)
	}
	zap.L().Info("raffle bot stopped")

	return nil
}

func openStore(conf *config.AppConfig) (service.Store, error) {
	switch conf.Storage.Backend {
	case config.BackendPostgres:
		var (
			postgresDB *gorm.DB
			err        error
		)
		if conf.Postgres.URL != "" {
			postgresDB, err = db.OpenPostgresWithURL(conf.Postgres.URL)
		} else {
			postgresDB, err = db.OpenPostgres(conf.Postgres)
		}
		if err != nil {
			return nil, err
		}

		return repository.NewRaffleRepository(
			dao.NewRaffleDAO(postgresDB),
			dao.NewParticipantDAO(postgresDB),
			dao.NewGuildSettingsDAO(postgresDB),
		), nil
	case config.BackendMemory, "":
		zap.L().Warn("using in-memory storage, raffles are lost on restart")
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func openSessionStore(ctx context.Context, conf *config.AppConfig) (session.Store, func(), error) {
	switch conf.Session.Backend {
	case config.BackendRedis:
		client, err := session.NewRedisClient(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				zap.L().Warn("failed to close redis client", zap.Error(err))
			}
		}
		return session.NewRedisStore(client), closeFn, nil
	case config.BackendMemory, "":
		return session.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", conf.Session.Backend)
	}
}
