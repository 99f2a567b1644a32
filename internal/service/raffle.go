package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/config"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"

	"go.uber.org/zap"
)

type Store interface {
	GetRaffle(ctx context.Context, id string) (domain.Raffle, error)
	ListOpenRaffles(ctx context.Context, guildID string) ([]domain.Raffle, error)
	InsertRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	UpdateRaffle(ctx context.Context, id string, patch domain.RafflePatch) error
	ListParticipants(ctx context.Context, raffleID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error)
	ListUserParticipants(ctx context.Context, userID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error)
	InsertParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	UpdateParticipant(ctx context.Context, id string, patch domain.ParticipantPatch) error
	GetGuildSettings(ctx context.Context, guildID string) (domain.GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings domain.GuildSettings) (domain.GuildSettings, error)
}

// Messenger delivers raffle events to Discord.
type Messenger interface {
	PublishAnnouncement(ctx context.Context, raffle domain.Raffle, tally domain.Tally) (string, error)
	DeleteAnnouncement(ctx context.Context, raffle domain.Raffle) error
	RefreshAnnouncement(ctx context.Context, raffle domain.Raffle, tally domain.Tally) error
	CloseAnnouncement(ctx context.Context, raffle domain.Raffle, outcome domain.DrawOutcome) error
	CancelAnnouncement(ctx context.Context, raffle domain.Raffle) error
	RequestApproval(ctx context.Context, raffle domain.Raffle, participant domain.Participant) error
	ForwardMessage(ctx context.Context, raffle domain.Raffle, userID, content string) error
	NotifyUser(ctx context.Context, userID string, notice domain.Notice) error
}

// TallyObserver is told about every change to the public state of a raffle.
type TallyObserver interface {
	TallyChanged(raffle domain.Raffle, tally domain.Tally)
}

type RaffleService struct {
	store     Store
	messenger Messenger
	engine    *DrawEngine
	queue     *raffleQueue
	observers []TallyObserver
	conf      config.RaffleConfig
	now       func() time.Time
}

func NewRaffleService(store Store, messenger Messenger, engine *DrawEngine, conf config.RaffleConfig) *RaffleService {
	if engine == nil {
		engine = NewDrawEngine(nil)
	}

	return &RaffleService{
		store:     store,
		messenger: messenger,
		engine:    engine,
		queue:     newRaffleQueue(),
		conf:      conf,
		now:       time.Now,
	}
}

// AddObserver must be called before the service starts handling requests.
func (s *RaffleService) AddObserver(o TallyObserver) {
	s.observers = append(s.observers, o)
}

func (s *RaffleService) GetRaffle(ctx context.Context, id string) (domain.Raffle, error) {
	raffle, err := s.store.GetRaffle(ctx, id)
	if err != nil {
		return domain.Raffle{}, storeErr("s.store.GetRaffle", err)
	}

	return raffle, nil
}

// GetRaffleWithTally returns the raffle and its current ticket count.
func (s *RaffleService) GetRaffleWithTally(ctx context.Context, id string) (domain.Raffle, domain.Tally, error) {
	raffle, err := s.GetRaffle(ctx, id)
	if err != nil {
		return domain.Raffle{}, domain.Tally{}, err
	}

	tally, err := s.tally(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, domain.Tally{}, err
	}

	return raffle, tally, nil
}

func (s *RaffleService) ListOpenRaffles(ctx context.Context, guildID string) ([]domain.Raffle, error) {
	raffles, err := s.store.ListOpenRaffles(ctx, guildID)
	if err != nil {
		return nil, storeErr("s.store.ListOpenRaffles", err)
	}

	return raffles, nil
}

// ExportParticipants returns the confirmed participants of a raffle in purchase order.
func (s *RaffleService) ExportParticipants(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, []domain.Participant, error) {
	if !actor.Admin {
		return domain.Raffle{}, nil, ErrPermissionDenied
	}

	raffle, err := s.GetRaffle(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, nil, err
	}

	confirmed, err := s.store.ListParticipants(ctx, raffleID, domain.ParticipantConfirmed)
	if err != nil {
		return domain.Raffle{}, nil, storeErr("s.store.ListParticipants", err)
	}

	return raffle, confirmed, nil
}

func (s *RaffleService) SetDefaultChannels(ctx context.Context, actor domain.Actor, settings domain.GuildSettings) (domain.GuildSettings, error) {
	if !actor.Admin {
		return domain.GuildSettings{}, ErrPermissionDenied
	}

	saved, err := s.store.UpsertGuildSettings(ctx, settings)
	if err != nil {
		return domain.GuildSettings{}, storeErr("s.store.UpsertGuildSettings", err)
	}

	return saved, nil
}

// GetGuildSettings fails with ErrGuildNotConfigured unless both default channels are set.
func (s *RaffleService) GetGuildSettings(ctx context.Context, guildID string) (domain.GuildSettings, error) {
	settings, err := s.store.GetGuildSettings(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrGuildSettingsNotFound) {
			return domain.GuildSettings{}, ErrGuildNotConfigured
		}
		return domain.GuildSettings{}, storeErr("s.store.GetGuildSettings", err)
	}
	if !settings.Ready() {
		return settings, ErrGuildNotConfigured
	}

	return settings, nil
}

func (s *RaffleService) tally(ctx context.Context, raffle domain.Raffle) (domain.Tally, error) {
	holding, err := s.store.ListParticipants(ctx, raffle.ID, domain.HoldingStatuses...)
	if err != nil {
		return domain.Tally{}, storeErr("s.store.ListParticipants", err)
	}

	return ComputeTally(raffle.MaxTickets, holding), nil
}

// refreshAnnouncement re-renders the public tally. Failures are logged only.
func (s *RaffleService) refreshAnnouncement(ctx context.Context, raffleID string) {
	raffle, tally, err := s.GetRaffleWithTally(ctx, raffleID)
	if err != nil {
		zap.L().Warn("failed to load raffle for announcement refresh", zap.String("raffle_id", raffleID), zap.Error(err))
		return
	}
	s.observe(raffle, tally)
	if raffle.Status != domain.RaffleOpen {
		return
	}

	if err = s.messenger.RefreshAnnouncement(ctx, raffle, tally); err != nil {
		zap.L().Warn("failed to refresh announcement", zap.String("raffle_id", raffleID), zap.Error(err))
	}
}

func (s *RaffleService) notify(ctx context.Context, notice domain.Notice) {
	if err := s.messenger.NotifyUser(ctx, notice.Participant.UserID, notice); err != nil {
		zap.L().Warn("failed to notify participant",
			zap.String("raffle_id", notice.Raffle.ID),
			zap.String("user_id", notice.Participant.UserID),
			zap.String("notice", string(notice.Kind)),
			zap.Error(fmt.Errorf("%w: %w", ErrExternalDelivery, err)),
		)
	}
}

func (s *RaffleService) observe(raffle domain.Raffle, tally domain.Tally) {
	for _, o := range s.observers {
		o.TallyChanged(raffle, tally)
	}
}

// observeFinal reports a raffle that just left the OPEN state.
func (s *RaffleService) observeFinal(ctx context.Context, raffle domain.Raffle) {
	if len(s.observers) == 0 {
		return
	}
	tally, err := s.tally(ctx, raffle)
	if err != nil {
		zap.L().Warn("failed to compute final tally", zap.String("raffle_id", raffle.ID), zap.Error(err))
		return
	}
	s.observe(raffle, tally)
}
