package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository/dao"
)

var (
	ErrRaffleNotFound        = dao.ErrRaffleNotFound
	ErrRaffleExists          = dao.ErrRaffleExists
	ErrParticipantNotFound   = dao.ErrParticipantNotFound
	ErrGuildSettingsNotFound = dao.ErrGuildSettingsNotFound
	ErrStaleStatus           = dao.ErrStaleStatus
	ErrActiveParticipation   = dao.ErrActiveParticipation
)

type RaffleDAO interface {
	Insert(ctx context.Context, raffle dao.Raffle) (dao.Raffle, error)
	FindByID(ctx context.Context, id string) (dao.Raffle, error)
	FindByStatus(ctx context.Context, status, guildID string) ([]dao.Raffle, error)
	Update(ctx context.Context, id, fromStatus string, columns map[string]interface{}) error
}

type ParticipantDAO interface {
	Insert(ctx context.Context, participant dao.Participant) (dao.Participant, error)
	FindByRaffleID(ctx context.Context, raffleID string, statuses []string) ([]dao.Participant, error)
	FindByUserID(ctx context.Context, userID string, statuses []string) ([]dao.Participant, error)
	Update(ctx context.Context, id string, fromStatuses []string, columns map[string]interface{}) error
}

type GuildSettingsDAO interface {
	FindByGuildID(ctx context.Context, guildID string) (dao.GuildSettings, error)
	Upsert(ctx context.Context, settings dao.GuildSettings) (dao.GuildSettings, error)
}

// RaffleRepository is the postgres-backed raffle store.
type RaffleRepository struct {
	raffles      RaffleDAO
	participants ParticipantDAO
	guilds       GuildSettingsDAO
}

func NewRaffleRepository(raffles RaffleDAO, participants ParticipantDAO, guilds GuildSettingsDAO) *RaffleRepository {
	return &RaffleRepository{
		raffles:      raffles,
		participants: participants,
		guilds:       guilds,
	}
}

func (r *RaffleRepository) GetRaffle(ctx context.Context, id string) (domain.Raffle, error) {
	found, err := r.raffles.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.raffles.FindByID -> %w", err)
	}

	return r.raffleDaoToDomain(found), nil
}

func (r *RaffleRepository) ListOpenRaffles(ctx context.Context, guildID string) ([]domain.Raffle, error) {
	found, err := r.raffles.FindByStatus(ctx, string(domain.RaffleOpen), guildID)
	if err != nil {
		return nil, fmt.Errorf("r.raffles.FindByStatus -> %w", err)
	}

	raffles := make([]domain.Raffle, 0, len(found))
	for _, raffle := range found {
		raffles = append(raffles, r.raffleDaoToDomain(raffle))
	}

	return raffles, nil
}

func (r *RaffleRepository) InsertRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	created, err := r.raffles.Insert(ctx, r.raffleDomainToDao(raffle))
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.raffles.Insert -> %w", err)
	}

	return r.raffleDaoToDomain(created), nil
}

func (r *RaffleRepository) UpdateRaffle(ctx context.Context, id string, patch domain.RafflePatch) error {
	columns := make(map[string]interface{})
	if patch.Status != nil {
		columns["status"] = string(*patch.Status)
	}
	if patch.EndTime != nil {
		columns["end_time"] = *patch.EndTime
	}
	if patch.MessageID != nil {
		columns["message_id"] = *patch.MessageID
	}
	if patch.WinnerUserID != nil {
		columns["winner_user_id"] = *patch.WinnerUserID
	}
	if patch.WinningNumber != nil {
		columns["winning_number"] = *patch.WinningNumber
	}

	var fromStatus string
	if patch.FromStatus != nil {
		fromStatus = string(*patch.FromStatus)
	}

	if err := r.raffles.Update(ctx, id, fromStatus, columns); err != nil {
		return fmt.Errorf("r.raffles.Update -> %w", err)
	}

	return nil
}

func (r *RaffleRepository) ListParticipants(ctx context.Context, raffleID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error) {
	found, err := r.participants.FindByRaffleID(ctx, raffleID, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("r.participants.FindByRaffleID -> %w", err)
	}

	return r.participantsDaoToDomain(found), nil
}

func (r *RaffleRepository) ListUserParticipants(ctx context.Context, userID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error) {
	found, err := r.participants.FindByUserID(ctx, userID, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("r.participants.FindByUserID -> %w", err)
	}

	return r.participantsDaoToDomain(found), nil
}

func (r *RaffleRepository) InsertParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	created, err := r.participants.Insert(ctx, r.participantDomainToDao(participant))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.participants.Insert -> %w", err)
	}

	return r.participantDaoToDomain(created), nil
}

func (r *RaffleRepository) UpdateParticipant(ctx context.Context, id string, patch domain.ParticipantPatch) error {
	columns := make(map[string]interface{})
	if patch.Status != nil {
		columns["status"] = string(*patch.Status)
	}
	if patch.TicketNumbers != nil {
		columns["ticket_numbers"] = datatypes.JSONSlice[int](patch.TicketNumbers)
	}
	if patch.ProofURL != nil {
		columns["proof_url"] = *patch.ProofURL
	}

	if err := r.participants.Update(ctx, id, statusStrings(patch.FromStatuses), columns); err != nil {
		return fmt.Errorf("r.participants.Update -> %w", err)
	}

	return nil
}

func (r *RaffleRepository) GetGuildSettings(ctx context.Context, guildID string) (domain.GuildSettings, error) {
	found, err := r.guilds.FindByGuildID(ctx, guildID)
	if err != nil {
		return domain.GuildSettings{}, fmt.Errorf("r.guilds.FindByGuildID -> %w", err)
	}

	return guildDaoToDomain(found), nil
}

func (r *RaffleRepository) UpsertGuildSettings(ctx context.Context, settings domain.GuildSettings) (domain.GuildSettings, error) {
	saved, err := r.guilds.Upsert(ctx, dao.GuildSettings{
		GuildID:                 settings.GuildID,
		DefaultPublishChannelID: settings.DefaultPublishChannelID,
		DefaultLogChannelID:     settings.DefaultLogChannelID,
	})
	if err != nil {
		return domain.GuildSettings{}, fmt.Errorf("r.guilds.Upsert -> %w", err)
	}

	return guildDaoToDomain(saved), nil
}

func (r *RaffleRepository) raffleDomainToDao(raffle domain.Raffle) dao.Raffle {
	return dao.Raffle{
		ID:               raffle.ID,
		GuildID:          raffle.GuildID,
		CreatorID:        raffle.CreatorID,
		Title:            raffle.Title,
		Description:      raffle.Description,
		ImageURL:         raffle.ImageURL,
		Color:            raffle.Color,
		Price:            raffle.PricePerTicket,
		MaxTickets:       raffle.MaxTickets,
		StartTime:        raffle.StartTime,
		EndTime:          raffle.EndTime,
		PublishChannelID: raffle.PublishChannelID,
		LogChannelID:     raffle.LogChannelID,
		MessageID:        raffle.MessageID,
		PaymentKey:       raffle.PaymentKey,
		PaymentKeyKind:   raffle.PaymentKeyKind,
		Status:           string(raffle.Status),
		WinnerUserID:     raffle.WinnerUserID,
		WinningNumber:    raffle.WinningNumber,
		CreatedAt:        raffle.CreatedAt,
		UpdatedAt:        raffle.UpdatedAt,
	}
}

func (r *RaffleRepository) raffleDaoToDomain(raffle dao.Raffle) domain.Raffle {
	return domain.Raffle{
		ID:               raffle.ID,
		GuildID:          raffle.GuildID,
		CreatorID:        raffle.CreatorID,
		Title:            raffle.Title,
		Description:      raffle.Description,
		ImageURL:         raffle.ImageURL,
		Color:            raffle.Color,
		PricePerTicket:   raffle.Price,
		MaxTickets:       raffle.MaxTickets,
		StartTime:        raffle.StartTime,
		EndTime:          raffle.EndTime,
		PublishChannelID: raffle.PublishChannelID,
		LogChannelID:     raffle.LogChannelID,
		MessageID:        raffle.MessageID,
		PaymentKey:       raffle.PaymentKey,
		PaymentKeyKind:   raffle.PaymentKeyKind,
		Status:           domain.RaffleStatus(raffle.Status),
		WinnerUserID:     raffle.WinnerUserID,
		WinningNumber:    raffle.WinningNumber,
		CreatedAt:        raffle.CreatedAt,
		UpdatedAt:        raffle.UpdatedAt,
	}
}

func (r *RaffleRepository) participantDomainToDao(p domain.Participant) dao.Participant {
	return dao.Participant{
		ID:            p.ID,
		RaffleID:      p.RaffleID,
		UserID:        p.UserID,
		GuildID:       p.GuildID,
		Quantity:      p.Quantity,
		TotalPrice:    p.TotalPrice,
		Status:        string(p.Status),
		TicketNumbers: datatypes.JSONSlice[int](p.TicketNumbers),
		ProofURL:      p.ProofURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *RaffleRepository) participantDaoToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		ID:            p.ID,
		RaffleID:      p.RaffleID,
		UserID:        p.UserID,
		GuildID:       p.GuildID,
		Quantity:      p.Quantity,
		TotalPrice:    p.TotalPrice,
		Status:        domain.ParticipantStatus(p.Status),
		TicketNumbers: []int(p.TicketNumbers),
		ProofURL:      p.ProofURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *RaffleRepository) participantsDaoToDomain(found []dao.Participant) []domain.Participant {
	participants := make([]domain.Participant, 0, len(found))
	for _, p := range found {
		participants = append(participants, r.participantDaoToDomain(p))
	}
	return participants
}

func guildDaoToDomain(settings dao.GuildSettings) domain.GuildSettings {
	return domain.GuildSettings{
		GuildID:                 settings.GuildID,
		DefaultPublishChannelID: settings.DefaultPublishChannelID,
		DefaultLogChannelID:     settings.DefaultLogChannelID,
		UpdatedAt:               settings.UpdatedAt,
	}
}

func statusStrings(statuses []domain.ParticipantStatus) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
