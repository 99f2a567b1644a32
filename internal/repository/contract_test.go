package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type raffleStore interface {
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

var (
	_ raffleStore = (*repository.MemoryRepository)(nil)
	_ raffleStore = (*repository.RaffleRepository)(nil)
)

func openRaffle(guildID string) domain.Raffle {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.Raffle{
		ID:               uuid.NewString(),
		GuildID:          guildID,
		CreatorID:        "admin",
		Title:            "Bicicleta",
		Description:      "Aro 29",
		PricePerTicket:   decimal.RequireFromString("12.50"),
		MaxTickets:       100,
		StartTime:        start,
		EndTime:          start.Add(72 * time.Hour),
		PublishChannelID: "ann",
		LogChannelID:     "log",
		PaymentKey:       "rifa@example.com",
		PaymentKeyKind:   "E-mail",
		Status:           domain.RaffleOpen,
	}
}

func pendingParticipant(raffleID, userID string, qty int) domain.Participant {
	return domain.Participant{
		ID:         uuid.NewString(),
		RaffleID:   raffleID,
		UserID:     userID,
		GuildID:    "g1",
		Quantity:   qty,
		TotalPrice: decimal.RequireFromString("12.50").Mul(decimal.NewFromInt(int64(qty))),
		Status:     domain.ParticipantPendingPayment,
	}
}

func statusPtr(s domain.RaffleStatus) *domain.RaffleStatus { return &s }

func participantStatusPtr(s domain.ParticipantStatus) *domain.ParticipantStatus { return &s }

func testRaffles(t *testing.T, store raffleStore) {
	ctx := context.Background()

	created, err := store.InsertRaffle(ctx, openRaffle("g1"))
	require.NoError(t, err)
	_, err = store.InsertRaffle(ctx, openRaffle("g2"))
	require.NoError(t, err)

	_, err = store.InsertRaffle(ctx, created)
	assert.ErrorIs(t, err, repository.ErrRaffleExists)

	got, err := store.GetRaffle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.True(t, got.PricePerTicket.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got.EndTime.Equal(created.EndTime))

	_, err = store.GetRaffle(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrRaffleNotFound)

	all, err := store.ListOpenRaffles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	g1, err := store.ListOpenRaffles(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, g1, 1)
	assert.Equal(t, created.ID, g1[0].ID)

	msgID := "123456"
	require.NoError(t, store.UpdateRaffle(ctx, created.ID, domain.RafflePatch{MessageID: &msgID}))

	winner, number := "u1", 7
	drawn := domain.RafflePatch{
		FromStatus:    statusPtr(domain.RaffleOpen),
		Status:        statusPtr(domain.RaffleDrawn),
		WinnerUserID:  &winner,
		WinningNumber: &number,
	}
	require.NoError(t, store.UpdateRaffle(ctx, created.ID, drawn))
	assert.ErrorIs(t, store.UpdateRaffle(ctx, created.ID, drawn), repository.ErrStaleStatus)
	assert.ErrorIs(t, store.UpdateRaffle(ctx, uuid.NewString(), drawn), repository.ErrRaffleNotFound)

	got, err = store.GetRaffle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleDrawn, got.Status)
	assert.Equal(t, "123456", got.MessageID)
	assert.Equal(t, 7, got.WinningNumber)

	g1, err = store.ListOpenRaffles(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, g1)
}

func testParticipants(t *testing.T, store raffleStore) {
	ctx := context.Background()
	raffle, err := store.InsertRaffle(ctx, openRaffle("g1"))
	require.NoError(t, err)

	first, err := store.InsertParticipant(ctx, pendingParticipant(raffle.ID, "u1", 2))
	require.NoError(t, err)

	_, err = store.InsertParticipant(ctx, pendingParticipant(raffle.ID, "u1", 1))
	assert.ErrorIs(t, err, repository.ErrActiveParticipation)

	_, err = store.InsertParticipant(ctx, pendingParticipant(raffle.ID, "u2", 3))
	require.NoError(t, err)

	confirm := domain.ParticipantPatch{
		FromStatuses:  []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantPendingApproval},
		Status:        participantStatusPtr(domain.ParticipantConfirmed),
		TicketNumbers: []int{1, 2},
	}
	require.NoError(t, store.UpdateParticipant(ctx, first.ID, confirm))
	assert.ErrorIs(t, store.UpdateParticipant(ctx, first.ID, confirm), repository.ErrStaleStatus)
	assert.ErrorIs(t, store.UpdateParticipant(ctx, uuid.NewString(), confirm), repository.ErrParticipantNotFound)

	confirmed, err := store.ListParticipants(ctx, raffle.ID, domain.ParticipantConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, []int{1, 2}, confirmed[0].TicketNumbers)
	assert.True(t, confirmed[0].TotalPrice.Equal(decimal.RequireFromString("25")))

	holding, err := store.ListParticipants(ctx, raffle.ID, domain.HoldingStatuses...)
	require.NoError(t, err)
	assert.Len(t, holding, 2)

	every, err := store.ListParticipants(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Len(t, every, 2)

	pending, err := store.ListUserParticipants(ctx, "u2", domain.ParticipantPendingPayment)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	cancel := domain.ParticipantPatch{
		FromStatuses: []domain.ParticipantStatus{domain.ParticipantPendingPayment},
		Status:       participantStatusPtr(domain.ParticipantCancelled),
	}
	require.NoError(t, store.UpdateParticipant(ctx, pending[0].ID, cancel))

	// A cancelled reservation does not block buying again.
	_, err = store.InsertParticipant(ctx, pendingParticipant(raffle.ID, "u2", 1))
	require.NoError(t, err)

	history, err := store.ListUserParticipants(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func testGuildSettings(t *testing.T, store raffleStore) {
	ctx := context.Background()

	_, err := store.GetGuildSettings(ctx, "g1")
	assert.ErrorIs(t, err, repository.ErrGuildSettingsNotFound)

	saved, err := store.UpsertGuildSettings(ctx, domain.GuildSettings{GuildID: "g1", DefaultPublishChannelID: "ann"})
	require.NoError(t, err)
	assert.False(t, saved.Ready())

	saved, err = store.UpsertGuildSettings(ctx, domain.GuildSettings{GuildID: "g1", DefaultLogChannelID: "log"})
	require.NoError(t, err)
	assert.Equal(t, "ann", saved.DefaultPublishChannelID)
	assert.Equal(t, "log", saved.DefaultLogChannelID)
	assert.True(t, saved.Ready())

	got, err := store.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, saved.DefaultLogChannelID, got.DefaultLogChannelID)
}
