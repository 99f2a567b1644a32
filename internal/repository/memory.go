package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
)

// MemoryRepository keeps raffles in process memory. Everything is lost on restart.
type MemoryRepository struct {
	mu           sync.RWMutex
	raffles      map[string]domain.Raffle
	participants map[string]domain.Participant
	order        []string
	guilds       map[string]domain.GuildSettings
	now          func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		raffles:      make(map[string]domain.Raffle),
		participants: make(map[string]domain.Participant),
		guilds:       make(map[string]domain.GuildSettings),
		now:          time.Now,
	}
}

func (r *MemoryRepository) GetRaffle(_ context.Context, id string) (domain.Raffle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raffle, ok := r.raffles[id]
	if !ok {
		return domain.Raffle{}, ErrRaffleNotFound
	}
	return raffle, nil
}

func (r *MemoryRepository) ListOpenRaffles(_ context.Context, guildID string) ([]domain.Raffle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raffles := make([]domain.Raffle, 0)
	for _, raffle := range r.raffles {
		if raffle.Status != domain.RaffleOpen {
			continue
		}
		if guildID != "" && raffle.GuildID != guildID {
			continue
		}
		raffles = append(raffles, raffle)
	}

	sort.Slice(raffles, func(i, j int) bool {
		return raffles[i].EndTime.Before(raffles[j].EndTime)
	})

	return raffles, nil
}

func (r *MemoryRepository) InsertRaffle(_ context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if raffle.ID == "" {
		raffle.ID = uuid.NewString()
	}
	if _, exists := r.raffles[raffle.ID]; exists {
		return domain.Raffle{}, ErrRaffleExists
	}

	now := r.now()
	raffle.CreatedAt = now
	raffle.UpdatedAt = now
	r.raffles[raffle.ID] = raffle

	return raffle, nil
}

func (r *MemoryRepository) UpdateRaffle(_ context.Context, id string, patch domain.RafflePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raffle, ok := r.raffles[id]
	if !ok {
		return ErrRaffleNotFound
	}
	if patch.FromStatus != nil && raffle.Status != *patch.FromStatus {
		return ErrStaleStatus
	}

	patch.Apply(&raffle)
	raffle.UpdatedAt = r.now()
	r.raffles[id] = raffle

	return nil
}

func (r *MemoryRepository) ListParticipants(_ context.Context, raffleID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participants := make([]domain.Participant, 0)
	for _, id := range r.order {
		p := r.participants[id]
		if p.RaffleID != raffleID || !hasStatus(statuses, p.Status) {
			continue
		}
		participants = append(participants, copyParticipant(p))
	}

	return participants, nil
}

func (r *MemoryRepository) ListUserParticipants(_ context.Context, userID string, statuses ...domain.ParticipantStatus) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participants := make([]domain.Participant, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.participants[r.order[i]]
		if p.UserID != userID || !hasStatus(statuses, p.Status) {
			continue
		}
		participants = append(participants, copyParticipant(p))
	}

	return participants, nil
}

func (r *MemoryRepository) InsertParticipant(_ context.Context, participant domain.Participant) (domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if participant.Status.Holds() {
		for _, existing := range r.participants {
			if existing.RaffleID == participant.RaffleID &&
				existing.UserID == participant.UserID &&
				existing.Status.Holds() {
				return domain.Participant{}, ErrActiveParticipation
			}
		}
	}

	if participant.ID == "" {
		participant.ID = uuid.NewString()
	}
	now := r.now()
	participant.CreatedAt = now
	participant.UpdatedAt = now

	r.participants[participant.ID] = copyParticipant(participant)
	r.order = append(r.order, participant.ID)

	return participant, nil
}

func (r *MemoryRepository) UpdateParticipant(_ context.Context, id string, patch domain.ParticipantPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	participant, ok := r.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	if !patch.Matches(participant.Status) {
		return ErrStaleStatus
	}

	patch.Apply(&participant)
	participant.UpdatedAt = r.now()
	r.participants[id] = participant

	return nil
}

func (r *MemoryRepository) GetGuildSettings(_ context.Context, guildID string) (domain.GuildSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings, ok := r.guilds[guildID]
	if !ok {
		return domain.GuildSettings{}, ErrGuildSettingsNotFound
	}
	return settings, nil
}

func (r *MemoryRepository) UpsertGuildSettings(_ context.Context, settings domain.GuildSettings) (domain.GuildSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.guilds[settings.GuildID]
	current.GuildID = settings.GuildID
	if settings.DefaultPublishChannelID != "" {
		current.DefaultPublishChannelID = settings.DefaultPublishChannelID
	}
	if settings.DefaultLogChannelID != "" {
		current.DefaultLogChannelID = settings.DefaultLogChannelID
	}
	current.UpdatedAt = r.now()
	r.guilds[settings.GuildID] = current

	return current, nil
}

func hasStatus(statuses []domain.ParticipantStatus, status domain.ParticipantStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func copyParticipant(p domain.Participant) domain.Participant {
	if p.TicketNumbers != nil {
		p.TicketNumbers = append([]int(nil), p.TicketNumbers...)
	}
	return p
}
