package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrActiveParticipation = errors.New("user already holds an active participation")
)

const activeParticipationIndex = "idx_participants_active"

type Participant struct {
	ID            string                   `gorm:"primaryKey;size:64"`
	RaffleID      string                   `gorm:"index;not null"`
	Raffle        Raffle                   `gorm:"foreignKey:RaffleID"`
	UserID        string                   `gorm:"index;not null"`
	GuildID       string                   `gorm:"not null"`
	Quantity      int                      `gorm:"not null"`
	TotalPrice    decimal.Decimal          `gorm:"type:numeric(12,2);not null"`
	Status        string                   `gorm:"index;not null"`
	TicketNumbers datatypes.JSONSlice[int] `gorm:"type:jsonb"`
	ProofURL      string                   `gorm:"size:1024"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Participant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

func (d *ParticipantDAO) Insert(ctx context.Context, participant Participant) (Participant, error) {
	result := d.db.WithContext(ctx).Omit("Raffle").Create(&participant)
	if result.Error != nil {
		if isUniqueViolation(result.Error, activeParticipationIndex) {
			return Participant{}, ErrActiveParticipation
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByID(ctx context.Context, id string) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).First(&participant, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByRaffleID(ctx context.Context, raffleID string, statuses []string) ([]Participant, error) {
	var participants []Participant

	query := d.db.WithContext(ctx).Where("raffle_id = ?", raffleID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	result := query.Order("created_at ASC").Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

// FindByUserID returns the user's participations, most recent first.
func (d *ParticipantDAO) FindByUserID(ctx context.Context, userID string, statuses []string) ([]Participant, error) {
	var participants []Participant

	query := d.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	result := query.Order("created_at DESC").Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

func (d *ParticipantDAO) Update(ctx context.Context, id string, fromStatuses []string, columns map[string]interface{}) error {
	query := d.db.WithContext(ctx).Model(&Participant{}).Where("id = ?", id)
	if len(fromStatuses) > 0 {
		query = query.Where("status IN ?", fromStatuses)
	}

	result := query.Updates(columns)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := d.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}

	return nil
}
