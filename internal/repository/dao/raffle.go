package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRaffleNotFound = errors.New("raffle not found")
	ErrRaffleExists   = errors.New("raffle already exists")
	ErrStaleStatus    = errors.New("status changed concurrently")
)

type Raffle struct {
	ID               string          `gorm:"primaryKey;size:64"`
	GuildID          string          `gorm:"index;not null"`
	CreatorID        string          `gorm:"not null"`
	Title            string          `gorm:"not null"`
	Description      string          `gorm:"not null"`
	ImageURL         string          `gorm:"size:1024"`
	Color            string          `gorm:"size:7"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MaxTickets       int             `gorm:"not null"`
	StartTime        time.Time       `gorm:"not null"`
	EndTime          time.Time       `gorm:"index;not null"`
	PublishChannelID string          `gorm:"not null"`
	LogChannelID     string          `gorm:"not null"`
	MessageID        string          `gorm:"size:32"`
	PaymentKey       string          `gorm:"not null"`
	PaymentKeyKind   string          `gorm:"not null"`
	Status           string          `gorm:"index;not null"`
	WinnerUserID     string          `gorm:"size:32"`
	WinningNumber    int             `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{
		db: db,
	}
}

func (d *RaffleDAO) Insert(ctx context.Context, raffle Raffle) (Raffle, error) {
	result := d.db.WithContext(ctx).Create(&raffle)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "raffles_pkey") {
			return Raffle{}, ErrRaffleExists
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, id string) (Raffle, error) {
	var raffle Raffle

	result := d.db.WithContext(ctx).First(&raffle, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

// FindByStatus lists raffles in the given status, optionally restricted to one guild.
func (d *RaffleDAO) FindByStatus(ctx context.Context, status, guildID string) ([]Raffle, error) {
	var raffles []Raffle

	query := d.db.WithContext(ctx).Where("status = ?", status)
	if guildID != "" {
		query = query.Where("guild_id = ?", guildID)
	}

	result := query.Order("end_time ASC").Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}

	return raffles, nil
}

// Update applies columns to the raffle. A non-empty fromStatus turns the write into a
// conditional update that fails with ErrStaleStatus when the stored status differs.
func (d *RaffleDAO) Update(ctx context.Context, id, fromStatus string, columns map[string]interface{}) error {
	query := d.db.WithContext(ctx).Model(&Raffle{}).Where("id = ?", id)
	if fromStatus != "" {
		query = query.Where("status = ?", fromStatus)
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
