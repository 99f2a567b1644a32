package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RaffleStatus string

const (
	RaffleConfiguring RaffleStatus = "CONFIGURING"
	RaffleOpen        RaffleStatus = "OPEN"
	RaffleDrawn       RaffleStatus = "DRAWN"
	RaffleCancelled   RaffleStatus = "CANCELLED"
)

// IsTerminal reports whether the raffle can no longer change state.
func (s RaffleStatus) IsTerminal() bool {
	return s == RaffleDrawn || s == RaffleCancelled
}

type Raffle struct {
	ID               string          `json:"id"`
	GuildID          string          `json:"guild_id"`
	CreatorID        string          `json:"creator_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ImageURL         string          `json:"image_url,omitempty"`
	Color            string          `json:"color,omitempty"`
	PricePerTicket   decimal.Decimal `json:"price_per_ticket"`
	MaxTickets       int             `json:"max_tickets"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	PublishChannelID string          `json:"publish_channel_id"`
	LogChannelID     string          `json:"log_channel_id"`
	MessageID        string          `json:"message_id"`
	PaymentKey       string          `json:"payment_key"`
	PaymentKeyKind   string          `json:"payment_key_kind"`
	Status           RaffleStatus    `json:"status"`
	WinnerUserID     string          `json:"winner_user_id,omitempty"`
	WinningNumber    int             `json:"winning_number,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HasStarted is false until StartTime is reached.
func (r Raffle) HasStarted(now time.Time) bool {
	return !now.Before(r.StartTime)
}

// HasEnded is true once EndTime is in the past.
func (r Raffle) HasEnded(now time.Time) bool {
	return r.EndTime.Before(now)
}

// RafflePatch lists the fields an update may touch. Nil fields are left unchanged.
// When FromStatus is set the update only applies if the stored status still matches.
type RafflePatch struct {
	FromStatus    *RaffleStatus
	Status        *RaffleStatus
	EndTime       *time.Time
	MessageID     *string
	WinnerUserID  *string
	WinningNumber *int
}

// Apply copies the set fields of p onto r.
func (p RafflePatch) Apply(r *Raffle) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.MessageID != nil {
		r.MessageID = *p.MessageID
	}
	if p.WinnerUserID != nil {
		r.WinnerUserID = *p.WinnerUserID
	}
	if p.WinningNumber != nil {
		r.WinningNumber = *p.WinningNumber
	}
}

// Tally is the public ticket count of a raffle.
type Tally struct {
	MaxTickets int `json:"max_tickets"`
	Sold       int `json:"sold"`
	Reserved   int `json:"reserved"`
	Remaining  int `json:"remaining"`
}

type GuildSettings struct {
	GuildID                 string    `json:"guild_id"`
	DefaultPublishChannelID string    `json:"default_publish_channel_id"`
	DefaultLogChannelID     string    `json:"default_log_channel_id"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Ready reports whether both default channels are configured.
func (g GuildSettings) Ready() bool {
	return g.DefaultPublishChannelID != "" && g.DefaultLogChannelID != ""
}
