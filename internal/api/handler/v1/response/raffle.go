package response

import (
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
)

type Raffle struct {
	ID             string              `json:"id"`
	GuildID        string              `json:"guild_id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	ImageURL       string              `json:"image_url,omitempty"`
	PricePerTicket string              `json:"price_per_ticket"`
	Status         domain.RaffleStatus `json:"status"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	WinnerUserID   string              `json:"winner_user_id,omitempty"`
	WinningNumber  int                 `json:"winning_number,omitempty"`
	Tally          *domain.Tally       `json:"tally,omitempty"`
}

// NewRaffle leaves out the payment key and channel ids.
func NewRaffle(r domain.Raffle) Raffle {
	return Raffle{
		ID:             r.ID,
		GuildID:        r.GuildID,
		Title:          r.Title,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		PricePerTicket: r.PricePerTicket.StringFixed(2),
		Status:         r.Status,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		WinnerUserID:   r.WinnerUserID,
		WinningNumber:  r.WinningNumber,
	}
}

func NewRaffleWithTally(r domain.Raffle, t domain.Tally) Raffle {
	resp := NewRaffle(r)
	resp.Tally = &t
	return resp
}

type Health struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
