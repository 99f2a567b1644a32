package session

import (
	"context"
	"errors"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
)

var ErrSessionNotFound = errors.New("creation session not found")

// Session is an admin's in-progress raffle configuration.
type Session struct {
	UserID         string        `json:"user_id"`
	GuildID        string        `json:"guild_id"`
	Draft          domain.Raffle `json:"draft"`
	PanelChannelID string        `json:"panel_channel_id"`
	PanelMessageID string        `json:"panel_message_id"`
	LastTouched    time.Time     `json:"last_touched"`
}

type Store interface {
	Get(ctx context.Context, userID string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
	// Prune drops sessions untouched since before. Stores with native expiry may return 0.
	Prune(ctx context.Context, before time.Time) (int, error)
}
