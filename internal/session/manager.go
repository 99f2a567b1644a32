package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"

	"go.uber.org/zap"
)

// Manager owns creation sessions. A session ends when the raffle is published, when the
// admin cancels, or after ttl without activity.
type Manager struct {
	store Store
	ttl   atomic.Int64
	loc   *time.Location
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	m := &Manager{store: store, loc: loc, now: time.Now}
	m.SetTTL(ttl)
	return m
}

func (m *Manager) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	m.ttl.Store(int64(ttl))
}

func (m *Manager) TTL() time.Duration {
	return time.Duration(m.ttl.Load())
}

func (m *Manager) Location() *time.Location {
	return m.loc
}

// Open starts a fresh session for userID, replacing any previous one. The draft starts with
// the guild's default channels.
func (m *Manager) Open(ctx context.Context, userID string, settings domain.GuildSettings) (Session, error) {
	s := Session{
		UserID:  userID,
		GuildID: settings.GuildID,
		Draft: domain.Raffle{
			GuildID:          settings.GuildID,
			CreatorID:        userID,
			PublishChannelID: settings.DefaultPublishChannelID,
			LogChannelID:     settings.DefaultLogChannelID,
			Status:           domain.RaffleConfiguring,
		},
	}

	return m.save(ctx, s)
}

func (m *Manager) Get(ctx context.Context, userID string) (Session, error) {
	s, err := m.store.Get(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("m.store.Get -> %w", err)
	}
	if m.expired(s) {
		_ = m.store.Delete(ctx, userID)
		return Session{}, ErrSessionNotFound
	}

	return s, nil
}

// AttachPanel records where the session's panel message lives.
func (m *Manager) AttachPanel(ctx context.Context, userID, channelID, messageID string) (Session, error) {
	return m.update(ctx, userID, func(s *Session) error {
		s.PanelChannelID = channelID
		s.PanelMessageID = messageID
		return nil
	})
}

// SetField validates raw for field and stores it. The session is unchanged on error.
func (m *Manager) SetField(ctx context.Context, userID string, field Field, raw string) (Session, error) {
	return m.update(ctx, userID, func(s *Session) error {
		return applyField(&s.Draft, field, raw)
	})
}

func (m *Manager) SetDates(ctx context.Context, userID, start, end string) (Session, error) {
	return m.update(ctx, userID, func(s *Session) error {
		from, to, err := ParseDates(start, end, m.loc)
		if err != nil {
			return err
		}
		s.Draft.StartTime = from
		s.Draft.EndTime = to
		return nil
	})
}

func (m *Manager) SetPaymentKeyKind(ctx context.Context, userID, kind string) (Session, error) {
	return m.update(ctx, userID, func(s *Session) error {
		for _, k := range PaymentKeyKinds {
			if k == kind {
				s.Draft.PaymentKeyKind = kind
				return nil
			}
		}
		return invalid("unknown payment key kind %q", kind)
	})
}

// Touch extends the session's idle deadline.
func (m *Manager) Touch(ctx context.Context, userID string) error {
	_, err := m.update(ctx, userID, func(*Session) error { return nil })
	return err
}

func (m *Manager) Discard(ctx context.Context, userID string) error {
	if err := m.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("m.store.Delete -> %w", err)
	}
	return nil
}

// Evict removes sessions idle for longer than the TTL.
func (m *Manager) Evict(ctx context.Context) (int, error) {
	n, err := m.store.Prune(ctx, m.now().Add(-m.TTL()))
	if err != nil {
		return 0, fmt.Errorf("m.store.Prune -> %w", err)
	}
	return n, nil
}

// RunEviction calls Evict every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Evict(ctx)
			if err != nil {
				zap.L().Warn("failed to evict idle sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Debug("evicted idle creation sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) update(ctx context.Context, userID string, fn func(*Session) error) (Session, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if err = fn(&s); err != nil {
		return s, err
	}

	return m.save(ctx, s)
}

func (m *Manager) save(ctx context.Context, s Session) (Session, error) {
	s.LastTouched = m.now()
	if err := m.store.Save(ctx, s, m.TTL()); err != nil {
		return Session{}, fmt.Errorf("m.store.Save -> %w", err)
	}
	return s, nil
}

func (m *Manager) expired(s Session) bool {
	return !s.LastTouched.IsZero() && m.now().Sub(s.LastTouched) > m.TTL()
}
