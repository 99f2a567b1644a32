package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
)

var errDiscordDown = errors.New("discord unavailable")

type fakeMessenger struct {
	mu sync.Mutex

	failPublish  bool
	failApproval bool
	failNotify   bool

	published  []domain.Raffle
	deleted    []string
	refreshed  []domain.Tally
	closed     []domain.DrawOutcome
	cancelled  []string
	approvals  []domain.Participant
	forwarded  []string
	notices    []domain.Notice
	nextMsgSeq int
}

func (m *fakeMessenger) PublishAnnouncement(_ context.Context, raffle domain.Raffle, _ domain.Tally) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPublish {
		return "", errDiscordDown
	}
	m.nextMsgSeq++
	m.published = append(m.published, raffle)
	return fmt.Sprintf("msg-%d", m.nextMsgSeq), nil
}

func (m *fakeMessenger) DeleteAnnouncement(_ context.Context, raffle domain.Raffle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, raffle.MessageID)
	return nil
}

func (m *fakeMessenger) RefreshAnnouncement(_ context.Context, _ domain.Raffle, tally domain.Tally) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed = append(m.refreshed, tally)
	return nil
}

func (m *fakeMessenger) CloseAnnouncement(_ context.Context, _ domain.Raffle, outcome domain.DrawOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, outcome)
	return nil
}

func (m *fakeMessenger) CancelAnnouncement(_ context.Context, raffle domain.Raffle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, raffle.ID)
	return nil
}

func (m *fakeMessenger) RequestApproval(_ context.Context, _ domain.Raffle, participant domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApproval {
		return errDiscordDown
	}
	m.approvals = append(m.approvals, participant)
	return nil
}

func (m *fakeMessenger) ForwardMessage(_ context.Context, _ domain.Raffle, _ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwarded = append(m.forwarded, content)
	return nil
}

func (m *fakeMessenger) NotifyUser(_ context.Context, _ string, notice domain.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNotify {
		return errDiscordDown
	}
	m.notices = append(m.notices, notice)
	return nil
}

func (m *fakeMessenger) noticeKinds() []domain.NoticeKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.NoticeKind, 0, len(m.notices))
	for _, n := range m.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
