package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrReplyTimeout    = errors.New("timed out waiting for a reply")
	ErrReplySuperseded = errors.New("reply wait replaced by a newer prompt")
)

type waitKey struct {
	userID    string
	channelID string
}

type pending struct {
	reply chan string
	done  chan struct{}
}

// ReplyWaiter hands the next message a user sends in a channel to whoever is waiting for it.
// Each user has at most one wait per channel; a new wait supersedes the old one.
type ReplyWaiter struct {
	mu    sync.Mutex
	waits map[waitKey]*pending
}

func NewReplyWaiter() *ReplyWaiter {
	return &ReplyWaiter{waits: make(map[waitKey]*pending)}
}

func (w *ReplyWaiter) Await(ctx context.Context, userID, channelID string, timeout time.Duration) (string, error) {
	key := waitKey{userID: userID, channelID: channelID}
	p := &pending{reply: make(chan string, 1), done: make(chan struct{})}

	w.mu.Lock()
	if prev, ok := w.waits[key]; ok {
		close(prev.done)
	}
	w.waits[key] = p
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.waits[key] == p {
			delete(w.waits, key)
		}
		w.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case content := <-p.reply:
		return content, nil
	case <-p.done:
		return "", ErrReplySuperseded
	case <-timer.C:
		return "", ErrReplyTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Deliver reports whether someone was waiting for this message.
func (w *ReplyWaiter) Deliver(userID, channelID, content string) bool {
	key := waitKey{userID: userID, channelID: channelID}

	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.waits[key]
	if !ok {
		return false
	}
	delete(w.waits, key)
	p.reply <- content

	return true
}
