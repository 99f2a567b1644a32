package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
)

// Picker returns an index in [0, n).
type Picker interface {
	Pick(n int) (int, error)
}

type cryptoPicker struct{}

func (cryptoPicker) Pick(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("rand.Int -> %w", err)
	}

	return int(v.Int64()), nil
}

type DrawEngine struct {
	picker Picker
}

// NewDrawEngine uses crypto/rand when picker is nil.
func NewDrawEngine(picker Picker) *DrawEngine {
	if picker == nil {
		picker = cryptoPicker{}
	}
	return &DrawEngine{picker: picker}
}

type ticket struct {
	number int
	owner  string
}

// Draw picks one confirmed ticket number uniformly. A participant's chance is proportional to
// the number of tickets they hold.
func (e *DrawEngine) Draw(participants []domain.Participant) (domain.DrawOutcome, error) {
	var pool []ticket
	for _, p := range participants {
		if p.Status != domain.ParticipantConfirmed {
			continue
		}
		for _, n := range p.TicketNumbers {
			pool = append(pool, ticket{number: n, owner: p.UserID})
		}
	}

	if len(pool) == 0 {
		return domain.DrawOutcome{NoParticipants: true}, ErrNoParticipants
	}

	idx, err := e.picker.Pick(len(pool))
	if err != nil {
		return domain.DrawOutcome{}, fmt.Errorf("e.picker.Pick -> %w", err)
	}
	if idx < 0 || idx >= len(pool) {
		return domain.DrawOutcome{}, fmt.Errorf("picker returned %d for a pool of %d", idx, len(pool))
	}

	return domain.DrawOutcome{
		WinnerUserID:  pool[idx].owner,
		WinningNumber: pool[idx].number,
		PoolSize:      len(pool),
	}, nil
}
