package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ParticipantStatus string

const (
	ParticipantPendingPayment  ParticipantStatus = "PENDING_PAYMENT"
	ParticipantPendingApproval ParticipantStatus = "PENDING_APPROVAL"
	ParticipantConfirmed       ParticipantStatus = "CONFIRMED"
	ParticipantRefused         ParticipantStatus = "REFUSED"
	ParticipantCancelled       ParticipantStatus = "CANCELLED"
)

// HoldingStatuses are the statuses whose quantity counts against a raffle's capacity.
var HoldingStatuses = []ParticipantStatus{
	ParticipantPendingPayment,
	ParticipantPendingApproval,
	ParticipantConfirmed,
}

// IsPending is true while the reservation still waits for payment or approval.
func (s ParticipantStatus) IsPending() bool {
	return s == ParticipantPendingPayment || s == ParticipantPendingApproval
}

// Holds reports whether the status keeps its quantity reserved or sold.
func (s ParticipantStatus) Holds() bool {
	return s.IsPending() || s == ParticipantConfirmed
}

func (s ParticipantStatus) IsTerminal() bool {
	return s == ParticipantConfirmed || s == ParticipantRefused || s == ParticipantCancelled
}

type Participant struct {
	ID            string            `json:"id"`
	RaffleID      string            `json:"raffle_id"`
	UserID        string            `json:"user_id"`
	GuildID       string            `json:"guild_id"`
	Quantity      int               `json:"quantity"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	Status        ParticipantStatus `json:"status"`
	TicketNumbers []int             `json:"ticket_numbers"`
	ProofURL      string            `json:"proof_url,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ParticipantPatch lists the fields an update may touch. When FromStatuses is not empty the
// update only applies if the stored status is one of them.
type ParticipantPatch struct {
	FromStatuses  []ParticipantStatus
	Status        *ParticipantStatus
	TicketNumbers []int
	ProofURL      *string
}

func (p ParticipantPatch) Apply(pt *Participant) {
	if p.Status != nil {
		pt.Status = *p.Status
	}
	if p.TicketNumbers != nil {
		pt.TicketNumbers = append([]int(nil), p.TicketNumbers...)
	}
	if p.ProofURL != nil {
		pt.ProofURL = *p.ProofURL
	}
}

// Matches reports whether status satisfies the patch precondition.
func (p ParticipantPatch) Matches(status ParticipantStatus) bool {
	if len(p.FromStatuses) == 0 {
		return true
	}
	for _, s := range p.FromStatuses {
		if s == status {
			return true
		}
	}
	return false
}
