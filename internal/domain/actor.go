package domain

// Actor is whoever triggered an operation: a Discord user or the bot itself.
type Actor struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// SystemActor is used by background jobs such as the expiry sweep.
var SystemActor = Actor{UserID: "system", Admin: true}

// DrawOutcome is the result of drawing a raffle. NoParticipants is set when no confirmed
// ticket existed, in which case the winner fields are empty.
type DrawOutcome struct {
	NoParticipants bool   `json:"no_participants"`
	WinnerUserID   string `json:"winner_user_id,omitempty"`
	WinningNumber  int    `json:"winning_number,omitempty"`
	PoolSize       int    `json:"pool_size"`
}

type NoticeKind string

const (
	NoticePaymentApproved  NoticeKind = "payment_approved"
	NoticePaymentRefused   NoticeKind = "payment_refused"
	NoticeCapacityExceeded NoticeKind = "capacity_exceeded"
)

// Notice is a direct message sent to a participant about their reservation.
type Notice struct {
	Kind        NoticeKind
	Raffle      Raffle
	Participant Participant
	Remaining   int
}
