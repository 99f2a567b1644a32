package action

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags what a component or modal does when Discord sends it back to the bot.
type Kind string

const (
	Participate    Kind = "participate"
	ChooseQuantity Kind = "qty"
	QuantityModal  Kind = "qty_modal"
	CancelPurchase Kind = "cancel_buy"
	Approve        Kind = "approve"
	Refuse         Kind = "refuse"

	PanelField   Kind = "panel_field"
	PanelDates   Kind = "panel_dates"
	PanelKeyKind Kind = "panel_key_kind"
	PanelPublish Kind = "panel_publish"
	PanelCancel  Kind = "panel_cancel"
)

const (
	separator = ":"
	// Discord rejects custom ids longer than this.
	maxLength = 100
)

var (
	ErrUnknownKind   = errors.New("unknown action kind")
	ErrMissingField  = errors.New("action is missing a required field")
	ErrTooLong       = errors.New("encoded action exceeds 100 characters")
	ErrInvalidFormat = errors.New("malformed action id")
)

type requirement struct {
	raffle bool
	user   bool
}

var kinds = map[Kind]requirement{
	Participate:    {raffle: true},
	ChooseQuantity: {raffle: true},
	QuantityModal:  {raffle: true},
	CancelPurchase: {raffle: true},
	Approve:        {raffle: true, user: true},
	Refuse:         {raffle: true, user: true},
	PanelField:     {},
	PanelDates:     {},
	PanelKeyKind:   {},
	PanelPublish:   {},
	PanelCancel:    {},
}

// Action is the structured form of a component custom id.
type Action struct {
	Kind     Kind
	RaffleID string
	UserID   string
}

func (a Action) validate() error {
	req, ok := kinds[a.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	if req.raffle && a.RaffleID == "" {
		return fmt.Errorf("%w: raffle id for %s", ErrMissingField, a.Kind)
	}
	if req.user && a.UserID == "" {
		return fmt.Errorf("%w: user id for %s", ErrMissingField, a.Kind)
	}
	if strings.Contains(a.RaffleID, separator) || strings.Contains(a.UserID, separator) {
		return fmt.Errorf("%w: ids may not contain %q", ErrInvalidFormat, separator)
	}

	return nil
}

// Encode renders a as "kind[:raffleID[:userID]]".
func Encode(a Action) (string, error) {
	if err := a.validate(); err != nil {
		return "", err
	}

	parts := []string{string(a.Kind)}
	if a.RaffleID != "" || a.UserID != "" {
		parts = append(parts, a.RaffleID)
	}
	if a.UserID != "" {
		parts = append(parts, a.UserID)
	}

	id := strings.Join(parts, separator)
	if len(id) > maxLength {
		return "", ErrTooLong
	}

	return id, nil
}

// MustEncode is Encode for actions built from trusted values. It panics on error.
func MustEncode(a Action) string {
	id, err := Encode(a)
	if err != nil {
		panic(err)
	}
	return id
}

func Decode(id string) (Action, error) {
	if id == "" || len(id) > maxLength {
		return Action{}, ErrInvalidFormat
	}

	parts := strings.Split(id, separator)
	if len(parts) > 3 {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidFormat, id)
	}

	a := Action{Kind: Kind(parts[0])}
	if len(parts) > 1 {
		a.RaffleID = parts[1]
	}
	if len(parts) > 2 {
		a.UserID = parts[2]
	}

	if err := a.validate(); err != nil {
		return Action{}, err
	}

	return a, nil
}
