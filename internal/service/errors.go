package service

import (
	"errors"
	"fmt"

	"github.com/Victorh-Tasca/discord-example-app/internal/repository"
)

var (
	ErrRaffleNotFound      = repository.ErrRaffleNotFound
	ErrParticipantNotFound = repository.ErrParticipantNotFound

	ErrInvalidQuantity         = errors.New("invalid ticket quantity")
	ErrCapacityExceeded        = errors.New("not enough tickets left")
	ErrIncompleteConfiguration = errors.New("raffle configuration is incomplete")
	ErrAlreadyFinalized        = errors.New("raffle already finalized")
	ErrAlreadyProcessed        = errors.New("participation already processed")
	ErrAlreadyParticipating    = errors.New("user already holds tickets in this raffle")
	ErrRaffleNotOpen           = errors.New("raffle is not open")
	ErrNotStarted              = errors.New("raffle has not started yet")
	ErrNoParticipants          = errors.New("raffle has no confirmed tickets")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrGuildNotConfigured      = errors.New("guild default channels are not configured")
	ErrExternalDelivery        = errors.New("discord delivery failed")
	ErrStoreFailure            = errors.New("store failure")
)

// CapacityError carries how many tickets were still available when a request did not fit.
type CapacityError struct {
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %d remaining", ErrCapacityExceeded, e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// storeErr wraps err from the store at call site op. Lookup misses keep their own identity,
// anything else is tagged as a store failure.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrRaffleNotFound) ||
		errors.Is(err, repository.ErrParticipantNotFound) ||
		errors.Is(err, repository.ErrGuildSettingsNotFound) ||
		errors.Is(err, repository.ErrStaleStatus) ||
		errors.Is(err, repository.ErrActiveParticipation) {
		return fmt.Errorf("%s -> %w", op, err)
	}

	return fmt.Errorf("%s -> %w: %w", op, ErrStoreFailure, err)
}

func deliveryErr(op string, err error) error {
	return fmt.Errorf("%s -> %w: %w", op, ErrExternalDelivery, err)
}
