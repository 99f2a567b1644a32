package service

import (
	"context"
	"errors"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ComputeTally counts sold and reserved tickets. Participants in a non-holding status are
// ignored.
func ComputeTally(maxTickets int, participants []domain.Participant) domain.Tally {
	tally := domain.Tally{MaxTickets: maxTickets}
	for _, p := range participants {
		switch {
		case p.Status == domain.ParticipantConfirmed:
			tally.Sold += p.Quantity
		case p.Status.IsPending():
			tally.Reserved += p.Quantity
		}
	}
	tally.Remaining = maxTickets - tally.Sold - tally.Reserved

	return tally
}

func RemainingCapacity(maxTickets int, participants []domain.Participant) int {
	return ComputeTally(maxTickets, participants).Remaining
}

// NextTicketNumbers returns quantity consecutive numbers after the highest number already
// assigned to a confirmed participant.
func NextTicketNumbers(participants []domain.Participant, quantity int) []int {
	highest := 0
	for _, p := range participants {
		if p.Status != domain.ParticipantConfirmed {
			continue
		}
		for _, n := range p.TicketNumbers {
			if n > highest {
				highest = n
			}
		}
	}

	numbers := make([]int, quantity)
	for i := range numbers {
		numbers[i] = highest + i + 1
	}

	return numbers
}

// CheckParticipation decides whether actor may start buying tickets for the raffle.
// Admins may buy before the start time.
func (s *RaffleService) CheckParticipation(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, domain.Tally, error) {
	raffle, tally, err := s.GetRaffleWithTally(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, domain.Tally{}, err
	}

	now := s.now()
	if raffle.Status != domain.RaffleOpen || raffle.HasEnded(now) {
		return raffle, tally, ErrRaffleNotOpen
	}
	if !raffle.HasStarted(now) && !actor.Admin {
		return raffle, tally, ErrNotStarted
	}
	if tally.Remaining <= 0 {
		return raffle, tally, &CapacityError{Remaining: 0}
	}

	return raffle, tally, nil
}

// Reserve holds quantity tickets for userID until payment is approved, refused or cancelled.
func (s *RaffleService) Reserve(ctx context.Context, raffleID, userID string, quantity int) (domain.Participant, domain.Raffle, error) {
	if quantity <= 0 || (s.conf.MaxQuantityPerReservation > 0 && quantity > s.conf.MaxQuantityPerReservation) {
		return domain.Participant{}, domain.Raffle{}, ErrInvalidQuantity
	}

	var (
		participant domain.Participant
		raffle      domain.Raffle
	)
	err := s.queue.Do(ctx, raffleID, func(ctx context.Context) error {
		var err error
		raffle, err = s.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}
		if raffle.Status != domain.RaffleOpen || raffle.HasEnded(s.now()) {
			return ErrRaffleNotOpen
		}

		holding, err := s.store.ListParticipants(ctx, raffleID, domain.HoldingStatuses...)
		if err != nil {
			return storeErr("s.store.ListParticipants", err)
		}
		for _, p := range holding {
			if p.UserID == userID {
				return ErrAlreadyParticipating
			}
		}

		if remaining := RemainingCapacity(raffle.MaxTickets, holding); quantity > remaining {
			return &CapacityError{Remaining: max(remaining, 0)}
		}

		participant, err = s.store.InsertParticipant(ctx, domain.Participant{
			RaffleID:   raffleID,
			UserID:     userID,
			GuildID:    raffle.GuildID,
			Quantity:   quantity,
			TotalPrice: raffle.PricePerTicket.Mul(decimal.NewFromInt(int64(quantity))),
			Status:     domain.ParticipantPendingPayment,
		})
		if err != nil {
			if errors.Is(err, repository.ErrActiveParticipation) {
				return ErrAlreadyParticipating
			}
			return storeErr("s.store.InsertParticipant", err)
		}

		return nil
	})
	if err != nil {
		return domain.Participant{}, raffle, err
	}

	zap.L().Info("tickets reserved",
		zap.String("raffle_id", raffleID),
		zap.String("user_id", userID),
		zap.Int("quantity", quantity),
	)
	s.refreshAnnouncement(ctx, raffleID)

	return participant, raffle, nil
}

// ReleaseReservation cancels the user's unpaid reservation.
func (s *RaffleService) ReleaseReservation(ctx context.Context, raffleID, userID string) (domain.Participant, error) {
	var released domain.Participant
	err := s.queue.Do(ctx, raffleID, func(ctx context.Context) error {
		p, err := s.findUserParticipant(ctx, raffleID, userID, domain.ParticipantPendingPayment)
		if err != nil {
			return err
		}

		cancelled := domain.ParticipantCancelled
		err = s.store.UpdateParticipant(ctx, p.ID, domain.ParticipantPatch{
			FromStatuses: []domain.ParticipantStatus{domain.ParticipantPendingPayment},
			Status:       &cancelled,
		})
		if err != nil {
			return processedErr("s.store.UpdateParticipant", err)
		}

		p.Status = cancelled
		released = p
		return nil
	})
	if err != nil {
		return domain.Participant{}, err
	}

	s.refreshAnnouncement(ctx, raffleID)

	return released, nil
}

// SubmitProof posts the user's payment proof for approval and moves their most recent unpaid
// reservation to PENDING_APPROVAL. Nothing changes if the approval request cannot be posted.
func (s *RaffleService) SubmitProof(ctx context.Context, userID, proofURL string) (domain.Participant, domain.Raffle, error) {
	pending, err := s.latestPendingPayment(ctx, userID)
	if err != nil {
		return domain.Participant{}, domain.Raffle{}, err
	}

	var raffle domain.Raffle
	err = s.queue.Do(ctx, pending.RaffleID, func(ctx context.Context) error {
		raffle, err = s.GetRaffle(ctx, pending.RaffleID)
		if err != nil {
			return err
		}

		pending.ProofURL = proofURL
		if err = s.messenger.RequestApproval(ctx, raffle, pending); err != nil {
			return deliveryErr("s.messenger.RequestApproval", err)
		}

		approval := domain.ParticipantPendingApproval
		err = s.store.UpdateParticipant(ctx, pending.ID, domain.ParticipantPatch{
			FromStatuses: []domain.ParticipantStatus{domain.ParticipantPendingPayment},
			Status:       &approval,
			ProofURL:     &proofURL,
		})
		if err != nil {
			return processedErr("s.store.UpdateParticipant", err)
		}

		pending.Status = approval
		return nil
	})
	if err != nil {
		return domain.Participant{}, raffle, err
	}

	return pending, raffle, nil
}

// RelayMessage forwards a plain direct message from a buyer with an unpaid reservation to the
// raffle's log channel.
func (s *RaffleService) RelayMessage(ctx context.Context, userID, content string) (domain.Raffle, error) {
	pending, err := s.latestPendingPayment(ctx, userID)
	if err != nil {
		return domain.Raffle{}, err
	}

	raffle, err := s.GetRaffle(ctx, pending.RaffleID)
	if err != nil {
		return domain.Raffle{}, err
	}

	if err = s.messenger.ForwardMessage(ctx, raffle, userID, content); err != nil {
		return raffle, deliveryErr("s.messenger.ForwardMessage", err)
	}

	return raffle, nil
}

// Confirm approves the user's payment and assigns their ticket numbers.
func (s *RaffleService) Confirm(ctx context.Context, actor domain.Actor, raffleID, userID string) (domain.Participant, domain.Raffle, error) {
	if !actor.Admin {
		return domain.Participant{}, domain.Raffle{}, ErrPermissionDenied
	}

	var (
		confirmed domain.Participant
		raffle    domain.Raffle
	)
	err := s.queue.Do(ctx, raffleID, func(ctx context.Context) error {
		var err error
		raffle, err = s.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}
		if raffle.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}

		target, err := s.findUserParticipant(ctx, raffleID, userID, domain.ParticipantPendingPayment, domain.ParticipantPendingApproval)
		if err != nil {
			return err
		}

		sold, err := s.store.ListParticipants(ctx, raffleID, domain.ParticipantConfirmed)
		if err != nil {
			return storeErr("s.store.ListParticipants", err)
		}
		soldCount := ComputeTally(raffle.MaxTickets, sold).Sold
		if soldCount+target.Quantity > raffle.MaxTickets {
			capErr := &CapacityError{Remaining: max(raffle.MaxTickets-soldCount, 0)}
			s.notify(ctx, domain.Notice{
				Kind:        domain.NoticeCapacityExceeded,
				Raffle:      raffle,
				Participant: target,
				Remaining:   capErr.Remaining,
			})
			return capErr
		}

		numbers := NextTicketNumbers(sold, target.Quantity)
		status := domain.ParticipantConfirmed
		err = s.store.UpdateParticipant(ctx, target.ID, domain.ParticipantPatch{
			FromStatuses:  []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantPendingApproval},
			Status:        &status,
			TicketNumbers: numbers,
		})
		if err != nil {
			return processedErr("s.store.UpdateParticipant", err)
		}

		target.Status = status
		target.TicketNumbers = numbers
		confirmed = target
		return nil
	})
	if err != nil {
		return domain.Participant{}, raffle, err
	}

	zap.L().Info("payment approved",
		zap.String("raffle_id", raffleID),
		zap.String("user_id", userID),
		zap.String("approved_by", actor.UserID),
		zap.Ints("ticket_numbers", confirmed.TicketNumbers),
	)
	s.notify(ctx, domain.Notice{Kind: domain.NoticePaymentApproved, Raffle: raffle, Participant: confirmed})
	s.refreshAnnouncement(ctx, raffleID)

	return confirmed, raffle, nil
}

// Refuse rejects the user's pending reservation and frees its tickets.
func (s *RaffleService) Refuse(ctx context.Context, actor domain.Actor, raffleID, userID string) (domain.Participant, domain.Raffle, error) {
	if !actor.Admin {
		return domain.Participant{}, domain.Raffle{}, ErrPermissionDenied
	}

	var (
		refused domain.Participant
		raffle  domain.Raffle
	)
	err := s.queue.Do(ctx, raffleID, func(ctx context.Context) error {
		var err error
		raffle, err = s.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}

		target, err := s.findUserParticipant(ctx, raffleID, userID, domain.ParticipantPendingPayment, domain.ParticipantPendingApproval)
		if err != nil {
			return err
		}

		status := domain.ParticipantRefused
		err = s.store.UpdateParticipant(ctx, target.ID, domain.ParticipantPatch{
			FromStatuses: []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantPendingApproval},
			Status:       &status,
		})
		if err != nil {
			return processedErr("s.store.UpdateParticipant", err)
		}

		target.Status = status
		refused = target
		return nil
	})
	if err != nil {
		return domain.Participant{}, raffle, err
	}

	zap.L().Info("payment refused",
		zap.String("raffle_id", raffleID),
		zap.String("user_id", userID),
		zap.String("refused_by", actor.UserID),
	)
	s.notify(ctx, domain.Notice{Kind: domain.NoticePaymentRefused, Raffle: raffle, Participant: refused})
	s.refreshAnnouncement(ctx, raffleID)

	return refused, raffle, nil
}

// findUserParticipant returns the user's row in one of the wanted statuses. When the user only
// has rows in other statuses the request was already handled.
func (s *RaffleService) findUserParticipant(ctx context.Context, raffleID, userID string, wanted ...domain.ParticipantStatus) (domain.Participant, error) {
	rows, err := s.store.ListUserParticipants(ctx, userID)
	if err != nil {
		return domain.Participant{}, storeErr("s.store.ListUserParticipants", err)
	}

	found := false
	for _, p := range rows {
		if p.RaffleID != raffleID {
			continue
		}
		found = true
		for _, status := range wanted {
			if p.Status == status {
				return p, nil
			}
		}
	}
	if found {
		return domain.Participant{}, ErrAlreadyProcessed
	}

	return domain.Participant{}, ErrParticipantNotFound
}

func (s *RaffleService) latestPendingPayment(ctx context.Context, userID string) (domain.Participant, error) {
	rows, err := s.store.ListUserParticipants(ctx, userID, domain.ParticipantPendingPayment)
	if err != nil {
		return domain.Participant{}, storeErr("s.store.ListUserParticipants", err)
	}
	if len(rows) == 0 {
		return domain.Participant{}, ErrParticipantNotFound
	}

	return rows[0], nil
}

// processedErr maps a lost conditional update to ErrAlreadyProcessed.
func processedErr(op string, err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return ErrAlreadyProcessed
	}
	return storeErr(op, err)
}
