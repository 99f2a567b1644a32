package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	quickRaffleDuration   = 24 * time.Hour
	quickRafflePaymentKey = "123456789"
	quickRaffleKeyKind    = "Chave Aleatória"
)

var positiveDecimal = validation.By(func(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
})

// ValidateDraft checks that a raffle has every field needed to be published.
func ValidateDraft(raffle domain.Raffle) error {
	err := validation.ValidateStruct(&raffle,
		validation.Field(&raffle.GuildID, validation.Required),
		validation.Field(&raffle.Title, validation.Required),
		validation.Field(&raffle.Description, validation.Required),
		validation.Field(&raffle.PricePerTicket, positiveDecimal),
		validation.Field(&raffle.MaxTickets, validation.Required, validation.Min(1)),
		validation.Field(&raffle.StartTime, validation.Required),
		validation.Field(&raffle.EndTime, validation.Required, validation.By(func(interface{}) error {
			if !raffle.EndTime.After(raffle.StartTime) {
				return errors.New("must be after the start time")
			}
			return nil
		})),
		validation.Field(&raffle.PaymentKey, validation.Required),
		validation.Field(&raffle.PaymentKeyKind, validation.Required),
		validation.Field(&raffle.PublishChannelID, validation.Required),
		validation.Field(&raffle.LogChannelID, validation.Required),
		validation.Field(&raffle.ImageURL, is.URL),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncompleteConfiguration, err)
	}

	return nil
}

// Publish posts the announcement for a complete draft and stores it as OPEN. If the
// announcement cannot be posted nothing is stored, and if storing fails the announcement is
// removed again.
func (s *RaffleService) Publish(ctx context.Context, actor domain.Actor, draft domain.Raffle) (domain.Raffle, error) {
	if !actor.Admin {
		return domain.Raffle{}, ErrPermissionDenied
	}
	if err := ValidateDraft(draft); err != nil {
		return domain.Raffle{}, err
	}

	raffle := draft
	raffle.ID = uuid.NewString()
	raffle.CreatorID = actor.UserID
	raffle.Status = domain.RaffleOpen
	raffle.WinnerUserID = ""
	raffle.WinningNumber = 0

	messageID, err := s.messenger.PublishAnnouncement(ctx, raffle, domain.Tally{
		MaxTickets: raffle.MaxTickets,
		Remaining:  raffle.MaxTickets,
	})
	if err != nil {
		return domain.Raffle{}, deliveryErr("s.messenger.PublishAnnouncement", err)
	}
	raffle.MessageID = messageID

	created, err := s.store.InsertRaffle(ctx, raffle)
	if err != nil {
		if delErr := s.messenger.DeleteAnnouncement(ctx, raffle); delErr != nil {
			zap.L().Error("failed to remove orphan announcement",
				zap.String("raffle_id", raffle.ID),
				zap.String("message_id", messageID),
				zap.Error(delErr),
			)
		}
		return domain.Raffle{}, storeErr("s.store.InsertRaffle", err)
	}

	s.observe(created, domain.Tally{MaxTickets: created.MaxTickets, Remaining: created.MaxTickets})
	zap.L().Info("raffle published",
		zap.String("raffle_id", created.ID),
		zap.String("guild_id", created.GuildID),
		zap.String("creator_id", actor.UserID),
	)

	return created, nil
}

// QuickRaffle publishes a test raffle in the guild's default channels that ends in 24 hours.
func (s *RaffleService) QuickRaffle(ctx context.Context, actor domain.Actor, guildID, title string, price decimal.Decimal, maxTickets int) (domain.Raffle, error) {
	if !actor.Admin {
		return domain.Raffle{}, ErrPermissionDenied
	}

	settings, err := s.GetGuildSettings(ctx, guildID)
	if err != nil {
		return domain.Raffle{}, err
	}

	now := s.now()
	return s.Publish(ctx, actor, domain.Raffle{
		GuildID:          guildID,
		Title:            title,
		Description:      fmt.Sprintf("Rifa de teste para: %s.", title),
		PricePerTicket:   price,
		MaxTickets:       maxTickets,
		StartTime:        now,
		EndTime:          now.Add(quickRaffleDuration),
		PaymentKey:       quickRafflePaymentKey,
		PaymentKeyKind:   quickRaffleKeyKind,
		PublishChannelID: settings.DefaultPublishChannelID,
		LogChannelID:     settings.DefaultLogChannelID,
	})
}

// Draw closes an open raffle and picks its winner. A raffle without confirmed tickets is
// still closed, with NoParticipants set on the outcome.
func (s *RaffleService) Draw(ctx context.Context, actor domain.Actor, raffleID string) (domain.DrawOutcome, domain.Raffle, error) {
	if !actor.Admin {
		return domain.DrawOutcome{}, domain.Raffle{}, ErrPermissionDenied
	}

	var (
		outcome domain.DrawOutcome
		raffle  domain.Raffle
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
		if raffle.Status != domain.RaffleOpen {
			return ErrRaffleNotOpen
		}

		confirmed, err := s.store.ListParticipants(ctx, raffleID, domain.ParticipantConfirmed)
		if err != nil {
			return storeErr("s.store.ListParticipants", err)
		}

		outcome, err = s.engine.Draw(confirmed)
		if err != nil && !errors.Is(err, ErrNoParticipants) {
			return fmt.Errorf("s.engine.Draw -> %w", err)
		}

		now := s.now()
		from, drawn := domain.RaffleOpen, domain.RaffleDrawn
		patch := domain.RafflePatch{
			FromStatus:    &from,
			Status:        &drawn,
			EndTime:       &now,
			WinnerUserID:  &outcome.WinnerUserID,
			WinningNumber: &outcome.WinningNumber,
		}
		if err = s.store.UpdateRaffle(ctx, raffleID, patch); err != nil {
			return finalizedErr("s.store.UpdateRaffle", err)
		}
		patch.Apply(&raffle)

		return nil
	})
	if err != nil {
		return domain.DrawOutcome{}, raffle, err
	}

	zap.L().Info("raffle drawn",
		zap.String("raffle_id", raffleID),
		zap.String("drawn_by", actor.UserID),
		zap.Bool("no_participants", outcome.NoParticipants),
		zap.String("winner_user_id", outcome.WinnerUserID),
		zap.Int("winning_number", outcome.WinningNumber),
	)
	if err = s.messenger.CloseAnnouncement(ctx, raffle, outcome); err != nil {
		zap.L().Warn("failed to announce draw result", zap.String("raffle_id", raffleID), zap.Error(err))
	}
	s.observeFinal(ctx, raffle)

	return outcome, raffle, nil
}

// Cancel closes an open raffle without a draw.
func (s *RaffleService) Cancel(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, error) {
	if !actor.Admin {
		return domain.Raffle{}, ErrPermissionDenied
	}

	var raffle domain.Raffle
	err := s.queue.Do(ctx, raffleID, func(ctx context.Context) error {
		var err error
		raffle, err = s.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}
		if raffle.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}

		now := s.now()
		from, cancelled := raffle.Status, domain.RaffleCancelled
		patch := domain.RafflePatch{FromStatus: &from, Status: &cancelled, EndTime: &now}
		if err = s.store.UpdateRaffle(ctx, raffleID, patch); err != nil {
			return finalizedErr("s.store.UpdateRaffle", err)
		}
		patch.Apply(&raffle)

		return nil
	})
	if err != nil {
		return raffle, err
	}

	zap.L().Info("raffle cancelled", zap.String("raffle_id", raffleID), zap.String("cancelled_by", actor.UserID))
	if err = s.messenger.CancelAnnouncement(ctx, raffle); err != nil {
		zap.L().Warn("failed to edit cancelled announcement", zap.String("raffle_id", raffleID), zap.Error(err))
	}
	s.observeFinal(ctx, raffle)

	return raffle, nil
}

func finalizedErr(op string, err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return ErrAlreadyFinalized
	}
	return storeErr(op, err)
}
