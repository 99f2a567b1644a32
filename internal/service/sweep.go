package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"

	"go.uber.org/zap"
)

type SweepReport struct {
	Drawn  []string
	Failed map[string]error
}

// Sweep draws every open raffle whose end time has passed. A failure on one raffle does not
// stop the others.
func (s *RaffleService) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{Failed: make(map[string]error)}

	open, err := s.ListOpenRaffles(ctx, "")
	if err != nil {
		return report, err
	}

	now := s.now()
	for _, raffle := range open {
		if !raffle.HasEnded(now) {
			continue
		}

		if _, _, err = s.Draw(ctx, domain.SystemActor, raffle.ID); err != nil {
			if errors.Is(err, ErrAlreadyFinalized) {
				continue
			}
			zap.L().Error("failed to draw expired raffle", zap.String("raffle_id", raffle.ID), zap.Error(err))
			report.Failed[raffle.ID] = err
			continue
		}
		report.Drawn = append(report.Drawn, raffle.ID)
	}

	return report, nil
}

// Sweeper runs Sweep on a fixed interval. The interval can be changed while it runs.
type Sweeper struct {
	svc      *RaffleService
	interval atomic.Int64
}

func NewSweeper(svc *RaffleService, interval time.Duration) *Sweeper {
	sw := &Sweeper{svc: svc}
	sw.SetInterval(interval)
	return sw
}

func (sw *Sweeper) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	sw.interval.Store(int64(interval))
}

func (sw *Sweeper) Interval() time.Duration {
	return time.Duration(sw.interval.Load())
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (sw *Sweeper) Run(ctx context.Context) {
	for {
		sw.sweepOnce(ctx)

		timer := time.NewTimer(sw.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (sw *Sweeper) sweepOnce(ctx context.Context) {
	report, err := sw.svc.Sweep(ctx)
	if err != nil {
		zap.L().Error("raffle sweep failed", zap.Error(err))
		return
	}
	if len(report.Drawn) > 0 || len(report.Failed) > 0 {
		zap.L().Info("raffle sweep finished",
			zap.Strings("drawn", report.Drawn),
			zap.Int("failed", len(report.Failed)),
		)
	}
}
