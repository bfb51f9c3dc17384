package luna

import (
	"context"
	"log/slog"
)

// SweepReport summarizes one expiry sweep.
type SweepReport struct {
	Expired int
	Woken   int
}

// Sweep runs one expiry pass: every non-terminal, non-accepted message
// past its deadline becomes expired, and every snoozed message whose
// wake time has arrived returns to pending. Safe to run concurrently
// with admission; both sides guard their transitions.
func (s *Service) Sweep(ctx context.Context) (*SweepReport, error) {
	now := s.now()

	expired, err := s.messages.ExpireStale(ctx, now)
	if err != nil {
		return nil, err
	}

	woken, err := s.messages.WakeAllDueSnoozed(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Expired: expired, Woken: woken}
	s.log.Info("sweep finished",
		slog.Int("expired", report.Expired),
		slog.Int("woken", report.Woken),
	)
	return report, nil
}
