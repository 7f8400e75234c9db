package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

// Sweeper is the maintenance pass run by HousekeepingService.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// HousekeepingService periodically marks stale pending invitations as
// expired so they stop blocking new invites to the same address.
type HousekeepingService struct {
	Sweeper  Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(sweeper Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Sweeper:  sweeper,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run once immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := slogx.WithContext(context.Background(), s.Logger)

	n, err := s.Sweeper.SweepExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to sweep expired invitations", slog.Any("error", err))
		return
	}
	s.Logger.Debug("housekeeping cleanup completed", slog.Int64("expired_invitations", n))
}
