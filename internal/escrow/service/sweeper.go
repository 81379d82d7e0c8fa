package service

import (
	"context"
	"log/slog"
	"time"
)

// SweeperService is the background scheduler: dispute deadlines, the key
// rotation worklist, and record cleanup all run on one fixed interval. Each
// pass is independent; a failure in one task never stops the others.
type SweeperService struct {
	Keys     *KeyManagerService
	Tokens   *AccessTokenService
	Disputes *DisputeResolver
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeperService creates the sweeper. If interval is 0 or negative,
// defaults to 5 minutes.
func NewSweeperService(keys *KeyManagerService, tokens *AccessTokenService, disputes *DisputeResolver, logger *slog.Logger, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &SweeperService{
		Keys:     keys,
		Tokens:   tokens,
		Disputes: disputes,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down gracefully.
func (s *SweeperService) Start() {
	go s.run()
	s.Logger.Info("sweeper started", "interval", s.Interval)
}

// Stop shuts down the worker and blocks until any in-progress pass finishes.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("sweeper stopped")
}

func (s *SweeperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run immediately on startup so deadlines missed during downtime are
	// picked up without waiting a full interval.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SweeperService) sweep() {
	ctx := context.Background()
	started := time.Now()

	s.Disputes.Sweep(ctx)

	due, err := s.Keys.ListKeysRequiringRotation(ctx)
	if err != nil {
		s.Logger.Error("sweep: rotation worklist", "error", err)
	} else if len(due) > 0 {
		// Rotation stays a deliberate operation; the sweep only surfaces
		// the worklist for operators.
		for _, key := range due {
			s.Logger.Warn("key rotation due",
				"key_id", key.ID,
				"key_type", string(key.KeyType),
				"expires_at", key.ExpiresAt,
			)
		}
	}

	if err := s.Tokens.DeleteExpired(ctx); err != nil {
		s.Logger.Error("sweep: expired token cleanup", "error", err)
	}

	if err := s.Keys.PurgeExpiredGraceKeys(ctx); err != nil {
		s.Logger.Error("sweep: grace key purge", "error", err)
	}

	s.Logger.Debug("sweep pass complete", "duration", time.Since(started))
}
