package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type HelpSessionStore interface {
	CleanupHelpSessions(ctx context.Context) (int64, error)
}

type MembercountSweeper interface {
	Sweep(ttl time.Duration) int
}

type OwnerSweeper interface {
	Sweep() int
}

type Config struct {
	Schedule       string
	MembercountTTL time.Duration
	RunTimeout     time.Duration
}

type Result struct {
	Skipped      bool
	HelpSessions int64
	Membercount  int
	TempOwners   int
	Err          error
}

// Scheduler evicts expired help sessions and ephemeral registry entries on
// a cron schedule. Runs never overlap and never panic out.
type Scheduler struct {
	cfg         Config
	store       HelpSessionStore
	membercount MembercountSweeper
	owners      OwnerSweeper
	logger      *zap.Logger

	running sync.Mutex

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

func New(cfg Config, store HelpSessionStore, membercount MembercountSweeper, owners OwnerSweeper, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 6h"
	}
	if cfg.MembercountTTL <= 0 {
		cfg.MembercountTTL = time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", cfg.Schedule, err)
	}

	return &Scheduler{
		cfg:         cfg,
		store:       store,
		membercount: membercount,
		owners:      owners,
		logger:      logger,
	}, nil
}

// RunOnce performs one sweep. A call made while another sweep is running
// returns immediately with Skipped set.
func (s *Scheduler) RunOnce(ctx context.Context) (result Result) {
	if !s.running.TryLock() {
		s.logger.Debug("cleanup already running, skipping")
		return Result{Skipped: true}
	}
	defer s.running.Unlock()
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("cleanup panic: %v", r)
			s.logger.Error("cleanup panicked", zap.Any("panic", r))
		}
	}()

	if s.store != nil {
		removed, err := s.store.CleanupHelpSessions(ctx)
		result.HelpSessions = removed
		if err != nil {
			result.Err = err
			s.logger.Warn("help session cleanup failed", zap.Error(err))
		}
	}
	if s.membercount != nil {
		result.Membercount = s.membercount.Sweep(s.cfg.MembercountTTL)
	}
	if s.owners != nil {
		result.TempOwners = s.owners.Sweep()
	}

	s.logger.Info("cleanup finished",
		zap.Int64("help_sessions", result.HelpSessions),
		zap.Int("membercount_sessions", result.Membercount),
		zap.Int("temp_owners", result.TempOwners),
	)
	return result
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	log := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.started = true
	s.logger.Info("cleanup scheduled", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop cancels future runs and waits for a running sweep or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
