package main

import (
	"context"
	"fmt"
	"path/filepath"

	"timeclock/internal/clock"
	"timeclock/internal/config"
	"timeclock/internal/connectivity"
	"timeclock/internal/database"
	"timeclock/internal/events"
	"timeclock/internal/ledger"
	"timeclock/internal/lookup"
	"timeclock/internal/service"
	"timeclock/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the wired components of one terminal.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger

	clock     clock.Clock
	bus       *events.EventBus
	ledger    ledger.Gateway
	breaker   *ledger.Breaker
	redis     *redis.Client
	queue     *storage.Queue
	directory *lookup.Directory
	history   *database.DB
	monitor   *connectivity.Monitor
	submitter *service.Submitter
	sweeper   *service.Sweeper
}

func newApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		clock:  clock.NewSystem(cfg.Clock.OffsetHours),
		bus:    events.NewEventBus(),
	}

	remote, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.breaker = ledger.NewBreaker(remote, ledger.BreakerConfig{
		ConsecutiveFailures: cfg.Ledger.Breaker.ConsecutiveFailures,
		Timeout:             cfg.BreakerTimeout(),
	}, logger)
	a.ledger = a.breaker

	if ttl := cfg.CacheTTL(); ttl > 0 {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.ledger = ledger.NewCachedLookups(a.breaker, a.redis, ttl)
	}

	a.queue, err = storage.OpenQueue(filepath.Join(cfg.Storage.Dir, storage.QueueFile), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open offline queue: %w", err)
	}
	cache, err := storage.OpenCache(filepath.Join(cfg.Storage.Dir, storage.CacheFile), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open lookup cache: %w", err)
	}
	a.directory = lookup.NewDirectory(a.ledger, cache, a.clock, logger)

	a.history, err = database.NewDB(cfg.Database.Path, cfg.Location(), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	var prober connectivity.Prober = connectivity.Static(true)
	if cfg.Ledger.Backend == "sheets" {
		prober = connectivity.NewProbe(cfg.Connectivity.Hosts, cfg.ProbeTimeout())
	}
	a.monitor = connectivity.NewMonitor(prober, a.bus, logger)

	deps := service.Deps{
		Ledger:    a.ledger,
		Directory: a.directory,
		Queue:     a.queue,
		History:   a.history,
		Prober:    a.monitor,
		Bus:       a.bus,
		Clock:     a.clock,
		Logger:    logger,
	}
	a.submitter = service.NewSubmitter(deps, rules)
	a.sweeper = service.NewSweeper(deps)
	return a, nil
}

func openLedger(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (ledger.Gateway, error) {
	ws := ledger.Worksheets{
		Events:     cfg.Ledger.Worksheets.Events,
		Subjects:   cfg.Ledger.Worksheets.Subjects,
		Activities: cfg.Ledger.Worksheets.Activities,
		Orders:     cfg.Ledger.Worksheets.Orders,
	}

	switch cfg.Ledger.Backend {
	case "sheets":
		if cfg.Ledger.SpreadsheetID == "" {
			return nil, fmt.Errorf("ledger.spreadsheet_id is required for the sheets backend")
		}
		gw, err := ledger.NewSheetsGateway(ctx, ledger.SheetsConfig{
			SpreadsheetID:     cfg.Ledger.SpreadsheetID,
			CredentialsFile:   cfg.Ledger.CredentialsFile,
			Worksheets:        ws,
			Timeout:           cfg.LedgerTimeout(),
			RequestsPerMinute: cfg.Ledger.RequestsPerMinute,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open sheets ledger: %w", err)
		}
		if err := gw.EnsureHeader(ctx); err != nil {
			logger.Warn().Err(err).Msg("ledger header not checked")
		}
		return gw, nil
	case "xlsx":
		gw, err := ledger.NewWorkbookGateway(cfg.Ledger.WorkbookPath, ws, logger)
		if err != nil {
			return nil, fmt.Errorf("open workbook ledger: %w", err)
		}
		return gw, nil
	case "memory":
		logger.Warn().Msg("in-memory ledger, records are lost on exit")
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

// Close releases the history database and the Redis client.
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error().Err(err).Msg("close history")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
