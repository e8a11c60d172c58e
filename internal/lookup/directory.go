// Package lookup resolves scanned codes against the remote lookup tables,
// falling back to the local cache when the ledger is unreachable.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"timeclock/internal/clock"
	"timeclock/internal/ledger"
	"timeclock/internal/models"
	"timeclock/internal/storage"

	"github.com/rs/zerolog"
)

// invalidator is a lookup source with its own cache, such as
// ledger.CachedLookups.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Directory answers subject, activity and order lookups.
type Directory struct {
	remote ledger.Lookups
	cache  *storage.CacheStore
	clock  clock.Clock
	logger *zerolog.Logger
}

func NewDirectory(remote ledger.Lookups, cache *storage.CacheStore, clk clock.Clock, logger *zerolog.Logger) *Directory {
	return &Directory{remote: remote, cache: cache, clock: clk, logger: logger}
}

// Subject resolves a subject code. Unknown codes yield ledger.ErrNotFound.
func (d *Directory) Subject(ctx context.Context, code string) (models.Subject, error) {
	s, err := ledger.FindSubject(ctx, d.remote, code)
	if !errors.Is(err, ledger.ErrUnavailable) {
		return s, err
	}
	d.fallback("subject", code, err)
	if s, ok := d.cache.Snapshot().FindSubject(code); ok {
		return s, nil
	}
	return models.Subject{}, fmt.Errorf("subject %s: %w", code, ledger.ErrNotFound)
}

func (d *Directory) Activity(ctx context.Context, code string) (models.Activity, error) {
	a, err := ledger.FindActivity(ctx, d.remote, code)
	if !errors.Is(err, ledger.ErrUnavailable) {
		return a, err
	}
	d.fallback("activity", code, err)
	if a, ok := d.cache.Snapshot().FindActivity(code); ok {
		return a, nil
	}
	return models.Activity{}, fmt.Errorf("activity %s: %w", code, ledger.ErrNotFound)
}

func (d *Directory) Order(ctx context.Context, id string) (models.Order, error) {
	o, err := ledger.FindOrder(ctx, d.remote, id)
	if !errors.Is(err, ledger.ErrUnavailable) {
		return o, err
	}
	d.fallback("order", id, err)
	if o, ok := d.cache.Snapshot().FindOrder(id); ok {
		return o, nil
	}
	return models.Order{}, fmt.Errorf("order %s: %w", id, ledger.ErrNotFound)
}

func (d *Directory) fallback(table, key string, err error) {
	d.logger.Warn().
		Err(err).
		Str("table", table).
		Str("key", key).
		Msg("ledger unreachable, using local lookup cache")
}

// Rebuild replaces the local cache with the current remote tables. The
// cache is left untouched when any table cannot be read. A caching remote is
// invalidated first so the tables come from the ledger itself.
func (d *Directory) Rebuild(ctx context.Context) (models.LookupCache, error) {
	if inv, ok := d.remote.(invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("lookup cache invalidation failed")
		}
	}
	subjects, err := d.remote.Subjects(ctx)
	if err != nil {
		return models.LookupCache{}, fmt.Errorf("rebuild subjects: %w", err)
	}
	activities, err := d.remote.Activities(ctx)
	if err != nil {
		return models.LookupCache{}, fmt.Errorf("rebuild activities: %w", err)
	}
	orders, err := d.remote.Orders(ctx)
	if err != nil {
		return models.LookupCache{}, fmt.Errorf("rebuild orders: %w", err)
	}

	c := models.LookupCache{
		Subjects:      subjects,
		Activities:    activities,
		Orders:        orders,
		LastRefreshed: d.clock.Now(),
	}
	if err := d.cache.Replace(c); err != nil {
		return models.LookupCache{}, err
	}
	d.logger.Info().
		Int("subjects", len(subjects)).
		Int("activities", len(activities)).
		Int("orders", len(orders)).
		Msg("lookup cache rebuilt")
	return c, nil
}

// Snapshot returns the local cache contents.
func (d *Directory) Snapshot() models.LookupCache {
	return d.cache.Snapshot()
}
