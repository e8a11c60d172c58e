package storage

import (
	"errors"
	"fmt"
	"sync"

	"timeclock/internal/models"

	"github.com/rs/zerolog"
)

// CacheStore holds the local lookup cache file.
type CacheStore struct {
	path   string
	mu     sync.RWMutex
	cache  models.LookupCache
	logger *zerolog.Logger
}

// OpenCache loads the cache file. The cache is disposable, so a corrupt
// file is moved aside and the store starts empty.
func OpenCache(path string, logger *zerolog.Logger) (*CacheStore, error) {
	var c models.LookupCache
	if _, err := readJSON(path, &c); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("lookup cache discarded")
		c = models.LookupCache{}
	}
	return &CacheStore{path: path, cache: c, logger: logger}, nil
}

// Snapshot returns the cached tables.
func (s *CacheStore) Snapshot() models.LookupCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// Replace swaps the whole cache and persists it.
func (s *CacheStore) Replace(c models.LookupCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.path, c); err != nil {
		return fmt.Errorf("save lookup cache: %w", err)
	}
	s.cache = c
	s.logger.Debug().
		Int("subjects", len(c.Subjects)).
		Int("activities", len(c.Activities)).
		Int("orders", len(c.Orders)).
		Msg("lookup cache saved")
	return nil
}
