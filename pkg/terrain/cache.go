// Package terrain caches ground elevations measured in the simulator. Keys
// are H3 cells, so nearby samples share an entry; the hot set lives in an
// LRU in front of the sqlite store.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/uber/h3-go/v4"

	"swiftgo/pkg/store"
)

const (
	// DefaultResolution is about 0.1 km² per cell.
	DefaultResolution = 9
	DefaultSize       = 20000

	storeTimeout = 2 * time.Second
)

// ElevationCache maps positions to measured ground elevations in feet.
// It is safe for concurrent use.
type ElevationCache struct {
	resolution int
	cells      *lru.Cache[string, float64]
	store      store.ElevationStore
	logger     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats are the lookup counters of the cache.
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewElevationCache creates a cache of size cells at an H3 resolution. st
// may be nil for a memory only cache.
func NewElevationCache(size, resolution int, st store.ElevationStore) (*ElevationCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("invalid h3 resolution %d", resolution)
	}
	cells, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &ElevationCache{
		resolution: resolution,
		cells:      cells,
		store:      st,
		logger:     slog.Default().With("component", "terrain"),
	}, nil
}

// Cell returns the cache key of a position.
func (c *ElevationCache) Cell(lat, lon float64) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), c.resolution)
	if err != nil {
		return "", fmt.Errorf("cell for %.5f,%.5f: %w", lat, lon, err)
	}
	return cell.String(), nil
}

// Elevation returns the cached elevation of the cell containing lat/lon.
func (c *ElevationCache) Elevation(lat, lon float64) (float64, bool) {
	key, err := c.Cell(lat, lon)
	if err != nil {
		return 0, false
	}
	if ft, ok := c.cells.Get(key); ok {
		c.hits.Add(1)
		return ft, true
	}
	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if ft, ok := c.store.GetElevation(ctx, key); ok {
			c.cells.Add(key, ft)
			c.hits.Add(1)
			return ft, true
		}
	}
	c.misses.Add(1)
	return 0, false
}

// StoreElevation records a measured elevation.
func (c *ElevationCache) StoreElevation(lat, lon, elevationFt float64) {
	key, err := c.Cell(lat, lon)
	if err != nil {
		c.logger.Debug("Dropping elevation", "error", err)
		return
	}
	c.cells.Add(key, elevationFt)
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.SaveElevation(ctx, key, elevationFt); err != nil {
		c.logger.Warn("Failed to persist elevation", "cell", key, "error", err)
	}
}

// Warm loads up to limit recently measured cells from the store.
func (c *ElevationCache) Warm(ctx context.Context, limit int) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	recent, err := c.store.RecentElevations(ctx, limit)
	if err != nil {
		return 0, err
	}
	for key, ft := range recent {
		c.cells.Add(key, ft)
	}
	c.logger.Debug("Elevation cache warmed", "cells", len(recent))
	return len(recent), nil
}

// Stats returns the counters.
func (c *ElevationCache) Stats() Stats {
	return Stats{Size: c.cells.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
