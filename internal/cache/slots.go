// Package cache keeps a per-view in-memory picture of slot state, rebuilt
// wholesale from the backend on every refresh.
package cache

import (
	"context"
	"sort"
	"sync"

	"parkeasy/internal/metrics"
	"parkeasy/internal/models"

	"github.com/rs/zerolog"
)

// Lister is the slice of the API client the cache needs.
type Lister interface {
	ListSlots(ctx context.Context, location string, floor int, status string) ([]models.Slot, error)
}

// FallbackPolicy decides what Refresh does when the backend call fails.
type FallbackPolicy int

const (
	// KeepStale leaves the previous mapping untouched and surfaces the
	// error. The admin view uses this.
	KeepStale FallbackPolicy = iota

	// SynthesizeGrid replaces the mapping with the deterministic default
	// grid, all available, so the view stays usable offline. The customer
	// view uses this.
	SynthesizeGrid
)

// SlotCache maps slot identifier to its last known state.
type SlotCache struct {
	mu       sync.RWMutex
	slots    map[string]models.Slot
	lister   Lister
	fallback FallbackPolicy
	logger   *zerolog.Logger
}

func New(lister Lister, fallback FallbackPolicy, logger *zerolog.Logger) *SlotCache {
	return &SlotCache{
		slots:    make(map[string]models.Slot),
		lister:   lister,
		fallback: fallback,
		logger:   logger,
	}
}

// Refresh fetches slots for a location/floor and replaces the whole mapping.
// There is no merging; any optimistic patch is discarded by the fetch result.
func (c *SlotCache) Refresh(ctx context.Context, location string, floor int) (map[string]models.Slot, error) {
	fetched, err := c.lister.ListSlots(ctx, location, floor, "")
	if err != nil {
		metrics.IncCacheRefresh("error")
		if c.fallback == KeepStale {
			return nil, err
		}

		if c.logger != nil {
			c.logger.Warn().Err(err).Str("location", location).Int("floor", floor).
				Msg("slot fetch failed, synthesizing default grid")
		}
		grid := DefaultGrid(location, floor)
		c.replace(grid)
		return c.Snapshot(), nil
	}

	next := make(map[string]models.Slot, len(fetched))
	for _, slot := range fetched {
		next[slot.ID] = slot
	}
	c.replace(next)
	metrics.IncCacheRefresh("ok")
	return c.Snapshot(), nil
}

func (c *SlotCache) replace(next map[string]models.Slot) {
	c.mu.Lock()
	c.slots = next
	c.mu.Unlock()
}

// DefaultGrid builds the offline fallback: zones A-D, numbers 1-3, all
// available on the given floor/location.
func DefaultGrid(location string, floor int) map[string]models.Slot {
	grid := make(map[string]models.Slot, len(models.GridZones)*len(models.GridNumbers))
	for _, zone := range models.GridZones {
		for _, num := range models.GridNumbers {
			id := models.SlotID(floor, zone, num)
			grid[id] = models.Slot{
				ID:       id,
				Status:   models.SlotAvailable,
				Floor:    floor,
				Location: location,
			}
		}
	}
	return grid
}

// Get returns the cached state of one slot.
func (c *SlotCache) Get(id string) (models.Slot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slot, ok := c.slots[id]
	return slot, ok
}

// Snapshot copies the current mapping.
func (c *SlotCache) Snapshot() map[string]models.Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Slot, len(c.slots))
	for id, slot := range c.slots {
		out[id] = slot
	}
	return out
}

// AvailableIDs lists available slots in stable order for dropdowns.
func (c *SlotCache) AvailableIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.slots))
	for id, slot := range c.slots {
		if slot.Status == models.SlotAvailable {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// MarkBooked applies an optimistic booked patch. Slots the view has not
// loaded are left alone; the authoritative refresh will bring them in.
func (c *SlotCache) MarkBooked(id, occupant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[id]
	if !ok {
		return
	}
	slot.Status = models.SlotBooked
	slot.BookedBy = occupant
	c.slots[id] = slot
}

// MarkAvailable applies an optimistic free patch.
func (c *SlotCache) MarkAvailable(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[id]
	if !ok {
		return
	}
	slot.Status = models.SlotAvailable
	slot.BookedBy = ""
	c.slots[id] = slot
}

// Counts reports totals for the availability stats line.
func (c *SlotCache) Counts() (total, available, booked int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total = len(c.slots)
	for _, slot := range c.slots {
		if slot.Status == models.SlotAvailable {
			available++
		}
	}
	booked = total - available
	return total, available, booked
}
