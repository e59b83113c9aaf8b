package service

import (
	"sort"
	"strings"
	"sync"

	"parkeasy/internal/cache"
	"parkeasy/internal/models"
)

// State holds everything a single view renders from: the selected
// location and floor, the booking list and the slot cache. Renders always
// read from here, never from a previous network response.
//
// The selected location and floor are read by the broadcast subscription
// goroutine while the interactive loop writes them, so they sit behind a
// mutex. Bookings is only touched from the interactive loop.
type State struct {
	mu       sync.RWMutex
	location string
	floor    int

	Bookings []models.Booking
	Slots    *cache.SlotCache
}

func NewState(location string, floor int, slots *cache.SlotCache) *State {
	return &State{location: location, floor: floor, Slots: slots}
}

// View returns the selected location and floor.
func (st *State) View() (string, int) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.location, st.floor
}

func (st *State) Location() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.location
}

func (st *State) Floor() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.floor
}

// SetView switches the selected location and floor.
func (st *State) SetView(location string, floor int) {
	st.mu.Lock()
	st.location = location
	st.floor = floor
	st.mu.Unlock()
}

// matchesView reports whether a mutation at the given location should
// patch this view's slot cache. An empty location on either side means
// "all locations" and always matches.
func (st *State) matchesView(location string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.location == "" || location == "" || location == st.location
}

func (st *State) FindBooking(id string) (*models.Booking, bool) {
	for i := range st.Bookings {
		if st.Bookings[i].ID == id {
			return &st.Bookings[i], true
		}
	}
	return nil, false
}

func (st *State) RemoveBooking(id string) {
	for i := range st.Bookings {
		if st.Bookings[i].ID == id {
			st.Bookings = append(st.Bookings[:i], st.Bookings[i+1:]...)
			return
		}
	}
}

// SortedBookings returns the bookings ordered for display: active ones
// first, newest first within each group. The stored slice is not touched.
func (st *State) SortedBookings() []models.Booking {
	out := make([]models.Booking, len(st.Bookings))
	copy(out, st.Bookings)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Status == models.StatusActive) != (b.Status == models.StatusActive) {
			return a.Status == models.StatusActive
		}
		return a.SortKey().After(b.SortKey())
	})
	return out
}

// FilterBookings narrows the list by status, location and date. Empty
// filter values match everything.
func (st *State) FilterBookings(status, location, date string) []models.Booking {
	var out []models.Booking
	for _, b := range st.Bookings {
		if status != "" && !strings.EqualFold(b.Status, status) {
			continue
		}
		if location != "" && b.Location != location {
			continue
		}
		if date != "" && b.Date != date {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BookingStats summarizes the customer's own history.
type BookingStats struct {
	Active     int
	Completed  int
	Cancelled  int
	TotalSpent int
}

func (st *State) BookingStats() BookingStats {
	var s BookingStats
	for _, b := range st.Bookings {
		switch b.Status {
		case models.StatusActive:
			s.Active++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusCancelled:
			s.Cancelled++
		}
		if b.Status != models.StatusCancelled {
			s.TotalSpent += b.Amount
		}
	}
	return s
}

// LocalStats computes dashboard numbers from what is already in memory.
// Used when the stats endpoint is unreachable.
func (st *State) LocalStats() models.Stats {
	var s models.Stats
	s.TotalBookings = len(st.Bookings)
	for _, b := range st.Bookings {
		if b.Status == models.StatusActive {
			s.ActiveBookings++
		}
		if b.Status != models.StatusCancelled {
			s.TotalRevenue += b.Amount
		}
	}
	if st.Slots != nil {
		_, s.AvailableSlots, _ = st.Slots.Counts()
	}
	return s
}

// LocationCount is the per-location line of the admin summary.
type LocationCount struct {
	Location string
	Active   int
	Total    int
}

func (st *State) ByLocation() []LocationCount {
	idx := make(map[string]int)
	var out []LocationCount
	for _, b := range st.Bookings {
		loc := b.Location
		if loc == "" {
			loc = models.DefaultLocation
		}
		i, ok := idx[loc]
		if !ok {
			i = len(out)
			idx[loc] = i
			out = append(out, LocationCount{Location: loc})
		}
		out[i].Total++
		if b.Status == models.StatusActive {
			out[i].Active++
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}
