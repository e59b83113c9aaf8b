package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parkeasy/internal/api"
	"parkeasy/internal/domain"
	"parkeasy/internal/models"
	"parkeasy/internal/pricing"
)

const (
	cancelPrompt = "Are you sure you want to cancel this booking?"
	deletePrompt = "Are you sure you want to delete this booking?"
)

// BookingService reconciles the local view state with the backend. Every
// mutation follows the same shape: validate against in-memory state, call
// the backend, patch the cheap local copy, then re-fetch to converge.
type BookingService struct {
	backend  domain.Backend
	notifier domain.Notifier
	confirm  domain.Confirmer
	state    *State
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(backend domain.Backend, notifier domain.Notifier, confirm domain.Confirmer, state *State, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		backend:  backend,
		notifier: notifier,
		confirm:  confirm,
		state:    state,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BookingService) State() *State { return s.state }

// SetView switches the selected location and floor and re-fetches slots.
func (s *BookingService) SetView(ctx context.Context, location string, floor int) error {
	s.state.SetView(location, floor)
	_, err := s.RefreshSlots(ctx)
	return err
}

// RefreshSlots re-fetches the slot list for the current view and replaces
// the cache wholesale.
func (s *BookingService) RefreshSlots(ctx context.Context) (map[string]models.Slot, error) {
	location, floor := s.state.View()
	return s.state.Slots.Refresh(ctx, location, floor)
}

// LoadBookings replaces the in-memory booking list with the backend's.
func (s *BookingService) LoadBookings(ctx context.Context) error {
	bookings, err := s.backend.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	s.state.Bookings = bookings
	return nil
}

// CreateForm is the raw booking form input. Location falls back to the
// current view's location when left empty.
type CreateForm struct {
	Name     string
	Vehicle  string
	Slot     string
	Location string
	Date     string
	Time     string
	Duration int
}

// Create validates the form, prices it, books it on the backend and then
// converges the local state: optimistic slot patch (only when the booking's
// location is the one on screen), broadcast, view switch to the booking's
// location and floor, and a slot re-fetch.
func (s *BookingService) Create(ctx context.Context, form CreateForm) (*models.Booking, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Vehicle = strings.TrimSpace(form.Vehicle)
	if form.Name == "" || form.Vehicle == "" || form.Slot == "" || form.Date == "" || form.Time == "" || form.Duration <= 0 {
		return nil, ErrMissingFields
	}
	if form.Location == "" {
		form.Location = s.state.Location()
	}

	start, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, form.Date+" "+form.Time, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date or time", ErrMissingFields)
	}
	if !start.After(s.now()) {
		return nil, ErrPastDate
	}

	// Cheap pre-flight against the cache. A conflict re-fetches so the next
	// attempt sees fresh availability.
	if slot, ok := s.state.Slots.Get(form.Slot); ok && slot.Status == models.SlotBooked {
		if _, rerr := s.RefreshSlots(ctx); rerr != nil {
			s.logger.Warn().Err(rerr).Msg("slot refresh after conflict failed")
		}
		return nil, ErrSlotUnavailable
	}

	req := api.CreateBookingRequest{
		Name:     form.Name,
		Vehicle:  form.Vehicle,
		Slot:     form.Slot,
		Location: form.Location,
		Date:     form.Date,
		Time:     form.Time,
		Duration: form.Duration,
		Amount:   pricing.Amount(form.Duration),
	}
	booking, err := s.backend.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.state.matchesView(req.Location) {
		s.state.Slots.MarkBooked(req.Slot, req.Name)
	}
	s.notifier.Broadcast(ctx)

	// Follow the booking: the view jumps to its location and floor.
	floor, ok := models.FloorFromSlotID(req.Slot)
	if !ok {
		floor = s.state.Floor()
	}
	s.state.SetView(req.Location, floor)
	if _, err := s.RefreshSlots(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("slot refresh after create failed")
	}
	if err := s.LoadBookings(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("booking reload after create failed")
	}

	s.logger.Info().Str("slot", req.Slot).Str("location", req.Location).
		Int("duration", req.Duration).Int("amount", req.Amount).Msg("booking created")
	return booking, nil
}

// Cancel marks the customer's booking cancelled. Requires confirmation and
// an active, not-yet-ended booking. Cancellations are not broadcast.
func (s *BookingService) Cancel(ctx context.Context, id string) error {
	b, ok := s.state.FindBooking(id)
	if !ok {
		return ErrBookingNotFound
	}
	if !b.CanModify(s.now()) {
		return ErrNotModifiable
	}
	if !s.confirm.Confirm(cancelPrompt) {
		return ErrDeclined
	}
	if err := s.backend.UpdateBooking(ctx, id, api.BookingUpdate{Status: models.StatusCancelled}); err != nil {
		return err
	}
	b.Status = models.StatusCancelled
	if s.state.matchesView(b.Location) {
		s.state.Slots.MarkAvailable(b.Slot)
	}
	if err := s.LoadBookings(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("booking reload after cancel failed")
	}
	s.logger.Info().Str("booking_id", id).Msg("booking cancelled")
	return nil
}

// Extend adds hours from the fixed duration set to an active booking and
// reprices the difference additively.
func (s *BookingService) Extend(ctx context.Context, id string, additional int) (*models.Booking, error) {
	b, ok := s.state.FindBooking(id)
	if !ok {
		return nil, ErrBookingNotFound
	}
	if !b.CanModify(s.now()) {
		return nil, ErrNotModifiable
	}
	if !pricing.ValidDuration(additional) {
		return nil, ErrInvalidDuration
	}

	newDuration := b.Duration + additional
	newAmount := b.Amount + pricing.Amount(additional)
	start, err := b.Start()
	if err != nil {
		return nil, fmt.Errorf("parse booking start: %w", err)
	}
	endAt := start.Add(time.Duration(newDuration) * time.Hour).Format(models.TimestampLayout)

	update := api.BookingUpdate{Duration: newDuration, Amount: newAmount, EndAt: endAt}
	if err := s.backend.UpdateBooking(ctx, id, update); err != nil {
		return nil, err
	}
	b.Duration = newDuration
	b.Amount = newAmount
	b.EndAt = endAt
	if err := s.LoadBookings(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("booking reload after extend failed")
	}
	s.logger.Info().Str("booking_id", id).Int("duration", newDuration).Int("amount", newAmount).Msg("booking extended")
	return b, nil
}

// ToggleStatus flips a booking between active and completed (admin action)
// and patches the slot accordingly.
func (s *BookingService) ToggleStatus(ctx context.Context, id string) (string, error) {
	b, ok := s.state.FindBooking(id)
	if !ok {
		return "", ErrBookingNotFound
	}
	next := models.StatusCompleted
	if b.Status != models.StatusActive {
		next = models.StatusActive
	}
	if err := s.backend.UpdateBooking(ctx, id, api.BookingUpdate{Status: next}); err != nil {
		return "", err
	}
	b.Status = next
	if s.state.matchesView(b.Location) {
		if next == models.StatusActive {
			s.state.Slots.MarkBooked(b.Slot, b.CustomerName)
		} else {
			s.state.Slots.MarkAvailable(b.Slot)
		}
	}
	s.notifier.Broadcast(ctx)
	s.logger.Info().Str("booking_id", id).Str("status", next).Msg("booking status toggled")
	return next, nil
}

// Delete removes a booking entirely (admin action). Requires confirmation.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	b, ok := s.state.FindBooking(id)
	if !ok {
		return ErrBookingNotFound
	}
	if !s.confirm.Confirm(deletePrompt) {
		return ErrDeclined
	}
	if err := s.backend.DeleteBooking(ctx, id); err != nil {
		return err
	}
	slot, location := b.Slot, b.Location
	s.state.RemoveBooking(id)
	if s.state.matchesView(location) {
		s.state.Slots.MarkAvailable(slot)
	}
	s.notifier.Broadcast(ctx)
	s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	return nil
}

// Stats fetches the admin dashboard numbers, falling back to a local
// computation over in-memory state when the endpoint is unreachable.
func (s *BookingService) Stats(ctx context.Context) *models.Stats {
	stats, err := s.backend.AdminStats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats endpoint unavailable, computing locally")
		local := s.state.LocalStats()
		return &local
	}
	return stats
}
