package domain

import (
	"context"

	"parkeasy/internal/api"
	"parkeasy/internal/models"
)

// Backend is the slice of the REST client the reconciler and views depend on.
type Backend interface {
	ListSlots(ctx context.Context, location string, floor int, status string) ([]models.Slot, error)
	UpdateSlot(ctx context.Context, slotID string, update api.SlotUpdate) error
	ListBookings(ctx context.Context) ([]models.Booking, error)
	CreateBooking(ctx context.Context, req api.CreateBookingRequest) (*models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, update api.BookingUpdate) error
	DeleteBooking(ctx context.Context, bookingID string) error
	AdminStats(ctx context.Context) (*models.Stats, error)
	ExportBookings(ctx context.Context) ([]models.Booking, error)
	Health(ctx context.Context) error
}

// SessionStore persists the login session between runs.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session models.Session) error
	Clear(ctx context.Context) error
}

// Notifier is the best-effort cross-view broadcast. Broadcast never blocks
// the calling mutation; failures are logged and swallowed.
type Notifier interface {
	Broadcast(ctx context.Context)
	Subscribe(ctx context.Context, handler func())
	Close() error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}
