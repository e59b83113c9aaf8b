package view

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"parkeasy/internal/api"
	"parkeasy/internal/domain"
	"parkeasy/internal/service"
)

// Customer is the customer-facing screen set: the slot grid, the booking
// form and the user's own booking list.
type Customer struct {
	svc      *service.BookingService
	sessions domain.SessionStore
	out      io.Writer
	logger   *zerolog.Logger
}

func NewCustomer(svc *service.BookingService, sessions domain.SessionStore, out io.Writer, logger *zerolog.Logger) *Customer {
	return &Customer{svc: svc, sessions: sessions, out: out, logger: logger}
}

// fail prints the user-facing message and drops the stored session when the
// token is no longer accepted.
func (v *Customer) fail(ctx context.Context, err error) {
	fmt.Fprintln(v.out, ErrorMessage(err))
	if api.IsSessionExpired(err) {
		if cerr := v.sessions.Clear(ctx); cerr != nil {
			v.logger.Warn().Err(cerr).Msg("failed to clear expired session")
		}
	}
}

// ShowSlots refreshes and renders the grid for the current location/floor.
func (v *Customer) ShowSlots(ctx context.Context) {
	slots, err := v.svc.RefreshSlots(ctx)
	if err != nil {
		v.fail(ctx, err)
		return
	}
	location, floor := v.svc.State().View()
	renderSlots(v.out, location, floor, slots)
	available := v.svc.State().Slots.AvailableIDs()
	fmt.Fprintf(v.out, "%d slot(s) available\n", len(available))
}

// SwitchView changes the selected location and floor.
func (v *Customer) SwitchView(ctx context.Context, location string, floor int) {
	if err := v.svc.SetView(ctx, location, floor); err != nil {
		v.fail(ctx, err)
		return
	}
	v.ShowSlots(ctx)
}

// Book runs the create flow and prints the receipt on success.
func (v *Customer) Book(ctx context.Context, form service.CreateForm) {
	booking, err := v.svc.Create(ctx, form)
	if err != nil {
		v.fail(ctx, err)
		return
	}
	renderReceipt(v.out, booking)
}

// ShowBookings re-fetches and renders the customer's bookings, active first.
func (v *Customer) ShowBookings(ctx context.Context) {
	if err := v.svc.LoadBookings(ctx); err != nil {
		v.fail(ctx, err)
		return
	}
	renderBookings(v.out, v.svc.State().SortedBookings())
	v.ShowStats()
}

// ShowStats prints the customer's own booking totals.
func (v *Customer) ShowStats() {
	stats := v.svc.State().BookingStats()
	fmt.Fprintf(v.out, "Active: %d  Completed: %d  Cancelled: %d  Total spent: $%d\n",
		stats.Active, stats.Completed, stats.Cancelled, stats.TotalSpent)
}

func (v *Customer) Cancel(ctx context.Context, id string) {
	if err := v.svc.Cancel(ctx, id); err != nil {
		v.fail(ctx, err)
		return
	}
	fmt.Fprintln(v.out, "Booking cancelled.")
}

func (v *Customer) Extend(ctx context.Context, id string, hours int) {
	booking, err := v.svc.Extend(ctx, id, hours)
	if err != nil {
		v.fail(ctx, err)
		return
	}
	fmt.Fprintf(v.out, "Booking extended to %d hour(s), new total $%d, ends %s.\n",
		booking.Duration, booking.Amount, booking.EndAt)
}

// OnRemoteUpdate is the cross-view subscription handler: another view
// changed something, so the grid is re-fetched and re-rendered.
func (v *Customer) OnRemoteUpdate(ctx context.Context) {
	v.logger.Debug().Msg("remote update received")
	v.ShowSlots(ctx)
}
