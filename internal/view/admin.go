package view

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"parkeasy/internal/api"
	"parkeasy/internal/domain"
	"parkeasy/internal/export"
	"parkeasy/internal/service"
)

// Admin is the management screen set: dashboard stats, the full booking
// table with filters, status toggling, deletion and report export.
type Admin struct {
	svc      *service.BookingService
	backend  domain.Backend
	sessions domain.SessionStore
	exporter *export.Exporter
	out      io.Writer
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAdmin(svc *service.BookingService, backend domain.Backend, sessions domain.SessionStore, exporter *export.Exporter, out io.Writer, logger *zerolog.Logger) *Admin {
	return &Admin{
		svc:      svc,
		backend:  backend,
		sessions: sessions,
		exporter: exporter,
		out:      out,
		logger:   logger,
		now:      time.Now,
	}
}

func (v *Admin) fail(ctx context.Context, err error) {
	fmt.Fprintln(v.out, ErrorMessage(err))
	if api.IsSessionExpired(err) {
		if cerr := v.sessions.Clear(ctx); cerr != nil {
			v.logger.Warn().Err(cerr).Msg("failed to clear expired session")
		}
	}
}

// Dashboard renders the stats header. The numbers come from the stats
// endpoint when it answers and from local state otherwise.
func (v *Admin) Dashboard(ctx context.Context) {
	if err := v.svc.LoadBookings(ctx); err != nil {
		v.logger.Warn().Err(err).Msg("booking load for dashboard failed")
	}
	stats := v.svc.Stats(ctx)
	fmt.Fprintln(v.out, "\n===== Dashboard =====")
	fmt.Fprintf(v.out, "Total bookings  : %d\n", stats.TotalBookings)
	fmt.Fprintf(v.out, "Total revenue   : $%d\n", stats.TotalRevenue)
	fmt.Fprintf(v.out, "Active bookings : %d\n", stats.ActiveBookings)
	fmt.Fprintf(v.out, "Available slots : %d\n", stats.AvailableSlots)

	for _, lc := range v.svc.State().ByLocation() {
		fmt.Fprintf(v.out, "  %-15s %d active / %d total\n", lc.Location, lc.Active, lc.Total)
	}
}

// Bookings renders the booking table, optionally narrowed by status,
// location and date. Empty filters match everything.
func (v *Admin) Bookings(ctx context.Context, status, location, date string) {
	if err := v.svc.LoadBookings(ctx); err != nil {
		v.fail(ctx, err)
		return
	}
	filtered := v.svc.State().FilterBookings(status, location, date)
	renderBookings(v.out, filtered)
}

// ShowSlots renders the full slot table across locations.
func (v *Admin) ShowSlots(ctx context.Context) {
	slots, err := v.svc.RefreshSlots(ctx)
	if err != nil {
		v.fail(ctx, err)
		return
	}
	renderSlots(v.out, "All locations", v.svc.State().Floor(), slots)
}

func (v *Admin) Toggle(ctx context.Context, id string) {
	status, err := v.svc.ToggleStatus(ctx, id)
	if err != nil {
		v.fail(ctx, err)
		return
	}
	fmt.Fprintf(v.out, "Booking is now %s.\n", status)
}

func (v *Admin) Delete(ctx context.Context, id string) {
	if err := v.svc.Delete(ctx, id); err != nil {
		v.fail(ctx, err)
		return
	}
	fmt.Fprintln(v.out, "Booking deleted.")
}

// Export writes the booking report to a file. The export endpoint is
// preferred; when it fails the in-memory list is written instead.
func (v *Admin) Export(ctx context.Context, format string) {
	bookings, err := v.backend.ExportBookings(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Msg("export endpoint unavailable, using loaded bookings")
		bookings = v.svc.State().Bookings
	}

	var path string
	switch format {
	case "xlsx":
		path, err = v.exporter.SaveXLSX(bookings, v.now())
	default:
		path, err = v.exporter.SaveCSV(bookings, v.now())
	}
	if err != nil {
		v.fail(ctx, err)
		return
	}
	fmt.Fprintf(v.out, "Exported %d booking(s) to %s\n", len(bookings), path)
}

// OnRemoteUpdate re-fetches the slot table after another view's change.
func (v *Admin) OnRemoteUpdate(ctx context.Context) {
	v.logger.Debug().Msg("remote update received")
	v.ShowSlots(ctx)
}
