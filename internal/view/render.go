package view

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"parkeasy/internal/models"
)

func renderSlots(w io.Writer, location string, floor int, slots map[string]models.Slot) {
	if floor > 0 {
		fmt.Fprintf(w, "\n%s, floor %d\n", location, floor)
	} else {
		fmt.Fprintf(w, "\n%s\n", location)
	}
	ids := make([]string, 0, len(slots))
	for id := range slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tSTATUS\tBOOKED BY")
	for _, id := range ids {
		s := slots[id]
		occupant := s.BookedBy
		if s.Status != models.SlotBooked {
			occupant = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, s.Status, occupant)
	}
	tw.Flush()
}

func renderBookings(w io.Writer, bookings []models.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "No bookings found.")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tVEHICLE\tSLOT\tLOCATION\tDATE\tTIME\tHOURS\tAMOUNT\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t$%d\t%s\n",
			b.ID, b.CustomerName, b.VehicleNumber, b.Slot, b.Location,
			b.Date, b.Time, b.Duration, b.Amount, b.Status)
	}
	tw.Flush()
}

func renderReceipt(w io.Writer, b *models.Booking) {
	fmt.Fprintln(w, "\n===== Booking Receipt =====")
	fmt.Fprintf(w, "Booking ID : %s\n", b.ID)
	fmt.Fprintf(w, "Customer   : %s\n", b.CustomerName)
	fmt.Fprintf(w, "Vehicle    : %s\n", b.VehicleNumber)
	fmt.Fprintf(w, "Slot       : %s (%s)\n", b.Slot, b.Location)
	fmt.Fprintf(w, "Starts     : %s %s\n", b.Date, b.Time)
	fmt.Fprintf(w, "Duration   : %d hour(s)\n", b.Duration)
	fmt.Fprintf(w, "Amount     : $%d\n", b.Amount)
	fmt.Fprintln(w, "===========================")
}
