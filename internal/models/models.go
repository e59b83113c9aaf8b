package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot is one parking space as served by the backend.
type Slot struct {
	ID       string `json:"slot_id"`
	Status   string `json:"status"`
	BookedBy string `json:"booked_by"`
	Floor    int    `json:"floor"`
	Location string `json:"location"`
}

// SlotID composes the canonical identifier, e.g. F1-A1.
func SlotID(floor int, zone, number string) string {
	return fmt.Sprintf("F%d-%s%s", floor, zone, number)
}

// FloorFromSlotID parses the floor out of an identifier like F2-B3.
func FloorFromSlotID(id string) (int, bool) {
	if !strings.HasPrefix(id, "F") {
		return 0, false
	}
	rest := strings.TrimPrefix(id, "F")
	dash := strings.IndexByte(rest, '-')
	if dash <= 0 {
		return 0, false
	}
	floor, err := strconv.Atoi(rest[:dash])
	if err != nil {
		return 0, false
	}
	return floor, true
}

// Booking is the client's transient copy of a backend booking.
type Booking struct {
	ID            string `json:"_id"`
	UserID        string `json:"user_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	VehicleNumber string `json:"vehicle_number"`
	Slot          string `json:"slot"`
	Location      string `json:"location"`
	Floor         int    `json:"floor,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Duration      int    `json:"duration"`
	Amount        int    `json:"amount"`
	Status        string `json:"status"`
	StartAt       string `json:"start_at,omitempty"`
	EndAt         string `json:"end_at,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// Start parses the booking's date and time in local time.
func (b *Booking) Start() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, b.Date+" "+b.Time, time.Local)
}

// End is the booking start plus its duration in hours.
func (b *Booking) End() (time.Time, error) {
	start, err := b.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(b.Duration) * time.Hour), nil
}

// CanModify reports whether the booking is still active and has not run out,
// which gates the customer's cancel and extend actions.
func (b *Booking) CanModify(now time.Time) bool {
	if b.Status != StatusActive {
		return false
	}
	end, err := b.End()
	if err != nil {
		return false
	}
	return end.After(now)
}

// SortKey orders bookings newest first, preferring the creation timestamp
// and falling back to the start time when it is absent or unparseable.
func (b *Booking) SortKey() time.Time {
	if b.CreatedAt != "" {
		for _, layout := range []string{time.RFC3339, time.RFC1123, TimestampLayout} {
			if t, err := time.Parse(layout, b.CreatedAt); err == nil {
				return t
			}
		}
	}
	if start, err := b.Start(); err == nil {
		return start
	}
	return time.Time{}
}

// Stats mirrors GET /admin/stats.
type Stats struct {
	TotalBookings  int `json:"total_bookings"`
	TotalRevenue   int `json:"total_revenue"`
	ActiveBookings int `json:"active_bookings"`
	AvailableSlots int `json:"available_slots"`
}

// User identifies the logged-in account.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is the durable part of an authenticated login.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
