package service

import "errors"

var (
	// ErrMissingFields means the booking form is incomplete; no network
	// call was made.
	ErrMissingFields = errors.New("all booking fields are required")

	// ErrPastDate means the composed date+time is not in the future.
	ErrPastDate = errors.New("booking start must be in the future")

	// ErrSlotUnavailable means the cache already shows the slot as booked.
	// The slot list is re-fetched before this is returned so the caller can
	// offer a fresh choice.
	ErrSlotUnavailable = errors.New("selected slot is no longer available")

	// ErrInvalidDuration rejects an extension outside the fixed set.
	ErrInvalidDuration = errors.New("duration is not bookable")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotModifiable gates cancel/extend: the booking must be active and
	// its end time must not have passed.
	ErrNotModifiable = errors.New("booking can no longer be changed")

	// ErrDeclined means the user answered no to the confirmation prompt.
	ErrDeclined = errors.New("confirmation declined")
)
