// Package view renders the customer and admin terminal screens from the
// reconciler's in-memory state.
package view

import (
	"errors"

	"parkeasy/internal/api"
	"parkeasy/internal/service"
)

// ErrorMessage maps an operation error to the line shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if api.IsSessionExpired(err) {
		return "Your session has expired. Please log in again."
	}

	if errors.Is(err, service.ErrMissingFields) {
		return "Please fill in all booking fields."
	}

	if errors.Is(err, service.ErrPastDate) {
		return "Please pick a date and time in the future."
	}

	if errors.Is(err, service.ErrSlotUnavailable) {
		return "Sorry, that slot was just taken. The grid has been refreshed, please pick another."
	}

	if errors.Is(err, service.ErrInvalidDuration) {
		return "That duration is not offered. Choose 1, 2, 4, 8 or 24 hours."
	}

	if errors.Is(err, service.ErrBookingNotFound) {
		return "No booking with that ID."
	}

	if errors.Is(err, service.ErrNotModifiable) {
		return "This booking is no longer active or has already ended."
	}

	if errors.Is(err, service.ErrDeclined) {
		return "Okay, nothing was changed."
	}

	return "Something went wrong. Please try again later."
}
