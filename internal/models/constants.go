package models

// Booking statuses as stored by the backend.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Slot occupancy statuses.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Default grid synthesized by the customer view when the slot fetch fails.
var (
	GridZones   = []string{"A", "B", "C", "D"}
	GridNumbers = []string{"1", "2", "3"}
)

// Known site names.
var Locations = []string{"CityMall", "TechPark", "CentralOffice", "Airport", "Stadium"}

const (
	// DefaultLocation is selected before the user picks one.
	DefaultLocation = "CityMall"

	// DefaultFloor is selected before the user picks one.
	DefaultFloor = 1
)

const (
	// UpdatesChannel is the broadcast channel shared by all views.
	UpdatesChannel = "parking-updates"

	// SessionKey names the persisted session row.
	SessionKey = "authToken"
)

// TimestampLayout formats booking end timestamps sent to the backend.
const TimestampLayout = "2006-01-02 15:04"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
