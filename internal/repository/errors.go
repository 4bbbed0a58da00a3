// Package repository holds the in-memory registries of the hotel system:
// the customer registry (CustomerRepo), the hotel and room inventory
// (HotelRepo) and the reservation ledger (ReservationRepo).  Each registry
// owns its collection, guards it with its own mutex for the duration of a
// single call and persists it as one snapshot through a storage.Store.
//
// Business-rule violations are reported with the sentinel errors below and
// leave the registry unchanged.  Callers branch with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when a customer, hotel or reservation ID is
// already present in its registry.
var ErrDuplicateID = errors.New("duplicate id")

// ErrMissingID is returned when a required identifier is empty.
var ErrMissingID = errors.New("missing id")

// ErrInvalidEmail is returned when an email does not match local@domain.tld.
var ErrInvalidEmail = errors.New("invalid email format")

// ErrEmptyName is returned when a customer name is empty or blank.
var ErrEmptyName = errors.New("name cannot be empty")

// ErrNotFound is the parent of every lookup failure.  The specific
// variants below wrap it, so errors.Is(err, ErrNotFound) matches all of
// them.
var ErrNotFound = errors.New("not found")

var (
	ErrCustomerNotFound    = fmt.Errorf("customer %w", ErrNotFound)
	ErrHotelNotFound       = fmt.Errorf("hotel %w", ErrNotFound)
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

// ErrDuplicateRoom is returned when a room number already exists on a hotel.
var ErrDuplicateRoom = errors.New("room number already exists")

// ErrInvalidCapacity is returned when a room is added with capacity below one.
var ErrInvalidCapacity = errors.New("room capacity must be at least 1")

// ErrRoomUnavailable is returned when a room-level stay overlaps an
// existing booking of the room.
var ErrRoomUnavailable = errors.New("room is not available for the selected dates")

// ErrInvalidDateRange is returned when a date range is out of order or a
// date is missing.
var ErrInvalidDateRange = errors.New("end date must be after start date")

// ErrRoomAlreadyBooked is returned when a ledger reservation overlaps an
// existing booking of the same hotel room.
var ErrRoomAlreadyBooked = errors.New("room is already booked for the selected dates")
