package model

import (
	"fmt"
	"sort"
	"strings"
)

// Hotel is a property owning a set of rooms.  Rooms are keyed by their
// canonical room number (see CanonicalRoomNumber).
//
// Fields:
//
//	HotelID  – unique identifier of the hotel.
//	Name     – display name.
//	Location – free-form address or city.
//	Rooms    – rooms of the hotel keyed by room number.
type Hotel struct {
	HotelID  string          `json:"hotel_id" validate:"required"` // hotels[].hotel_id
	Name     string          `json:"name"`                         // hotels[].name
	Location string          `json:"location"`                     // hotels[].location
	Rooms    map[string]Room `json:"rooms" validate:"dive"`        // hotels[].rooms
}

// Room is a bookable unit of a hotel.  Reservations holds the stays booked
// directly against the room, in booking order.
type Room struct {
	Capacity     int    `json:"capacity" validate:"gte=1"`    // rooms.<n>.capacity
	Reservations []Stay `json:"reservations" validate:"dive"` // rooms.<n>.reservations
}

// Stay is a room-level booking: a customer occupying a room over an
// inclusive range of days.
type Stay struct {
	CustomerID string `json:"customer_id" validate:"required"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`
}

// CanonicalRoomNumber normalises a room number supplied by a caller.  Room
// numbers are strings everywhere; surrounding whitespace is not significant.
func CanonicalRoomNumber(n string) string {
	return strings.TrimSpace(n)
}

// RoomNumbers returns the hotel's room numbers in sorted order.
func (h Hotel) RoomNumbers() []string {
	numbers := make([]string, 0, len(h.Rooms))
	for n := range h.Rooms {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers
}

// Clone returns a deep copy of the hotel so callers cannot mutate the
// registry's state through the returned value.
func (h Hotel) Clone() Hotel {
	out := h
	out.Rooms = make(map[string]Room, len(h.Rooms))
	for n, r := range h.Rooms {
		out.Rooms[n] = r.Clone()
	}
	return out
}

// Clone returns a copy of the room with its own reservation slice.
func (r Room) Clone() Room {
	out := Room{Capacity: r.Capacity, Reservations: make([]Stay, len(r.Reservations))}
	copy(out.Reservations, r.Reservations)
	return out
}

func (h Hotel) String() string {
	return fmt.Sprintf("Hotel ID: %s, Name: %s, Location: %s, Rooms: %d", h.HotelID, h.Name, h.Location, len(h.Rooms))
}
