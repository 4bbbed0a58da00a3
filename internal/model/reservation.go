package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Reservation records a customer's booking of a hotel room over an
// inclusive range of days.  Reservations are owned by the reservation
// ledger and are identified by a globally unique ID.
//
// Fields:
//
//	ReservationID – unique identifier of the reservation.
//	HotelID       – hotel the room belongs to.
//	RoomNumber    – canonical room number within the hotel.
//	CustomerID    – customer who holds the booking.
//	StartDate     – first booked day; strictly before EndDate.
//	EndDate       – last booked day.
type Reservation struct {
	ReservationID string     `json:"reservation_id" validate:"required"` // reservations[].reservation_id
	HotelID       string     `json:"hotel_id" validate:"required"`       // reservations[].hotel_id
	RoomNumber    RoomNumber `json:"room_number" validate:"required"`    // reservations[].room_number
	CustomerID    string     `json:"customer_id" validate:"required"`    // reservations[].customer_id
	StartDate     Date       `json:"start_date"`                         // reservations[].start_date (YYYY-MM-DD)
	EndDate       Date       `json:"end_date"`                           // reservations[].end_date (YYYY-MM-DD)
}

// RoomNumber is a room number in its canonical string form.  Snapshots
// written by older tools may hold the number as a JSON integer; both forms
// decode to the same value.
type RoomNumber string

// UnmarshalJSON accepts either a JSON string or a JSON integer.
func (n *RoomNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = RoomNumber(CanonicalRoomNumber(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("room_number must be a string or an integer: %w", err)
	}
	i, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("room_number must be a string or an integer: %q", num.String())
	}
	*n = RoomNumber(strconv.FormatInt(i, 10))
	return nil
}

// NewReservationID returns a fresh random reservation ID for callers that
// do not bring their own.
func NewReservationID() string {
	return uuid.NewString()
}

func (r Reservation) String() string {
	return fmt.Sprintf("Reservation ID: %s, Hotel ID: %s, Room Number: %s, Customer ID: %s, Start Date: %s, End Date: %s",
		r.ReservationID, r.HotelID, r.RoomNumber, r.CustomerID, r.StartDate, r.EndDate)
}
