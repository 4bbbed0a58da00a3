// Package queue defines the reservation lifecycle events exchanged over the
// message broker, the publisher used by the repositories and the consumer
// that turns events into an audit log.
package queue

import (
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// EventType names a lifecycle transition.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationCancelled EventType = "reservation.cancelled"
	ReservationModified  EventType = "reservation.modified"
	StayReserved         EventType = "stay.reserved"
	StayCancelled        EventType = "stay.cancelled"
)

// ReservationEvent is published after a booking changes state.  It carries
// enough of the booking for consumers to log or notify without reading
// the registries.  ReservationID is empty for room-level stays.
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id,omitempty"`
	HotelID       string    `json:"hotel_id"`
	RoomNumber    string    `json:"room_number"`
	CustomerID    string    `json:"customer_id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	OccurredAt    string    `json:"occurred_at"`
}

// NewReservationEvent builds the event for a ledger reservation.
func NewReservationEvent(t EventType, r model.Reservation) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ReservationID,
		HotelID:       r.HotelID,
		RoomNumber:    string(r.RoomNumber),
		CustomerID:    r.CustomerID,
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// NewStayEvent builds the event for a room-level stay.
func NewStayEvent(t EventType, hotelID, roomNumber string, s model.Stay) ReservationEvent {
	return ReservationEvent{
		Type:       t,
		HotelID:    hotelID,
		RoomNumber: roomNumber,
		CustomerID: s.CustomerID,
		StartDate:  s.StartDate.String(),
		EndDate:    s.EndDate.String(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
