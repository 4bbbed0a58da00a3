package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

// HotelRepo is the hotel and room inventory.  Each room carries the stays
// booked directly against it.  Once linked to a ReservationRepo (see Link)
// room availability also takes the ledger into account.
type HotelRepo struct {
	mu     sync.Mutex
	hotels []model.Hotel
	store  storage.Store
	ledger *ReservationRepo
	opts   options
}

// HotelUpdate lists the fields Update may change.  Nil fields are left as
// they are.
type HotelUpdate struct {
	Name     *string
	Location *string
}

// NewHotelRepo constructs an empty HotelRepo persisting to store.
func NewHotelRepo(store storage.Store, opts ...Option) *HotelRepo {
	return &HotelRepo{store: store, opts: newOptions(opts)}
}

// Create registers a hotel without rooms.  It fails with ErrMissingID or
// ErrDuplicateID.
func (r *HotelRepo) Create(ctx context.Context, id, name, location string) (model.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(id) == "" {
		return model.Hotel{}, ErrMissingID
	}
	if r.indexOf(id) >= 0 {
		return model.Hotel{}, ErrDuplicateID
	}
	h := model.Hotel{HotelID: id, Name: name, Location: location, Rooms: map[string]model.Room{}}
	r.hotels = append(r.hotels, h)
	return h.Clone(), nil
}

// Delete removes the hotel with the given ID together with its rooms and
// their stays.  Ledger reservations are not touched.
func (r *HotelRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrHotelNotFound
	}
	r.hotels = append(r.hotels[:i], r.hotels[i+1:]...)
	return nil
}

// Update changes the name and/or location of a hotel.
func (r *HotelRepo) Update(ctx context.Context, id string, u HotelUpdate) (model.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Hotel{}, ErrHotelNotFound
	}
	h := &r.hotels[i]
	if u.Name != nil {
		h.Name = *u.Name
	}
	if u.Location != nil {
		h.Location = *u.Location
	}
	return h.Clone(), nil
}

// AddRoom adds an empty room to a hotel.  The room number is stored in its
// canonical form.
func (r *HotelRepo) AddRoom(ctx context.Context, hotelID, roomNumber string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(hotelID)
	if i < 0 {
		return ErrHotelNotFound
	}
	number := model.CanonicalRoomNumber(roomNumber)
	if number == "" {
		return ErrMissingID
	}
	if capacity < 1 {
		return ErrInvalidCapacity
	}
	h := &r.hotels[i]
	if _, ok := h.Rooms[number]; ok {
		return ErrDuplicateRoom
	}
	if h.Rooms == nil {
		h.Rooms = map[string]model.Room{}
	}
	h.Rooms[number] = model.Room{Capacity: capacity, Reservations: []model.Stay{}}
	return nil
}

// IsRoomAvailable reports whether no booking of the room shares a day
// with [start, end].  Both ends are inclusive, so a stay ending on a day
// conflicts with one starting on that same day.
func (r *HotelRepo) IsRoomAvailable(ctx context.Context, hotelID, roomNumber string, start, end model.Date) (bool, error) {
	unlock := r.lock()
	defer unlock()

	number := model.CanonicalRoomNumber(roomNumber)
	room, err := r.room(hotelID, number)
	if err != nil {
		return false, err
	}
	if err := checkStayRange(start, end); err != nil {
		return false, err
	}
	return r.availableLocked(hotelID, number, room, start, end), nil
}

// ReserveRoom books a stay directly against a room.  It fails with
// ErrHotelNotFound, ErrRoomNotFound, ErrMissingID, ErrInvalidDateRange or
// ErrRoomUnavailable.
func (r *HotelRepo) ReserveRoom(ctx context.Context, hotelID, roomNumber, customerID string, start, end model.Date) error {
	unlock := r.lock()

	number := model.CanonicalRoomNumber(roomNumber)
	room, err := r.room(hotelID, number)
	if err != nil {
		unlock()
		return err
	}
	if strings.TrimSpace(customerID) == "" {
		unlock()
		return ErrMissingID
	}
	if err := checkStayRange(start, end); err != nil {
		unlock()
		return err
	}
	if !r.availableLocked(hotelID, number, room, start, end) {
		unlock()
		return ErrRoomUnavailable
	}

	stay := model.Stay{CustomerID: customerID, StartDate: start, EndDate: end}
	room.Reservations = append(room.Reservations, stay)
	r.hotels[r.indexOf(hotelID)].Rooms[number] = room
	unlock()

	r.opts.publish(ctx, "hotels", queue.NewStayEvent(queue.StayReserved, hotelID, number, stay))
	return nil
}

// CancelReservation removes the first stay of customerID on the room.  It
// fails with ErrReservationNotFound when the customer holds no stay there.
func (r *HotelRepo) CancelReservation(ctx context.Context, hotelID, roomNumber, customerID string) error {
	r.mu.Lock()

	number := model.CanonicalRoomNumber(roomNumber)
	room, err := r.room(hotelID, number)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	idx := -1
	for i, s := range room.Reservations {
		if s.CustomerID == customerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return ErrReservationNotFound
	}
	stay := room.Reservations[idx]
	room.Reservations = append(room.Reservations[:idx], room.Reservations[idx+1:]...)
	r.hotels[r.indexOf(hotelID)].Rooms[number] = room
	r.mu.Unlock()

	r.opts.publish(ctx, "hotels", queue.NewStayEvent(queue.StayCancelled, hotelID, number, stay))
	return nil
}

// Get returns a copy of the hotel with the given ID.
func (r *HotelRepo) Get(ctx context.Context, id string) (model.Hotel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Hotel{}, ErrHotelNotFound
	}
	return r.hotels[i].Clone(), nil
}

// List returns copies of all hotels in insertion order.
func (r *HotelRepo) List(ctx context.Context) []model.Hotel {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Hotel, len(r.hotels))
	for i, h := range r.hotels {
		out[i] = h.Clone()
	}
	return out
}

// Len returns the number of hotels.
func (r *HotelRepo) Len(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hotels)
}

// Reset drops every hotel.
func (r *HotelRepo) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hotels = nil
}

// SaveAll writes every hotel, its rooms and their stays to the snapshot
// called name.
func (r *HotelRepo) SaveAll(ctx context.Context, name string) error {
	return writeSnapshot(ctx, r.store, name, r.List(ctx))
}

// LoadAll merges the snapshot called name into the inventory.  A hotel is
// restored with its rooms and stays or skipped as a whole: it must carry
// an unused ID, rooms of capacity one or more and stays that are in order
// and do not overlap within their room.
func (r *HotelRepo) LoadAll(ctx context.Context, name string) LoadReport {
	raw, report := readSnapshot(ctx, r.store, r.opts.logger, "hotels", name)
	if report.Degraded() {
		return report
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, msg := range raw {
		var h model.Hotel
		if err := decodeRecord(msg, &h); err != nil {
			report.skip(r.opts.logger, "hotels", i, err)
			continue
		}
		h, err := normalizeHotel(h)
		if err != nil {
			report.skip(r.opts.logger, "hotels", i, fmt.Errorf("hotel %s: %w", h.HotelID, err))
			continue
		}
		if r.indexOf(h.HotelID) >= 0 {
			report.skip(r.opts.logger, "hotels", i, fmt.Errorf("hotel %s: %w", h.HotelID, ErrDuplicateID))
			continue
		}
		r.hotels = append(r.hotels, h)
		report.Loaded++
	}
	return report
}

// normalizeHotel canonicalises room numbers and checks the invariants the
// inventory maintains for rooms and stays.
func normalizeHotel(h model.Hotel) (model.Hotel, error) {
	if strings.TrimSpace(h.HotelID) == "" {
		return h, ErrMissingID
	}
	rooms := make(map[string]model.Room, len(h.Rooms))
	for n, room := range h.Rooms {
		number := model.CanonicalRoomNumber(n)
		if number == "" {
			return h, fmt.Errorf("room %q: %w", n, ErrMissingID)
		}
		if _, ok := rooms[number]; ok {
			return h, fmt.Errorf("room %s: %w", number, ErrDuplicateRoom)
		}
		if room.Capacity < 1 {
			return h, fmt.Errorf("room %s: %w", number, ErrInvalidCapacity)
		}
		if room.Reservations == nil {
			room.Reservations = []model.Stay{}
		}
		for j, s := range room.Reservations {
			if err := checkStayRange(s.StartDate, s.EndDate); err != nil {
				return h, fmt.Errorf("room %s: %w", number, err)
			}
			for _, prev := range room.Reservations[:j] {
				if model.Overlaps(prev.StartDate, prev.EndDate, s.StartDate, s.EndDate) {
					return h, fmt.Errorf("room %s: %w", number, ErrRoomUnavailable)
				}
			}
		}
		rooms[number] = room
	}
	h.Rooms = rooms
	return h, nil
}

// lock takes r.mu and, when linked, the ledger's lock after it.  Every
// path that needs both locks takes them in this order.
func (r *HotelRepo) lock() (unlock func()) {
	r.mu.Lock()
	ledger := r.ledger
	if ledger == nil {
		return r.mu.Unlock
	}
	ledger.mu.Lock()
	return func() {
		ledger.mu.Unlock()
		r.mu.Unlock()
	}
}

// room looks up a room by canonical number.  It requires r.mu.
func (r *HotelRepo) room(hotelID, number string) (model.Room, error) {
	i := r.indexOf(hotelID)
	if i < 0 {
		return model.Room{}, ErrHotelNotFound
	}
	room, ok := r.hotels[i].Rooms[number]
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return room, nil
}

// availableLocked requires the locks taken by lock.
func (r *HotelRepo) availableLocked(hotelID, number string, room model.Room, start, end model.Date) bool {
	if stayConflict(room, start, end) {
		return false
	}
	if r.ledger != nil && r.ledger.conflictLocked(hotelID, number, start, end, "") {
		return false
	}
	return true
}

// stayConflictLocked reports whether a stay on the room overlaps
// [start, end].  It is called by a linked ledger holding r.mu.
func (r *HotelRepo) stayConflictLocked(hotelID, number string, start, end model.Date) (bool, error) {
	room, err := r.room(hotelID, number)
	if err != nil {
		return false, err
	}
	return stayConflict(room, start, end), nil
}

func stayConflict(room model.Room, start, end model.Date) bool {
	for _, s := range room.Reservations {
		if model.Overlaps(s.StartDate, s.EndDate, start, end) {
			return true
		}
	}
	return false
}

// checkStayRange accepts single-day stays; the ledger is stricter.
func checkStayRange(start, end model.Date) error {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func (r *HotelRepo) indexOf(id string) int {
	for i := range r.hotels {
		if r.hotels[i].HotelID == id {
			return i
		}
	}
	return -1
}
