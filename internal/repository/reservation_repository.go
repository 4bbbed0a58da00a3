package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

// ReservationRepo is the reservation ledger.  A reservation stays active
// until it is cancelled; there is no expiry.  Reservations are kept in
// insertion order and two reservations of the same hotel room never share
// a day.
type ReservationRepo struct {
	mu           sync.Mutex
	reservations []model.Reservation
	store        storage.Store
	hotels       *HotelRepo
	opts         options
}

// ReservationUpdate lists the dates Modify may change.  Nil fields are
// left as they are.
type ReservationUpdate struct {
	StartDate *model.Date
	EndDate   *model.Date
}

// NewReservationRepo constructs an empty ReservationRepo persisting to
// store.
func NewReservationRepo(store storage.Store, opts ...Option) *ReservationRepo {
	return &ReservationRepo{store: store, opts: newOptions(opts)}
}

// Link cross-validates the inventory and the ledger.  Afterwards a ledger
// reservation requires its hotel and room to exist and conflicts with
// room stays, and room availability also consults the ledger.  Link must
// be called before either repository is shared.
func Link(hotels *HotelRepo, ledger *ReservationRepo) {
	hotels.mu.Lock()
	ledger.mu.Lock()
	hotels.ledger = ledger
	ledger.hotels = hotels
	ledger.mu.Unlock()
	hotels.mu.Unlock()
}

// Create adds res to the ledger.  It fails with ErrInvalidDateRange unless
// StartDate is strictly before EndDate, then with ErrMissingID,
// ErrDuplicateID and, when linked, ErrHotelNotFound or ErrRoomNotFound.
// It fails with ErrRoomAlreadyBooked when the room is already booked on
// any day of the range.
func (r *ReservationRepo) Create(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	unlock := r.lock()
	res, err := r.insert(res, true)
	unlock()
	if err != nil {
		return model.Reservation{}, err
	}

	r.opts.publish(ctx, "reservations", queue.NewReservationEvent(queue.ReservationCreated, res))
	return res, nil
}

// insert requires the locks taken by lock.  requireRoom makes a linked
// ledger reject records whose hotel or room is not in the inventory.
func (r *ReservationRepo) insert(res model.Reservation, requireRoom bool) (model.Reservation, error) {
	res.RoomNumber = model.RoomNumber(model.CanonicalRoomNumber(string(res.RoomNumber)))
	if err := checkLedgerRange(res.StartDate, res.EndDate); err != nil {
		return res, err
	}
	if strings.TrimSpace(res.ReservationID) == "" || res.HotelID == "" || res.RoomNumber == "" || res.CustomerID == "" {
		return res, ErrMissingID
	}
	if r.indexOf(res.ReservationID) >= 0 {
		return res, ErrDuplicateID
	}
	if err := r.checkConflicts(res, "", requireRoom); err != nil {
		return res, err
	}
	r.reservations = append(r.reservations, res)
	return res, nil
}

// Cancel removes the reservation with the given ID.
func (r *ReservationRepo) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return ErrReservationNotFound
	}
	res := r.reservations[i]
	r.reservations = append(r.reservations[:i], r.reservations[i+1:]...)
	r.mu.Unlock()

	r.opts.publish(ctx, "reservations", queue.NewReservationEvent(queue.ReservationCancelled, res))
	return nil
}

// Modify moves a reservation to new dates.  The new range must satisfy
// the same rules as Create: StartDate strictly before EndDate and no
// shared day with another booking of the room.  Unlike Create it does not
// require the hotel or room to still exist.  On failure the reservation
// keeps its previous dates.
func (r *ReservationRepo) Modify(ctx context.Context, id string, u ReservationUpdate) (model.Reservation, error) {
	unlock := r.lock()

	i := r.indexOf(id)
	if i < 0 {
		unlock()
		return model.Reservation{}, ErrReservationNotFound
	}
	next := r.reservations[i]
	if u.StartDate != nil {
		next.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		next.EndDate = *u.EndDate
	}
	if err := checkLedgerRange(next.StartDate, next.EndDate); err != nil {
		unlock()
		return model.Reservation{}, err
	}
	if err := r.checkConflicts(next, id, false); err != nil {
		unlock()
		return model.Reservation{}, err
	}
	r.reservations[i] = next
	unlock()

	r.opts.publish(ctx, "reservations", queue.NewReservationEvent(queue.ReservationModified, next))
	return next, nil
}

// Get returns the reservation with the given ID.
func (r *ReservationRepo) Get(ctx context.Context, id string) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Reservation{}, ErrReservationNotFound
	}
	return r.reservations[i], nil
}

// List returns a copy of the ledger in insertion order.
func (r *ReservationRepo) List(ctx context.Context) []model.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Reservation(nil), r.reservations...)
}

// ForRoom returns the reservations of one hotel room in insertion order.
func (r *ReservationRepo) ForRoom(ctx context.Context, hotelID, roomNumber string) []model.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	number := model.RoomNumber(model.CanonicalRoomNumber(roomNumber))
	var out []model.Reservation
	for _, res := range r.reservations {
		if res.HotelID == hotelID && res.RoomNumber == number {
			out = append(out, res)
		}
	}
	return out
}

// Len returns the number of reservations.
func (r *ReservationRepo) Len(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reservations)
}

// Reset drops every reservation.
func (r *ReservationRepo) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = nil
}

// SaveAll writes the ledger to the snapshot called name, dates as
// YYYY-MM-DD strings.
func (r *ReservationRepo) SaveAll(ctx context.Context, name string) error {
	return writeSnapshot(ctx, r.store, name, r.List(ctx))
}

// LoadAll merges the snapshot called name into the ledger.  Every record
// is re-inserted through the checks of Create, so duplicates and
// overlapping bookings in the snapshot are skipped.  A record whose hotel
// or room is no longer in the inventory is kept.  Loading publishes no
// events.
func (r *ReservationRepo) LoadAll(ctx context.Context, name string) LoadReport {
	raw, report := readSnapshot(ctx, r.store, r.opts.logger, "reservations", name)
	if report.Degraded() {
		return report
	}

	unlock := r.lock()
	defer unlock()
	for i, msg := range raw {
		var res model.Reservation
		if err := decodeRecord(msg, &res); err != nil {
			report.skip(r.opts.logger, "reservations", i, err)
			continue
		}
		if _, err := r.insert(res, false); err != nil {
			report.skip(r.opts.logger, "reservations", i, fmt.Errorf("reservation %s: %w", res.ReservationID, err))
			continue
		}
		report.Loaded++
	}
	return report
}

// lock takes the inventory's lock first when linked, then r.mu, matching
// HotelRepo.lock.
func (r *ReservationRepo) lock() (unlock func()) {
	hotels := r.hotels
	if hotels == nil {
		r.mu.Lock()
		return r.mu.Unlock
	}
	hotels.mu.Lock()
	r.mu.Lock()
	return func() {
		r.mu.Unlock()
		hotels.mu.Unlock()
	}
}

// checkConflicts applies the linked inventory checks and the ledger
// overlap scan to res, ignoring the reservation called exclude.  Unless
// requireRoom is set, a hotel or room missing from the inventory only
// skips the room stay scan.
func (r *ReservationRepo) checkConflicts(res model.Reservation, exclude string, requireRoom bool) error {
	if r.hotels != nil {
		booked, err := r.hotels.stayConflictLocked(res.HotelID, string(res.RoomNumber), res.StartDate, res.EndDate)
		if err != nil && (requireRoom || !errors.Is(err, ErrNotFound)) {
			return err
		}
		if booked {
			return ErrRoomAlreadyBooked
		}
	}
	if r.conflictLocked(res.HotelID, string(res.RoomNumber), res.StartDate, res.EndDate, exclude) {
		return ErrRoomAlreadyBooked
	}
	return nil
}

// conflictLocked reports whether a reservation of the room other than
// exclude shares a day with [start, end].  It requires r.mu.
func (r *ReservationRepo) conflictLocked(hotelID, number string, start, end model.Date, exclude string) bool {
	for _, existing := range r.reservations {
		if existing.ReservationID == exclude && exclude != "" {
			continue
		}
		if existing.HotelID != hotelID || string(existing.RoomNumber) != number {
			continue
		}
		if model.Overlaps(existing.StartDate, existing.EndDate, start, end) {
			return true
		}
	}
	return false
}

func checkLedgerRange(start, end model.Date) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return ErrInvalidDateRange
	}
	return nil
}

func (r *ReservationRepo) indexOf(id string) int {
	for i := range r.reservations {
		if r.reservations[i].ReservationID == id {
			return i
		}
	}
	return -1
}
