package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

func TestReservationCreate(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewReservationRepo(newFileStore(t))

	res, err := ledger.Create(ctx, reservation("R1", "H1", " 101 ", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	assert.Equal(t, model.RoomNumber("101"), res.RoomNumber)

	tests := []struct {
		name    string
		res     model.Reservation
		wantErr error
	}{
		{"touching end", reservation("R2", "H1", "101", "C2", "2024-02-12", "2024-02-15"), repository.ErrRoomAlreadyBooked},
		{"touching start", reservation("R2", "H1", "101", "C2", "2024-02-08", "2024-02-10"), repository.ErrRoomAlreadyBooked},
		{"inside", reservation("R2", "H1", "101", "C2", "2024-02-11", "2024-02-14"), repository.ErrRoomAlreadyBooked},
		{"same day", reservation("R2", "H1", "101", "C2", "2024-03-01", "2024-03-01"), repository.ErrInvalidDateRange},
		{"backwards", reservation("R2", "H1", "101", "C2", "2024-03-05", "2024-03-01"), repository.ErrInvalidDateRange},
		{"duplicate id", reservation("R1", "H1", "102", "C2", "2024-03-01", "2024-03-05"), repository.ErrDuplicateID},
		{"missing id", reservation("", "H1", "102", "C2", "2024-03-01", "2024-03-05"), repository.ErrMissingID},
		{"missing room", reservation("R2", "H1", "", "C2", "2024-03-01", "2024-03-05"), repository.ErrMissingID},
		{"zero dates", model.Reservation{ReservationID: "R2", HotelID: "H1", RoomNumber: "101", CustomerID: "C2"}, repository.ErrInvalidDateRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.Create(ctx, tc.res)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 1, ledger.Len(ctx))
		})
	}

	_, err = ledger.Create(ctx, reservation("R2", "H1", "101", "C2", "2024-02-13", "2024-02-15"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, reservation("R3", "H1", "102", "C3", "2024-02-10", "2024-02-12"))
	require.NoError(t, err, "other rooms are independent")
	_, err = ledger.Create(ctx, reservation("R4", "H2", "101", "C3", "2024-02-10", "2024-02-12"))
	require.NoError(t, err, "other hotels are independent")

	assert.Len(t, ledger.ForRoom(ctx, "H1", "101"), 2)
	assert.Len(t, ledger.ForRoom(ctx, "H1", " 102"), 1)
}

func TestReservationCancel(t *testing.T) {
	ctx := context.Background()
	events := &recorder{}
	ledger := repository.NewReservationRepo(newFileStore(t), repository.WithPublisher(events))
	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)

	err = ledger.Cancel(ctx, "R404")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, ledger.Len(ctx))

	require.NoError(t, ledger.Cancel(ctx, "R1"))
	assert.Zero(t, ledger.Len(ctx))
	_, err = ledger.Get(ctx, "R1")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)

	_, err = ledger.Create(ctx, reservation("R2", "H1", "101", "C2", "2024-02-12", "2024-02-15"))
	require.NoError(t, err, "cancelled dates are free again")

	assert.Equal(t, []queue.EventType{queue.ReservationCreated, queue.ReservationCancelled, queue.ReservationCreated}, events.types())
	assert.Equal(t, "R1", events.events[1].ReservationID)
}

func TestReservationModify(t *testing.T) {
	ctx := context.Background()
	events := &recorder{}
	ledger := repository.NewReservationRepo(newFileStore(t), repository.WithPublisher(events))
	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, reservation("R2", "H1", "101", "C2", "2024-02-20", "2024-02-25"))
	require.NoError(t, err)

	res, err := ledger.Modify(ctx, "R1", repository.ReservationUpdate{EndDate: ptr(d("2024-02-14"))})
	require.NoError(t, err)
	assert.True(t, res.EndDate.Equal(d("2024-02-14")))
	assert.True(t, res.StartDate.Equal(d("2024-02-10")))

	_, err = ledger.Modify(ctx, "R1", repository.ReservationUpdate{EndDate: ptr(d("2024-02-20"))})
	assert.ErrorIs(t, err, repository.ErrRoomAlreadyBooked)

	_, err = ledger.Modify(ctx, "R1", repository.ReservationUpdate{StartDate: ptr(d("2024-02-14"))})
	assert.ErrorIs(t, err, repository.ErrInvalidDateRange)

	_, err = ledger.Modify(ctx, "R404", repository.ReservationUpdate{})
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)

	got, err := ledger.Get(ctx, "R1")
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(d("2024-02-10")), "rejected modifications keep the previous dates")
	assert.True(t, got.EndDate.Equal(d("2024-02-14")))

	_, err = ledger.Modify(ctx, "R1", repository.ReservationUpdate{StartDate: ptr(d("2024-02-09")), EndDate: ptr(d("2024-02-13"))})
	require.NoError(t, err, "a reservation does not conflict with itself")

	assert.Equal(t, []queue.EventType{
		queue.ReservationCreated, queue.ReservationCreated, queue.ReservationModified, queue.ReservationModified,
	}, events.types())
}

func TestReservationSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := storage.NewFileStore(dir)
	ledger := repository.NewReservationRepo(store)
	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, reservation("R2", "H1", "102", "C2", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	require.NoError(t, ledger.SaveAll(ctx, "reservations.json"))

	data, err := os.ReadFile(filepath.Join(dir, "reservations.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"start_date": "2024-02-10"`)
	assert.Contains(t, string(data), `"room_number": "101"`)

	events := &recorder{}
	fresh := repository.NewReservationRepo(store, repository.WithPublisher(events))
	report := fresh.LoadAll(ctx, "reservations.json")
	assert.Equal(t, repository.LoadOK, report.Outcome)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, ledger.List(ctx), fresh.List(ctx))
	assert.Empty(t, events.types(), "loading publishes nothing")
}

func TestReservationLoadRevalidates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	snapshot := `[
		{"reservation_id": "R1", "hotel_id": "H1", "room_number": 101, "customer_id": "C1", "start_date": "2024-02-10", "end_date": "2024-02-12"},
		{"reservation_id": "R2", "hotel_id": "H1", "room_number": "101", "customer_id": "C2", "start_date": "2024-02-12", "end_date": "2024-02-15"},
		{"reservation_id": "R1", "hotel_id": "H1", "room_number": "102", "customer_id": "C2", "start_date": "2024-02-12", "end_date": "2024-02-15"},
		{"reservation_id": "R3", "hotel_id": "H1", "room_number": "102", "customer_id": "C3", "start_date": "2024-02-15", "end_date": "2024-02-12"},
		{"reservation_id": "R4", "hotel_id": "H1", "room_number": "102", "customer_id": "C3", "start_date": "12/02/2024", "end_date": "2024-02-14"},
		{"reservation_id": "R5", "hotel_id": "H1", "room_number": "102", "customer_id": "C3", "start_date": "2024-02-13", "end_date": "2024-02-14"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reservations.json"), []byte(snapshot), 0o644))

	ledger := repository.NewReservationRepo(storage.NewFileStore(dir), repository.WithLogger(discard()))
	report := ledger.LoadAll(ctx, "reservations.json")

	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 4)
	assert.ErrorIs(t, report.Skipped[0], repository.ErrRoomAlreadyBooked)
	assert.ErrorIs(t, report.Skipped[1], repository.ErrDuplicateID)
	assert.ErrorIs(t, report.Skipped[2], repository.ErrInvalidDateRange)

	res, err := ledger.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, model.RoomNumber("101"), res.RoomNumber, "integer room numbers load as strings")
}

func TestReservationLoadMissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := repository.NewReservationRepo(storage.NewFileStore(dir), repository.WithLogger(discard()))
	assert.Equal(t, repository.LoadMissing, ledger.LoadAll(ctx, "reservations.json").Outcome)

	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reservations.json"), []byte(`{"reservation_id": "R9"}`), 0o644))
	assert.Equal(t, repository.LoadMalformed, ledger.LoadAll(ctx, "reservations.json").Outcome)
	assert.Equal(t, 1, ledger.Len(ctx))
}

func TestLinkedLedgerRequiresInventory(t *testing.T) {
	ctx := context.Background()
	hotels := repository.NewHotelRepo(newFileStore(t))
	ledger := repository.NewReservationRepo(newFileStore(t))
	repository.Link(hotels, ledger)
	seedHotel(t, hotels)

	_, err := ledger.Create(ctx, reservation("R1", "H9", "101", "C1", "2024-02-10", "2024-02-12"))
	assert.ErrorIs(t, err, repository.ErrHotelNotFound)
	_, err = ledger.Create(ctx, reservation("R1", "H1", "999", "C1", "2024-02-10", "2024-02-12"))
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)

	require.NoError(t, hotels.ReserveRoom(ctx, "H1", "101", "C1", d("2024-02-10"), d("2024-02-12")))
	_, err = ledger.Create(ctx, reservation("R1", "H1", "101", "C2", "2024-02-12", "2024-02-14"))
	assert.ErrorIs(t, err, repository.ErrRoomAlreadyBooked, "room stays block ledger reservations")

	_, err = ledger.Create(ctx, reservation("R1", "H1", "102", "C2", "2024-02-12", "2024-02-14"))
	require.NoError(t, err)
	ok, err := hotels.IsRoomAvailable(ctx, "H1", "102", d("2024-02-14"), d("2024-02-16"))
	require.NoError(t, err)
	assert.False(t, ok, "ledger reservations block room stays")
	err = hotels.ReserveRoom(ctx, "H1", "102", "C3", d("2024-02-13"), d("2024-02-13"))
	assert.ErrorIs(t, err, repository.ErrRoomUnavailable)

	_, err = ledger.Create(ctx, reservation("R2", "H1", "101", "C2", "2024-02-20", "2024-02-22"))
	require.NoError(t, err)
	_, err = ledger.Modify(ctx, "R2", repository.ReservationUpdate{StartDate: ptr(d("2024-02-11"))})
	assert.ErrorIs(t, err, repository.ErrRoomAlreadyBooked, "modify consults room stays too")
}

func TestUnlinkedRegistriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	hotels := repository.NewHotelRepo(newFileStore(t))
	ledger := repository.NewReservationRepo(newFileStore(t))
	seedHotel(t, hotels)

	require.NoError(t, hotels.ReserveRoom(ctx, "H1", "101", "C1", d("2024-02-10"), d("2024-02-12")))
	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C2", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, reservation("R2", "H9", "1", "C2", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
}

func TestLinkedConcurrentBookingsNeverOverlap(t *testing.T) {
	ctx := context.Background()
	hotels := repository.NewHotelRepo(newFileStore(t))
	ledger := repository.NewReservationRepo(newFileStore(t))
	repository.Link(hotels, ledger)
	seedHotel(t, hotels)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			start := d("2024-02-01").AddDays(i)
			_, _ = ledger.Create(ctx, model.Reservation{
				ReservationID: model.NewReservationID(), HotelID: "H1", RoomNumber: "101",
				CustomerID: "C1", StartDate: start, EndDate: start.AddDays(2),
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			start := d("2024-02-01").AddDays(i)
			_ = hotels.ReserveRoom(ctx, "H1", "101", "C2", start, start.AddDays(1))
			_, _ = hotels.IsRoomAvailable(ctx, "H1", "101", start, start)
		}(i)
	}
	wg.Wait()

	h, err := hotels.Get(ctx, "H1")
	require.NoError(t, err)
	type span struct{ start, end model.Date }
	var spans []span
	for _, s := range h.Rooms["101"].Reservations {
		spans = append(spans, span{s.StartDate, s.EndDate})
	}
	for _, r := range ledger.ForRoom(ctx, "H1", "101") {
		spans = append(spans, span{r.StartDate, r.EndDate})
	}
	require.NotEmpty(t, spans)
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			assert.False(t, model.Overlaps(spans[i].start, spans[i].end, spans[j].start, spans[j].end))
		}
	}
}

func TestLedgerNeverHoldsOverlaps(t *testing.T) {
	ctx := context.Background()
	base := d("2024-01-01")
	store := newFileStore(t)
	rapid.Check(t, func(t *rapid.T) {
		ledger := repository.NewReservationRepo(store)
		n := rapid.IntRange(1, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			room := rapid.SampledFrom([]string{"101", "102"}).Draw(t, "room")
			start := rapid.IntRange(0, 40).Draw(t, "start")
			length := rapid.IntRange(-1, 6).Draw(t, "length")
			_, _ = ledger.Create(ctx, model.Reservation{
				ReservationID: model.NewReservationID(), HotelID: "H1", RoomNumber: model.RoomNumber(room),
				CustomerID: "C1", StartDate: base.AddDays(start), EndDate: base.AddDays(start + length),
			})
		}
		all := ledger.List(ctx)
		for i := range all {
			if !all[i].StartDate.Before(all[i].EndDate) {
				t.Fatalf("reservation %s has start >= end", all[i].ReservationID)
			}
			for j := i + 1; j < len(all); j++ {
				if all[i].RoomNumber == all[j].RoomNumber &&
					model.Overlaps(all[i].StartDate, all[i].EndDate, all[j].StartDate, all[j].EndDate) {
					t.Fatalf("reservations %s and %s overlap", all[i].ReservationID, all[j].ReservationID)
				}
			}
		}
	})
}

func TestLinkedLedgerOutlivesDeletedHotel(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	hotels := repository.NewHotelRepo(store)
	ledger := repository.NewReservationRepo(store)
	repository.Link(hotels, ledger)
	seedHotel(t, hotels)

	_, err := ledger.Create(ctx, reservation("R1", "H1", "101", "C1", "2024-02-10", "2024-02-12"))
	require.NoError(t, err)
	require.NoError(t, hotels.Delete(ctx, "H1"))

	res, err := ledger.Modify(ctx, "R1", repository.ReservationUpdate{EndDate: ptr(d("2024-02-13"))})
	require.NoError(t, err, "a reservation can be moved after its hotel is gone")
	assert.True(t, res.EndDate.Equal(d("2024-02-13")))

	_, err = ledger.Create(ctx, reservation("R2", "H1", "101", "C2", "2024-03-01", "2024-03-03"))
	assert.ErrorIs(t, err, repository.ErrHotelNotFound, "new reservations still need the hotel")

	require.NoError(t, hotels.SaveAll(ctx, "hotels.json"))
	require.NoError(t, ledger.SaveAll(ctx, "reservations.json"))

	freshHotels := repository.NewHotelRepo(store)
	freshLedger := repository.NewReservationRepo(store)
	repository.Link(freshHotels, freshLedger)
	freshHotels.LoadAll(ctx, "hotels.json")
	report := freshLedger.LoadAll(ctx, "reservations.json")
	assert.Equal(t, 1, report.Loaded)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, ledger.List(ctx), freshLedger.List(ctx))
}

func TestLinkedLoadStillRejectsOverlaps(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	snapshot := `[
		{"reservation_id": "R1", "hotel_id": "H9", "room_number": "1", "customer_id": "C1", "start_date": "2024-02-10", "end_date": "2024-02-12"},
		{"reservation_id": "R2", "hotel_id": "H9", "room_number": "1", "customer_id": "C2", "start_date": "2024-02-12", "end_date": "2024-02-14"},
		{"reservation_id": "R3", "hotel_id": "H1", "room_number": "101", "customer_id": "C3", "start_date": "2024-02-11", "end_date": "2024-02-13"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reservations.json"), []byte(snapshot), 0o644))

	hotels := repository.NewHotelRepo(newFileStore(t))
	ledger := repository.NewReservationRepo(storage.NewFileStore(dir), repository.WithLogger(discard()))
	repository.Link(hotels, ledger)
	seedHotel(t, hotels)
	require.NoError(t, hotels.ReserveRoom(ctx, "H1", "101", "C1", d("2024-02-10"), d("2024-02-12")))

	report := ledger.LoadAll(ctx, "reservations.json")
	assert.Equal(t, 1, report.Loaded)
	require.Len(t, report.Skipped, 2)
	assert.ErrorIs(t, report.Skipped[0], repository.ErrRoomAlreadyBooked)
	assert.ErrorIs(t, report.Skipped[1], repository.ErrRoomAlreadyBooked, "room stays still block loaded reservations")
	_, err := ledger.Get(ctx, "R1")
	assert.NoError(t, err)
}
