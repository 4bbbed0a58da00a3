package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// command runs one subcommand and reports the registries it changed.
type command func(ctx context.Context, a *app, args []string) (changed registry, err error)

var commands = map[string]map[string]command{
	"customer": {
		"add":  customerAdd,
		"rm":   customerRemove,
		"edit": customerEdit,
		"ls":   customerList,
	},
	"hotel": {
		"add":  hotelAdd,
		"rm":   hotelRemove,
		"edit": hotelEdit,
		"ls":   hotelList,
	},
	"room": {
		"add":       roomAdd,
		"available": roomAvailable,
		"reserve":   roomReserve,
		"cancel":    roomCancel,
	},
	"reservation": {
		"add":    reservationAdd,
		"cancel": reservationCancel,
		"edit":   reservationEdit,
		"ls":     reservationList,
	},
}

func lookup(args []string) (command, []string, error) {
	group, ok := commands[args[0]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown command %q", args[0])
	}
	if len(args) < 2 {
		return nil, nil, fmt.Errorf("%s: missing action", args[0])
	}
	cmd, ok := group[args[1]]
	if !ok {
		return nil, nil, fmt.Errorf("%s: unknown action %q", args[0], args[1])
	}
	return cmd, args[2:], nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: reservations <group> <action> [flags]")
	fmt.Fprintln(w, "       reservations audit")
	groups := make([]string, 0, len(commands))
	for g := range commands {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		actions := make([]string, 0, len(commands[g]))
		for a := range commands[g] {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		fmt.Fprintf(w, "  %-12s %s\n", g, strings.Join(actions, " | "))
	}
}

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// isSet reports whether the flag was given on the command line, so that
// an explicit empty value can be told apart from an omitted one.
func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func parseRange(from, to string) (model.Date, model.Date, error) {
	start, err := model.ParseDate(from)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("-from: %w", err)
	}
	end, err := model.ParseDate(to)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("-to: %w", err)
	}
	return start, end, nil
}

func customerAdd(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("customer add", a)
	id := fs.String("id", "", "customer id")
	name := fs.String("name", "", "customer name")
	email := fs.String("email", "", "customer email")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	c, err := a.customers.Create(ctx, *id, *name, *email)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}
	fmt.Fprintf(a.out, "Customer %s created successfully.\n", c.CustomerID)
	return customersRegistry, nil
}

func customerRemove(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("customer rm", a)
	id := fs.String("id", "", "customer id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := a.customers.Delete(ctx, *id); err != nil {
		return 0, fmt.Errorf("delete customer %s: %w", *id, err)
	}
	fmt.Fprintf(a.out, "Customer %s deleted.\n", *id)
	return customersRegistry, nil
}

func customerEdit(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("customer edit", a)
	id := fs.String("id", "", "customer id")
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	var u repository.CustomerUpdate
	if isSet(fs, "name") {
		u.Name = name
	}
	if isSet(fs, "email") {
		u.Email = email
	}
	c, err := a.customers.Update(ctx, *id, u)
	if err != nil {
		return 0, fmt.Errorf("update customer %s: %w", *id, err)
	}
	fmt.Fprintln(a.out, c)
	return customersRegistry, nil
}

func customerList(ctx context.Context, a *app, args []string) (registry, error) {
	if err := newFlags("customer ls", a).Parse(args); err != nil {
		return 0, err
	}
	for _, c := range a.customers.List(ctx) {
		fmt.Fprintln(a.out, c)
	}
	return 0, nil
}

func hotelAdd(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("hotel add", a)
	id := fs.String("id", "", "hotel id")
	name := fs.String("name", "", "hotel name")
	location := fs.String("location", "", "hotel location")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	h, err := a.hotels.Create(ctx, *id, *name, *location)
	if err != nil {
		return 0, fmt.Errorf("create hotel: %w", err)
	}
	fmt.Fprintf(a.out, "Hotel %s created successfully.\n", h.HotelID)
	return hotelsRegistry, nil
}

func hotelRemove(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("hotel rm", a)
	id := fs.String("id", "", "hotel id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := a.hotels.Delete(ctx, *id); err != nil {
		return 0, fmt.Errorf("delete hotel %s: %w", *id, err)
	}
	fmt.Fprintf(a.out, "Hotel %s deleted.\n", *id)
	return hotelsRegistry, nil
}

func hotelEdit(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("hotel edit", a)
	id := fs.String("id", "", "hotel id")
	name := fs.String("name", "", "new name")
	location := fs.String("location", "", "new location")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	var u repository.HotelUpdate
	if isSet(fs, "name") {
		u.Name = name
	}
	if isSet(fs, "location") {
		u.Location = location
	}
	h, err := a.hotels.Update(ctx, *id, u)
	if err != nil {
		return 0, fmt.Errorf("update hotel %s: %w", *id, err)
	}
	fmt.Fprintln(a.out, h)
	return hotelsRegistry, nil
}

func hotelList(ctx context.Context, a *app, args []string) (registry, error) {
	if err := newFlags("hotel ls", a).Parse(args); err != nil {
		return 0, err
	}
	for _, h := range a.hotels.List(ctx) {
		fmt.Fprintln(a.out, h)
		for _, n := range h.RoomNumbers() {
			room := h.Rooms[n]
			fmt.Fprintf(a.out, "  Room %s: capacity %d, %d stay(s)\n", n, room.Capacity, len(room.Reservations))
			for _, s := range room.Reservations {
				fmt.Fprintf(a.out, "    %s %s..%s\n", s.CustomerID, s.StartDate, s.EndDate)
			}
		}
	}
	return 0, nil
}

func roomAdd(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("room add", a)
	hotel := fs.String("hotel", "", "hotel id")
	room := fs.String("room", "", "room number")
	capacity := fs.Int("capacity", 1, "number of guests")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := a.hotels.AddRoom(ctx, *hotel, *room, *capacity); err != nil {
		return 0, fmt.Errorf("add room %s to %s: %w", *room, *hotel, err)
	}
	fmt.Fprintf(a.out, "Room %s added to hotel %s.\n", model.CanonicalRoomNumber(*room), *hotel)
	return hotelsRegistry, nil
}

func roomAvailable(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("room available", a)
	hotel := fs.String("hotel", "", "hotel id")
	room := fs.String("room", "", "room number")
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	start, end, err := parseRange(*from, *to)
	if err != nil {
		return 0, err
	}
	ok, err := a.hotels.IsRoomAvailable(ctx, *hotel, *room, start, end)
	if err != nil {
		return 0, fmt.Errorf("check room %s: %w", *room, err)
	}
	if ok {
		fmt.Fprintf(a.out, "Room %s is available from %s to %s.\n", *room, start, end)
	} else {
		fmt.Fprintf(a.out, "Room %s is not available from %s to %s.\n", *room, start, end)
	}
	return 0, nil
}

func roomReserve(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("room reserve", a)
	hotel := fs.String("hotel", "", "hotel id")
	room := fs.String("room", "", "room number")
	customer := fs.String("customer", "", "customer id")
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	start, end, err := parseRange(*from, *to)
	if err != nil {
		return 0, err
	}
	if err := a.hotels.ReserveRoom(ctx, *hotel, *room, *customer, start, end); err != nil {
		return 0, fmt.Errorf("reserve room %s: %w", *room, err)
	}
	fmt.Fprintf(a.out, "Room %s reserved for %s from %s to %s.\n", *room, *customer, start, end)
	return hotelsRegistry, nil
}

func roomCancel(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("room cancel", a)
	hotel := fs.String("hotel", "", "hotel id")
	room := fs.String("room", "", "room number")
	customer := fs.String("customer", "", "customer id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := a.hotels.CancelReservation(ctx, *hotel, *room, *customer); err != nil {
		return 0, fmt.Errorf("cancel stay in room %s: %w", *room, err)
	}
	fmt.Fprintf(a.out, "Stay of %s in room %s cancelled.\n", *customer, *room)
	return hotelsRegistry, nil
}

func reservationAdd(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("reservation add", a)
	id := fs.String("id", "", "reservation id (generated when omitted)")
	hotel := fs.String("hotel", "", "hotel id")
	room := fs.String("room", "", "room number")
	customer := fs.String("customer", "", "customer id")
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	start, end, err := parseRange(*from, *to)
	if err != nil {
		return 0, err
	}
	if *id == "" {
		*id = model.NewReservationID()
	}
	res, err := a.ledger.Create(ctx, model.Reservation{
		ReservationID: *id,
		HotelID:       *hotel,
		RoomNumber:    model.RoomNumber(*room),
		CustomerID:    *customer,
		StartDate:     start,
		EndDate:       end,
	})
	if err != nil {
		return 0, fmt.Errorf("create reservation: %w", err)
	}
	fmt.Fprintf(a.out, "Reservation %s created successfully.\n", res.ReservationID)
	return reservationsRegistry, nil
}

func reservationCancel(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("reservation cancel", a)
	id := fs.String("id", "", "reservation id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := a.ledger.Cancel(ctx, *id); err != nil {
		return 0, fmt.Errorf("cancel reservation %s: %w", *id, err)
	}
	fmt.Fprintf(a.out, "Reservation %s cancelled.\n", *id)
	return reservationsRegistry, nil
}

func reservationEdit(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("reservation edit", a)
	id := fs.String("id", "", "reservation id")
	from := fs.String("from", "", "new first day (YYYY-MM-DD)")
	to := fs.String("to", "", "new last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	var u repository.ReservationUpdate
	if isSet(fs, "from") {
		start, err := model.ParseDate(*from)
		if err != nil {
			return 0, fmt.Errorf("-from: %w", err)
		}
		u.StartDate = &start
	}
	if isSet(fs, "to") {
		end, err := model.ParseDate(*to)
		if err != nil {
			return 0, fmt.Errorf("-to: %w", err)
		}
		u.EndDate = &end
	}
	res, err := a.ledger.Modify(ctx, *id, u)
	if err != nil {
		return 0, fmt.Errorf("modify reservation %s: %w", *id, err)
	}
	fmt.Fprintln(a.out, res)
	return reservationsRegistry, nil
}

func reservationList(ctx context.Context, a *app, args []string) (registry, error) {
	fs := newFlags("reservation ls", a)
	hotel := fs.String("hotel", "", "only this hotel (requires -room)")
	room := fs.String("room", "", "only this room")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	list := a.ledger.List(ctx)
	if *hotel != "" || *room != "" {
		list = a.ledger.ForRoom(ctx, *hotel, *room)
	}
	for _, res := range list {
		fmt.Fprintln(a.out, res)
	}
	return 0, nil
}
