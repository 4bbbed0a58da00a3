// Command reservations manages customers, hotels, rooms and reservations
// from the command line.  Each invocation loads the three registries from
// the configured snapshot store, runs one subcommand and writes back only
// the registries the subcommand changed.
//
// Usage:
//
//	reservations <group> <action> [flags]
//	reservations audit
//
// Run "reservations help" for the list of subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/database"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/storage"
	"github.com/iliyamo/hotel-reservation/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// app bundles the registries and the store they persist to.
type app struct {
	cfg       config.Config
	store     storage.Store
	customers *repository.CustomerRepo
	hotels    *repository.HotelRepo
	ledger    *repository.ReservationRepo
	reports   map[registry]repository.LoadReport
	out       io.Writer
	closers   []func() error
}

// registry is a bit set naming the registries a command changed.
type registry uint8

const (
	customersRegistry registry = 1 << iota
	hotelsRegistry
	reservationsRegistry
)

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(out)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if args[0] == "audit" {
		log.Printf("audit: consuming %s into %s", cfg.Queue.Name, cfg.Queue.AuditLog)
		err := queue.StartAuditConsumer(ctx, cfg.Queue.URL, cfg.Queue.Name, cfg.Queue.AuditLog)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	cmd, rest, err := lookup(args)
	if err != nil {
		usage(out)
		return err
	}

	a, err := open(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	changed, err := cmd(ctx, a, rest)
	if err != nil {
		return err
	}
	return a.save(ctx, changed)
}

// open connects the configured store and rehydrates the registries.
// Hotels are loaded before reservations so linked ledger checks can see
// the inventory.
func open(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, out: out, reports: map[registry]repository.LoadReport{}}

	tp, shutdown, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = storage.Traced(store, cfg.Storage.Backend, tp)

	opts := []repository.Option{repository.WithLogger(log.Default())}
	if cfg.Queue.Enabled {
		opts = append(opts, repository.WithPublisher(queue.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Name)))
	}
	a.customers = repository.NewCustomerRepo(a.store, opts...)
	a.hotels = repository.NewHotelRepo(a.store, opts...)
	a.ledger = repository.NewReservationRepo(a.store, opts...)
	repository.Link(a.hotels, a.ledger)

	a.reports[customersRegistry] = a.customers.LoadAll(ctx, cfg.Storage.CustomersFile)
	a.reports[hotelsRegistry] = a.hotels.LoadAll(ctx, cfg.Storage.HotelsFile)
	a.reports[reservationsRegistry] = a.ledger.LoadAll(ctx, cfg.Storage.ReservationsFile)
	for _, report := range a.reports {
		if report.Outcome == repository.LoadFailed {
			a.close()
			return nil, fmt.Errorf("load %s: %w", report.Name, report.Err)
		}
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	cfg := a.cfg
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		s, err := storage.NewBoltStore(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.BackendRedis:
		client := config.NewRedisClient(cfg.Redis)
		if client == nil {
			return nil, fmt.Errorf("redis: cannot reach %s", cfg.Redis.Addr)
		}
		a.closers = append(a.closers, client.Close)
		return storage.NewRedisStore(client, cfg.Redis.Prefix)
	case config.BackendMySQL:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return storage.NewMySQLStore(ctx, db)
	default:
		return storage.NewFileStore(cfg.Storage.DataDir), nil
	}
}

// save writes back the registries named in changed.  A snapshot that did
// not load cleanly is first copied to "<name>.bak" so records the registry
// rejected are not lost.
func (a *app) save(ctx context.Context, changed registry) error {
	targets := []struct {
		reg  registry
		name string
		save func(context.Context, string) error
	}{
		{customersRegistry, a.cfg.Storage.CustomersFile, a.customers.SaveAll},
		{hotelsRegistry, a.cfg.Storage.HotelsFile, a.hotels.SaveAll},
		{reservationsRegistry, a.cfg.Storage.ReservationsFile, a.ledger.SaveAll},
	}
	for _, t := range targets {
		if changed&t.reg == 0 {
			continue
		}
		if err := a.backup(ctx, a.reports[t.reg]); err != nil {
			return err
		}
		if err := t.save(ctx, t.name); err != nil {
			return err
		}
	}
	return nil
}

// backup copies a malformed or partially loaded snapshot aside.
func (a *app) backup(ctx context.Context, report repository.LoadReport) error {
	if report.Outcome != repository.LoadMalformed && len(report.Skipped) == 0 {
		return nil
	}
	data, err := a.store.Read(ctx, report.Name)
	if err != nil {
		return fmt.Errorf("backup %s: %w", report.Name, err)
	}
	bak := report.Name + ".bak"
	if err := a.store.Write(ctx, bak, data); err != nil {
		return fmt.Errorf("backup %s: %w", report.Name, err)
	}
	log.Printf("save: %s did not load cleanly, previous contents kept in %s", report.Name, bak)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	a.closers = nil
}
