package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

// LoadOutcome tells which path a LoadAll call took.
type LoadOutcome int

const (
	// LoadOK means the snapshot was read and decoded.  Individual records
	// may still have been skipped; see LoadReport.Skipped.
	LoadOK LoadOutcome = iota
	// LoadMissing means no snapshot exists under the requested name.
	LoadMissing
	// LoadMalformed means the snapshot is not a JSON array of records.
	LoadMalformed
	// LoadFailed means the store could not be read.
	LoadFailed
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadMalformed:
		return "malformed"
	case LoadFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadOutcome(%d)", int(o))
	}
}

// LoadReport describes the result of a LoadAll call.  Loading never aborts
// the caller: when Outcome is not LoadOK the registry is left exactly as it
// was before the call and Err holds the reason.
type LoadReport struct {
	Name    string      // snapshot name that was read
	Outcome LoadOutcome // which path the load took
	Loaded  int         // records inserted into the registry
	Skipped []error     // one entry per record that was rejected
	Err     error       // reason for a degraded outcome
}

// Degraded reports whether the snapshot could not be used at all.
func (r LoadReport) Degraded() bool { return r.Outcome != LoadOK }

func (r LoadReport) String() string {
	if r.Degraded() {
		return fmt.Sprintf("%s: %s, starting with current data (%v)", r.Name, r.Outcome, r.Err)
	}
	return fmt.Sprintf("%s: loaded %d record(s), skipped %d", r.Name, r.Loaded, len(r.Skipped))
}

// skip records a rejected record and logs it under component.
func (r *LoadReport) skip(logger *log.Logger, component string, index int, err error) {
	err = fmt.Errorf("record %d: %w", index, err)
	r.Skipped = append(r.Skipped, err)
	logger.Printf("%s: skipped %s in %s", component, err, r.Name)
}

// readSnapshot fetches name from store and splits it into raw records.
// Records are decoded one by one by the caller so that a single bad
// record does not spoil the rest.
func readSnapshot(ctx context.Context, store storage.Store, logger *log.Logger, component, name string) ([]json.RawMessage, LoadReport) {
	report := LoadReport{Name: name, Outcome: LoadOK}

	data, err := store.Read(ctx, name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		report.Outcome, report.Err = LoadMissing, err
	case err != nil:
		report.Outcome, report.Err = LoadFailed, err
	default:
		var records []json.RawMessage
		if len(strings.TrimSpace(string(data))) == 0 {
			report.Outcome, report.Err = LoadMalformed, errors.New("empty snapshot")
		} else if err := json.Unmarshal(data, &records); err != nil {
			report.Outcome, report.Err = LoadMalformed, err
		} else {
			return records, report
		}
	}
	logger.Printf("%s: %s", component, report)
	return nil, report
}

// writeSnapshot stores records as an indented JSON array.  An empty
// registry is written as [] so the snapshot always loads back cleanly.
func writeSnapshot[T any](ctx context.Context, store storage.Store, name string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := store.Write(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// decodeRecord unmarshals one raw record and checks its struct tags.
func decodeRecord(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := model.Validate(v); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	return nil
}
