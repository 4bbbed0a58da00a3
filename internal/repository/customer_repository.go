package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

// CustomerRepo is the customer registry.  Customers are kept in insertion
// order and persisted as one snapshot.
type CustomerRepo struct {
	mu        sync.Mutex
	customers []model.Customer
	store     storage.Store
	opts      options
}

// CustomerUpdate lists the fields Update may change.  Nil fields are left
// as they are.
type CustomerUpdate struct {
	Name  *string
	Email *string
}

// NewCustomerRepo constructs an empty CustomerRepo persisting to store.
func NewCustomerRepo(store storage.Store, opts ...Option) *CustomerRepo {
	return &CustomerRepo{store: store, opts: newOptions(opts)}
}

// Create registers a new customer.  It fails with ErrMissingID,
// ErrDuplicateID, ErrInvalidEmail or ErrEmptyName, in that order of
// precedence, and leaves the registry unchanged on failure.
func (r *CustomerRepo) Create(ctx context.Context, id, name, email string) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(model.Customer{CustomerID: id, Name: name, Email: email})
}

// insert requires r.mu.
func (r *CustomerRepo) insert(c model.Customer) (model.Customer, error) {
	if strings.TrimSpace(c.CustomerID) == "" {
		return model.Customer{}, ErrMissingID
	}
	if r.indexOf(c.CustomerID) >= 0 {
		return model.Customer{}, ErrDuplicateID
	}
	if !model.ValidEmail(c.Email) {
		return model.Customer{}, ErrInvalidEmail
	}
	if strings.TrimSpace(c.Name) == "" {
		return model.Customer{}, ErrEmptyName
	}
	r.customers = append(r.customers, c)
	return c, nil
}

// Delete removes the customer with the given ID.  It returns
// ErrCustomerNotFound when there is none.
func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrCustomerNotFound
	}
	r.customers = append(r.customers[:i], r.customers[i+1:]...)
	return nil
}

// Update applies a partial update.  Every provided field is validated
// before any of them is applied, so a rejected update changes nothing.
func (r *CustomerRepo) Update(ctx context.Context, id string, u CustomerUpdate) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Customer{}, ErrCustomerNotFound
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return model.Customer{}, ErrEmptyName
	}
	if u.Email != nil && !model.ValidEmail(*u.Email) {
		return model.Customer{}, ErrInvalidEmail
	}

	c := &r.customers[i]
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	return *c, nil
}

// Get returns the customer with the given ID.
func (r *CustomerRepo) Get(ctx context.Context, id string) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Customer{}, ErrCustomerNotFound
	}
	return r.customers[i], nil
}

// List returns a copy of all customers in insertion order.
func (r *CustomerRepo) List(ctx context.Context) []model.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Customer(nil), r.customers...)
}

// Len returns the number of registered customers.
func (r *CustomerRepo) Len(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.customers)
}

// Reset drops every customer.
func (r *CustomerRepo) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers = nil
}

// SaveAll writes the whole registry to the snapshot called name.
func (r *CustomerRepo) SaveAll(ctx context.Context, name string) error {
	return writeSnapshot(ctx, r.store, name, r.List(ctx))
}

// LoadAll merges the snapshot called name into the registry.  Each record
// goes through the same checks as Create; rejected records are skipped and
// reported.  A missing or malformed snapshot leaves the registry unchanged.
func (r *CustomerRepo) LoadAll(ctx context.Context, name string) LoadReport {
	raw, report := readSnapshot(ctx, r.store, r.opts.logger, "customers", name)
	if report.Degraded() {
		return report
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, msg := range raw {
		var c model.Customer
		if err := decodeRecord(msg, &c); err != nil {
			report.skip(r.opts.logger, "customers", i, err)
			continue
		}
		if _, err := r.insert(c); err != nil {
			report.skip(r.opts.logger, "customers", i, err)
			continue
		}
		report.Loaded++
	}
	return report
}

func (r *CustomerRepo) indexOf(id string) int {
	for i := range r.customers {
		if r.customers[i].CustomerID == id {
			return i
		}
	}
	return -1
}
