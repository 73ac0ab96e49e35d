package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/textutil"
	"github.com/forsage-shop/pos/internal/repositories"
)

const (
	customerIDPrefix = "cus_"
	vehicleIDPrefix  = repositories.VehicleIDPrefix

	birthDateLayout       = "2006-01-02"
	defaultBirthdayWindow = 7
)

// CustomerServiceDeps bundles constructor inputs for the customer registry.
type CustomerServiceDeps struct {
	Customers      repositories.Collection[domain.Customer]
	UnitOfWork     repositories.UnitOfWork
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
	ClampDiscount  bool
	BirthdayWindow int
}

type customerService struct {
	customers      repositories.Collection[domain.Customer]
	unitOfWork     repositories.UnitOfWork
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
	clampDiscount  bool
	birthdayWindow int
}

// NewCustomerService constructs the customer registry.
func NewCustomerService(deps CustomerServiceDeps) (CustomerService, error) {
	if deps.Customers == nil {
		return nil, errors.New("customer service: customer collection is required")
	}
	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	window := deps.BirthdayWindow
	if window <= 0 {
		window = defaultBirthdayWindow
	}
	return &customerService{
		customers:      deps.Customers,
		unitOfWork:     unit,
		clock:          clock,
		newID:          idGen,
		logger:         logger,
		clampDiscount:  deps.ClampDiscount,
		birthdayWindow: window,
	}, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter CustomerListFilter) ([]Customer, error) {
	customers, err := s.customers.LoadAll(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrCustomerNotFound)
	}
	if strings.TrimSpace(filter.Query) == "" {
		return customers, nil
	}
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if customerMatches(c, filter.Query) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	customers, err := s.customers.LoadAll(ctx)
	if err != nil {
		return Customer{}, mapRepositoryError(err, ErrCustomerNotFound)
	}
	customer, ok := findCustomer(customers, customerID)
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return customer, nil
}

// CreateCustomer appends a new customer. Vehicles may be empty.
func (s *customerService) CreateCustomer(ctx context.Context, cmd CustomerInput) (Customer, error) {
	customer, err := s.normalizeCustomer(cmd)
	if err != nil {
		return Customer{}, err
	}
	customer.ID = customerIDPrefix + s.newID()
	customer.Vehicles = s.buildVehicles(cmd.Vehicles, nil)

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		customers, err := s.customers.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrCustomerNotFound)
		}
		return mapRepositoryError(s.customers.SaveAll(txCtx, append(customers, customer)), ErrCustomerNotFound)
	})
	if err != nil {
		return Customer{}, err
	}
	s.logger(ctx, "customer.created", map[string]any{"customer": customer.ID})
	return customer, nil
}

// UpdateCustomer replaces the editable fields. Vehicles are replaced only when cmd.Vehicles
// is non-nil; vehicles keep their id when the input carries it.
func (s *customerService) UpdateCustomer(ctx context.Context, customerID string, cmd CustomerInput) (Customer, error) {
	next, err := s.normalizeCustomer(cmd)
	if err != nil {
		return Customer{}, err
	}
	return s.mutate(ctx, customerID, func(c *Customer) error {
		next.ID = c.ID
		next.Vehicles = c.Vehicles
		if cmd.Vehicles != nil {
			next.Vehicles = s.buildVehicles(cmd.Vehicles, c.Vehicles)
		}
		*c = next
		return nil
	})
}

// DeleteCustomer removes the live record. Orders keep their snapshots.
func (s *customerService) DeleteCustomer(ctx context.Context, cmd DeleteCommand) error {
	customerID := strings.TrimSpace(cmd.ID)
	if customerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	if !cmd.Confirmed {
		return ErrConfirmationRequired
	}
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		customers, err := s.customers.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrCustomerNotFound)
		}
		idx := slices.IndexFunc(customers, func(c Customer) bool { return c.ID == customerID })
		if idx < 0 {
			return ErrCustomerNotFound
		}
		return mapRepositoryError(s.customers.SaveAll(txCtx, slices.Delete(customers, idx, idx+1)), ErrCustomerNotFound)
	})
	if err != nil {
		return err
	}
	s.logger(ctx, "customer.deleted", map[string]any{"customer": customerID})
	return nil
}

func (s *customerService) AddVehicle(ctx context.Context, customerID string, cmd VehicleInput) (Customer, error) {
	cmd.ID = ""
	vehicle := s.buildVehicles([]VehicleInput{cmd}, nil)[0]
	return s.mutate(ctx, customerID, func(c *Customer) error {
		c.Vehicles = append(c.Vehicles, vehicle)
		return nil
	})
}

func (s *customerService) UpdateVehicle(ctx context.Context, customerID, vehicleID string, cmd VehicleInput) (Customer, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	return s.mutate(ctx, customerID, func(c *Customer) error {
		idx := slices.IndexFunc(c.Vehicles, func(v Vehicle) bool { return v.ID == vehicleID })
		if idx < 0 {
			return ErrVehicleNotFound
		}
		updated := normalizeVehicle(cmd)
		updated.ID = vehicleID
		c.Vehicles[idx] = updated
		return nil
	})
}

func (s *customerService) RemoveVehicle(ctx context.Context, customerID, vehicleID string) (Customer, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	return s.mutate(ctx, customerID, func(c *Customer) error {
		idx := slices.IndexFunc(c.Vehicles, func(v Vehicle) bool { return v.ID == vehicleID })
		if idx < 0 {
			return ErrVehicleNotFound
		}
		c.Vehicles = slices.Delete(c.Vehicles, idx, idx+1)
		return nil
	})
}

// UpcomingBirthdays lists customers whose next birthday falls within the configured
// window, today included. Customers born on 29 February are reminded on 1 March in
// common years.
func (s *customerService) UpcomingBirthdays(ctx context.Context) ([]BirthdayReminder, error) {
	customers, err := s.customers.LoadAll(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrCustomerNotFound)
	}
	now := s.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out []BirthdayReminder
	for _, c := range customers {
		next, ok := nextBirthday(c.BirthDate, today)
		if !ok {
			continue
		}
		days := int(next.Sub(today).Hours()/24 + 0.5)
		if days > s.birthdayWindow {
			continue
		}
		out = append(out, BirthdayReminder{Customer: c, DaysUntil: days, Date: next})
	}
	slices.SortStableFunc(out, func(a, b BirthdayReminder) int { return a.DaysUntil - b.DaysUntil })
	return out, nil
}

func nextBirthday(raw string, today time.Time) (time.Time, bool) {
	born, err := time.Parse(birthDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	next := time.Date(today.Year(), born.Month(), born.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, born.Month(), born.Day(), 0, 0, 0, 0, today.Location())
	}
	return next, true
}

func (s *customerService) mutate(ctx context.Context, customerID string, fn func(*Customer) error) (Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	var updated Customer
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		customers, err := s.customers.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrCustomerNotFound)
		}
		idx := slices.IndexFunc(customers, func(c Customer) bool { return c.ID == customerID })
		if idx < 0 {
			return ErrCustomerNotFound
		}
		if err := fn(&customers[idx]); err != nil {
			return err
		}
		updated = customers[idx]
		return mapRepositoryError(s.customers.SaveAll(txCtx, customers), ErrCustomerNotFound)
	})
	if err != nil {
		return Customer{}, err
	}
	return updated, nil
}

func (s *customerService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *customerService) normalizeCustomer(cmd CustomerInput) (Customer, error) {
	customer := Customer{
		Name:            textutil.CleanField(cmd.Name),
		Phone:           textutil.CleanField(cmd.Phone),
		BirthDate:       strings.TrimSpace(cmd.BirthDate),
		DiscountPercent: cmd.DiscountPercent,
	}
	if customer.Name == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrCustomerInvalidInput)
	}
	if customer.BirthDate != "" {
		if _, err := time.Parse(birthDateLayout, customer.BirthDate); err != nil {
			return Customer{}, fmt.Errorf("%w: birth date must be YYYY-MM-DD", ErrCustomerInvalidInput)
		}
	}
	if math.IsNaN(customer.DiscountPercent) || math.IsInf(customer.DiscountPercent, 0) {
		return Customer{}, fmt.Errorf("%w: discount must be a finite number", ErrCustomerInvalidInput)
	}
	if s.clampDiscount {
		customer.DiscountPercent = repositories.ClampDiscount(customer.DiscountPercent)
	}
	return customer, nil
}

// buildVehicles keeps ids of inputs that reference an existing vehicle and assigns fresh
// ids to the rest.
func (s *customerService) buildVehicles(inputs []VehicleInput, existing []Vehicle) []Vehicle {
	vehicles := make([]Vehicle, 0, len(inputs))
	for _, in := range inputs {
		v := normalizeVehicle(in)
		id := strings.TrimSpace(in.ID)
		if id != "" && slices.ContainsFunc(existing, func(e Vehicle) bool { return e.ID == id }) {
			v.ID = id
		} else {
			v.ID = vehicleIDPrefix + s.newID()
		}
		vehicles = append(vehicles, v)
	}
	return vehicles
}

func normalizeVehicle(in VehicleInput) Vehicle {
	return Vehicle{
		VIN:        strings.ToUpper(textutil.CleanField(in.VIN)),
		Make:       textutil.CleanField(in.Make),
		Model:      textutil.CleanField(in.Model),
		Year:       textutil.CleanField(in.Year),
		EngineSize: textutil.CleanField(in.EngineSize),
	}
}
