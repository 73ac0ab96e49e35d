package services

import (
	"errors"
	"fmt"

	"github.com/forsage-shop/pos/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid order data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrCustomerInvalidInput signals invalid customer or vehicle data.
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
	// ErrCustomerNotFound indicates the customer could not be located.
	ErrCustomerNotFound = errors.New("customer: not found")
	// ErrCustomerHasNoVehicles blocks order creation for customers without a vehicle.
	ErrCustomerHasNoVehicles = errors.New("customer: no vehicles registered")
	// ErrVehicleNotFound indicates the vehicle is not owned by the customer.
	ErrVehicleNotFound = errors.New("vehicle: not found")
	// ErrCatalogInvalidInput signals invalid product or import data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrStatisticsInvalidInput signals an unusable reporting window.
	ErrStatisticsInvalidInput = errors.New("statistics: invalid input")
	// ErrConfirmationRequired is returned by destructive operations called without confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrStorageUnavailable wraps backend outages. Data is never reported as empty when
	// the store cannot be read.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// mapRepositoryError translates repository failures into service sentinels. notFound is
// used for repository not-found errors.
func mapRepositoryError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound() && notFound != nil:
			return fmt.Errorf("%w: %v", notFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return err
}
