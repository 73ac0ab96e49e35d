package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/textutil"
)

// looseString accepts strings, numbers and booleans. Older records stored year as a number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch typed := v.(type) {
	case float64:
		if typed == 0 {
			*s = ""
			return nil
		}
		*s = looseString(strconv.FormatFloat(typed, 'f', -1, 64))
	case bool:
		if !typed {
			*s = ""
			return nil
		}
		*s = "true"
	default:
		*s = ""
	}
	return nil
}

// looseNumber accepts numbers and numeric strings. Anything else becomes 0.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		parsed, err := textutil.ParseNumber(v)
		if err != nil {
			parsed = 0
		}
		*n = looseNumber(parsed)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = 0
		return nil
	}
	*n = looseNumber(v)
	return nil
}

type vehicleRecord struct {
	ID         looseString `json:"id"`
	VIN        looseString `json:"vin"`
	Make       looseString `json:"make"`
	Model      looseString `json:"model"`
	Year       looseString `json:"year"`
	EngineSize looseString `json:"engineSize"`
}

// customerRecord is the stored shape, covering both the current layout and the flat
// layout where a single vehicle lived on the customer itself.
type customerRecord struct {
	ID              looseString      `json:"id"`
	Name            looseString      `json:"name"`
	Phone           looseString      `json:"phone"`
	BirthDate       looseString      `json:"birthDate"`
	DiscountPercent looseNumber      `json:"discountPercent"`
	Vehicles        *[]vehicleRecord `json:"vehicles"`

	VIN        looseString `json:"vin"`
	Make       looseString `json:"make"`
	Model      looseString `json:"model"`
	Year       looseString `json:"year"`
	EngineSize looseString `json:"engineSize"`
}

// VehicleIDPrefix marks vehicle identities.
const VehicleIDPrefix = "veh_"

type customerCodec struct {
	clampDiscount bool
}

// LegacyVehicleID names a vehicle that was stored without an id. The result depends only on
// the owner and the slot, so every load of the same payload yields the same id. slot is -1
// for the single vehicle of a flat record.
func LegacyVehicleID(customerID string, slot int) string {
	owner := strings.TrimSpace(customerID)
	if slot < 0 {
		return VehicleIDPrefix + owner + "-legacy"
	}
	return fmt.Sprintf("%s%s-legacy-%d", VehicleIDPrefix, owner, slot+1)
}

// decode upgrades legacy records in memory. The upgraded form is persisted only when the
// collection is next saved.
func (c customerCodec) decode(raw []byte) ([]domain.Customer, error) {
	var records []customerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(records))
	for i, rec := range records {
		owner := string(rec.ID)
		if strings.TrimSpace(owner) == "" {
			owner = fmt.Sprintf("row%d", i+1)
		}
		customer := domain.Customer{
			ID:              string(rec.ID),
			Name:            string(rec.Name),
			Phone:           string(rec.Phone),
			BirthDate:       strings.TrimSpace(string(rec.BirthDate)),
			DiscountPercent: float64(rec.DiscountPercent),
		}
		if c.clampDiscount {
			customer.DiscountPercent = ClampDiscount(customer.DiscountPercent)
		}
		if rec.Vehicles == nil {
			customer.Vehicles = []domain.Vehicle{{
				ID:         LegacyVehicleID(owner, -1),
				VIN:        string(rec.VIN),
				Make:       string(rec.Make),
				Model:      string(rec.Model),
				Year:       string(rec.Year),
				EngineSize: string(rec.EngineSize),
			}}
		} else {
			customer.Vehicles = make([]domain.Vehicle, 0, len(*rec.Vehicles))
			for slot, v := range *rec.Vehicles {
				vehicle := domain.Vehicle{
					ID:         string(v.ID),
					VIN:        string(v.VIN),
					Make:       string(v.Make),
					Model:      string(v.Model),
					Year:       string(v.Year),
					EngineSize: string(v.EngineSize),
				}
				if vehicle.ID == "" {
					vehicle.ID = LegacyVehicleID(owner, slot)
				}
				customer.Vehicles = append(customer.Vehicles, vehicle)
			}
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// ClampDiscount bounds a discount percentage to [0,100].
func ClampDiscount(percent float64) float64 {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
