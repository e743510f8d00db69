package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CarAvailability string

const (
	CarAvailable         CarAvailability = "Available"
	CarRentedOut         CarAvailability = "Rented Out"
	CarInMaintenance     CarAvailability = "In Maintenance"
	CarPendingInspection CarAvailability = "Pending Inspection"
)

type BodyType string

const (
	BodyTypeSedan BodyType = "Sedan"
	BodyTypeSUV   BodyType = "SUV"
)

type Transmission string

const (
	TransmissionAutomatic Transmission = "Automatic"
	TransmissionManual    Transmission = "Manual"
)

type MaintenanceLog struct {
	Date  time.Time `json:"date"`
	Tasks []string  `json:"tasks"`
}

// Car is the rentable asset. Availability is owned by the lifecycle
// transitions and is never written through attribute updates.
type Car struct {
	ID              uuid.UUID        `json:"id"`
	OwnerID         uuid.UUID        `json:"owner_id"`
	Brand           string           `json:"car_brand"`
	Model           string           `json:"car_model"`
	Color           string           `json:"color"`
	Year            int              `json:"year"`
	EngineType      string           `json:"engine_type"`
	BodyType        BodyType         `json:"body_type"`
	Transmission    Transmission     `json:"transmission"`
	Mileage         string           `json:"mileage"`
	FuelLevel       *int             `json:"fuel_level,omitempty"`
	Images          []string         `json:"images"`
	RentRate        int64            `json:"rent_rate"`
	Availability    CarAvailability  `json:"availability"`
	MaintenanceLogs []MaintenanceLog `json:"maintenance_logs,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Validate checks the attributes a showroom supplies when listing a car.
func (c *Car) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Brand) == "" {
		missing = append(missing, "car_brand")
	}
	if strings.TrimSpace(c.Model) == "" {
		missing = append(missing, "car_model")
	}
	if strings.TrimSpace(c.Color) == "" {
		missing = append(missing, "color")
	}
	if strings.TrimSpace(c.EngineType) == "" {
		missing = append(missing, "engine_type")
	}
	if strings.TrimSpace(c.Mileage) == "" {
		missing = append(missing, "mileage")
	}
	if len(missing) > 0 {
		return Reject(ErrValidation, ReasonMissingFields, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if c.Year <= 1885 || c.Year > time.Now().Year()+1 {
		return Reject(ErrValidation, ReasonInvalidField, "year %d is out of range", c.Year)
	}
	if c.RentRate <= 0 {
		return Reject(ErrValidation, ReasonInvalidField, "rent rate must be positive")
	}
	if c.BodyType != BodyTypeSedan && c.BodyType != BodyTypeSUV {
		return Reject(ErrValidation, ReasonInvalidField, "body type %q is not supported", c.BodyType)
	}
	if c.Transmission != TransmissionAutomatic && c.Transmission != TransmissionManual {
		return Reject(ErrValidation, ReasonInvalidField, "transmission %q is not supported", c.Transmission)
	}
	return nil
}

// CarUpdate lists the attributes an owner may change. Nil fields are left as is.
type CarUpdate struct {
	Brand        *string       `json:"car_brand,omitempty"`
	Model        *string       `json:"car_model,omitempty"`
	Color        *string       `json:"color,omitempty"`
	Year         *int          `json:"year,omitempty"`
	EngineType   *string       `json:"engine_type,omitempty"`
	BodyType     *BodyType     `json:"body_type,omitempty"`
	Transmission *Transmission `json:"transmission,omitempty"`
	Mileage      *string       `json:"mileage,omitempty"`
	RentRate     *int64        `json:"rent_rate,omitempty"`
	Images       []string      `json:"images,omitempty"`
}

// Apply copies the set fields onto car.
func (u CarUpdate) Apply(car *Car) {
	if u.Brand != nil {
		car.Brand = *u.Brand
	}
	if u.Model != nil {
		car.Model = *u.Model
	}
	if u.Color != nil {
		car.Color = *u.Color
	}
	if u.Year != nil {
		car.Year = *u.Year
	}
	if u.EngineType != nil {
		car.EngineType = *u.EngineType
	}
	if u.BodyType != nil {
		car.BodyType = *u.BodyType
	}
	if u.Transmission != nil {
		car.Transmission = *u.Transmission
	}
	if u.Mileage != nil {
		car.Mileage = *u.Mileage
	}
	if u.RentRate != nil {
		car.RentRate = *u.RentRate
	}
	if u.Images != nil {
		car.Images = u.Images
	}
}
