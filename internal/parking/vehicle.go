package parking

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

type VehicleCategory int

const (
	Motorcycle VehicleCategory = iota + 1
	Car
	SUV
	HandicappedVehicle
)

var vehicleCategoryNames = map[VehicleCategory]string{
	Motorcycle:         "MOTORCYCLE",
	Car:                "CAR",
	SUV:                "SUV",
	HandicappedVehicle: "HANDICAPPED",
}

func (c VehicleCategory) String() string {
	if name, ok := vehicleCategoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("VehicleCategory(%d)", int(c))
}

func (c VehicleCategory) Valid() bool {
	_, ok := vehicleCategoryNames[c]
	return ok
}

func ParseVehicleCategory(s string) (VehicleCategory, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for c, n := range vehicleCategoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, s)
}

type Vehicle struct {
	Plate           string
	Category        VehicleCategory
	Reservation     bool
	HandicappedCard bool
	EntryTime       time.Time
}

func NewVehicle(plate string, category VehicleCategory) *Vehicle {
	return &Vehicle{
		Plate:    NormalizePlate(plate),
		Category: category,
	}
}

func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ValidatePlate normalizes plate and checks it is 3-10 ASCII letters or digits.
func ValidatePlate(plate string) (string, error) {
	p := NormalizePlate(plate)
	if len(p) < 3 || len(p) > 10 {
		return "", fmt.Errorf("%w: plate %q must be 3-10 characters", ErrInvalidInput, plate)
	}
	for _, r := range p {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", fmt.Errorf("%w: plate %q must be alphanumeric", ErrInvalidInput, plate)
		}
	}
	return p, nil
}

// Eligible reports whether v may occupy a spot of the given category.
// Reserved spots need a reservation regardless of vehicle category.
func Eligible(v Vehicle, category SpotCategory) bool {
	if category == Reserved {
		return v.Reservation
	}

	switch v.Category {
	case Motorcycle:
		return category == Compact
	case Car:
		return category == Compact || category == Regular
	case SUV:
		return category == Regular
	case HandicappedVehicle:
		return category == Handicapped || v.HandicappedCard
	}
	return false
}
