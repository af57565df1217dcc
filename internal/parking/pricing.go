package parking

import (
	"fmt"
	"time"
)

// HoursStayed rounds elapsed time up to whole hours, never below one.
func HoursStayed(entry, exit time.Time) (int64, error) {
	if exit.Before(entry) {
		return 0, fmt.Errorf("%w: exit %s before entry %s", ErrInvalidInput, exit, entry)
	}
	elapsed := exit.Sub(entry)
	hours := int64(elapsed / time.Hour)
	if elapsed%time.Hour > 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours, nil
}

// Pricing turns a stay into a parking fee.
type Pricing struct {
	Rates Rates
	// CardRate is the hourly rate for a handicapped vehicle holding a card
	// and parked in a handicapped spot.
	CardRate float64
}

func (p Pricing) HourlyRate(v Vehicle, category SpotCategory) float64 {
	if v.Category == HandicappedVehicle && v.HandicappedCard && category == Handicapped {
		return p.CardRate
	}
	return p.Rates[category]
}

func (p Pricing) Fee(v Vehicle, category SpotCategory, hours int64) float64 {
	return p.HourlyRate(v, category) * float64(hours)
}
