package parking

import (
	"fmt"
	"strings"
)

type SpotCategory int

const (
	Compact SpotCategory = iota + 1
	Regular
	Handicapped
	Reserved
)

var spotCategoryNames = map[SpotCategory]string{
	Compact:     "COMPACT",
	Regular:     "REGULAR",
	Handicapped: "HANDICAPPED",
	Reserved:    "RESERVED",
}

func (c SpotCategory) String() string {
	if name, ok := spotCategoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("SpotCategory(%d)", int(c))
}

func (c SpotCategory) Valid() bool {
	_, ok := spotCategoryNames[c]
	return ok
}

func ParseSpotCategory(s string) (SpotCategory, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for c, n := range spotCategoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown spot category %q", ErrInvalidInput, s)
}

// Rates maps a spot category to its base hourly rate.
type Rates map[SpotCategory]float64

func DefaultRates() Rates {
	return Rates{
		Compact:     2,
		Regular:     5,
		Handicapped: 2,
		Reserved:    10,
	}
}

type Spot struct {
	ID       string
	Floor    int
	Row      int
	Index    int
	Category SpotCategory
	Occupied bool
	Plate    string
}

func SpotID(floor, row, index int) string {
	return fmt.Sprintf("F%d-R%d-S%02d", floor, row, index)
}

func NewSpot(floor, row, index int, category SpotCategory) *Spot {
	return &Spot{
		ID:       SpotID(floor, row, index),
		Floor:    floor,
		Row:      row,
		Index:    index,
		Category: category,
	}
}

func (s *Spot) Park(plate string) {
	s.Plate = plate
	s.Occupied = true
}

func (s *Spot) Leave() string {
	plate := s.Plate
	s.Plate = ""
	s.Occupied = false
	return plate
}
