package parking

import "fmt"

// Layout describes the static shape of a lot: every floor repeats the same
// rows, and each row lists the category of its spots in order.
type Layout struct {
	Floors int
	Rows   [][]SpotCategory
}

// DefaultLayout is four rows of ten spots per floor.
func DefaultLayout(floors int) Layout {
	rows := make([][]SpotCategory, 4)
	for r := range rows {
		rows[r] = make([]SpotCategory, 10)
		for i := range rows[r] {
			rows[r][i] = defaultSpotCategory(r+1, i+1)
		}
	}
	return Layout{Floors: floors, Rows: rows}
}

func defaultSpotCategory(row, index int) SpotCategory {
	switch row {
	case 1:
		if index <= 5 {
			return Compact
		}
		return Regular
	case 2:
		if index <= 8 {
			return Regular
		}
		return Handicapped
	case 3:
		if index <= 4 {
			return Reserved
		}
		return Regular
	default:
		return Regular
	}
}

func (l Layout) Validate() error {
	if l.Floors <= 0 {
		return fmt.Errorf("%w: floors must be greater than 0", ErrInvalidInput)
	}
	if len(l.Rows) == 0 {
		return fmt.Errorf("%w: layout has no rows", ErrInvalidInput)
	}
	for r, row := range l.Rows {
		for i, c := range row {
			if !c.Valid() {
				return fmt.Errorf("%w: row %d spot %d has category %v", ErrInvalidInput, r+1, i+1, c)
			}
		}
	}
	return nil
}

// SpotCatalog is the fixed inventory of spots, ordered floor, row, index.
// It stores the occupancy fields but never changes them; the LotService does.
type SpotCatalog struct {
	spots  []*Spot
	byID   map[string]*Spot
	floors []int
	rates  Rates
}

func NewSpotCatalog(layout Layout, rates Rates) (*SpotCatalog, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if rates == nil {
		rates = DefaultRates()
	}

	c := &SpotCatalog{
		byID:  make(map[string]*Spot),
		rates: rates,
	}
	for f := 1; f <= layout.Floors; f++ {
		c.floors = append(c.floors, f)
		for r, row := range layout.Rows {
			for i, category := range row {
				spot := NewSpot(f, r+1, i+1, category)
				c.spots = append(c.spots, spot)
				c.byID[spot.ID] = spot
			}
		}
	}
	return c, nil
}

func (c *SpotCatalog) All() []*Spot {
	return c.spots
}

func (c *SpotCatalog) Floors() []int {
	return c.floors
}

func (c *SpotCatalog) Find(id string) (*Spot, error) {
	spot, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", id, ErrNotFound)
	}
	return spot, nil
}

func (c *SpotCatalog) Filter(pred func(*Spot) bool) []*Spot {
	var matched []*Spot
	for _, spot := range c.spots {
		if pred(spot) {
			matched = append(matched, spot)
		}
	}
	return matched
}

func (c *SpotCatalog) Rate(category SpotCategory) float64 {
	return c.rates[category]
}

func (c *SpotCatalog) Len() int {
	return len(c.spots)
}
