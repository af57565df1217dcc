package parking

import "time"

// Ticket records one continuous occupancy of a spot by a vehicle.
// ExitTime is nil while the ticket is active.
type Ticket struct {
	ID           string
	Vehicle      Vehicle
	SpotID       string
	SpotCategory SpotCategory
	EntryTime    time.Time
	ExitTime     *time.Time
}

func (t *Ticket) Active() bool {
	return t.ExitTime == nil
}

func (t *Ticket) Plate() string {
	return t.Vehicle.Plate
}

func (t *Ticket) clone() *Ticket {
	c := *t
	if t.ExitTime != nil {
		exit := *t.ExitTime
		c.ExitTime = &exit
	}
	return &c
}

// ExitResult bundles everything an exit produced. Fine is nil when the stay
// was not fined.
type ExitResult struct {
	Ticket      *Ticket
	HoursStayed int64
	HourlyRate  float64
	Fee         float64
	Fine        *Fine
}

func (r *ExitResult) FineAmount() float64 {
	if r.Fine == nil {
		return 0
	}
	return r.Fine.Amount
}

func (r *ExitResult) TotalDue() float64 {
	return r.Fee + r.FineAmount()
}
