package parking

import "sort"

type SpotRow struct {
	ID       string
	Floor    int
	Row      int
	Index    int
	Category SpotCategory
	Rate     float64
	Occupied bool
	Plate    string
}

type Occupancy struct {
	Occupied   int
	Total      int
	Percentage float64
}

func newOccupancy(occupied, total int) Occupancy {
	o := Occupancy{Occupied: occupied, Total: total}
	if total > 0 {
		o.Percentage = float64(occupied) * 100 / float64(total)
	}
	return o
}

type FloorOccupancy struct {
	Floor int
	Occupancy
}

type OccupancySummary struct {
	Floors  []FloorOccupancy
	Overall Occupancy
}

type RevenueSummary struct {
	Fees  float64
	Fines float64
	Total float64
}

// Overstay is an active ticket already past the overstay threshold.
type Overstay struct {
	Ticket        Ticket
	HoursStayed   int64
	ProjectedFine float64
}

// ReportingService builds read-only projections. Each call works on a fresh
// snapshot of the lot, so results are internally consistent.
type ReportingService struct {
	lot     *LotService
	billing *BillingService
}

func NewReportingService(lot *LotService, billing *BillingService) *ReportingService {
	return &ReportingService{lot: lot, billing: billing}
}

func (r *ReportingService) Spots() []SpotRow {
	snap := r.lot.snapshot()
	rows := make([]SpotRow, 0, len(snap.spots))
	for _, s := range snap.spots {
		rows = append(rows, SpotRow{
			ID:       s.ID,
			Floor:    s.Floor,
			Row:      s.Row,
			Index:    s.Index,
			Category: s.Category,
			Rate:     snap.rates[s.Category],
			Occupied: s.Occupied,
			Plate:    s.Plate,
		})
	}
	return rows
}

func (r *ReportingService) Occupancy() OccupancySummary {
	snap := r.lot.snapshot()

	type counts struct{ occupied, total int }
	perFloor := make(map[int]*counts, len(snap.floors))
	for _, f := range snap.floors {
		perFloor[f] = &counts{}
	}

	var occupied int
	for _, s := range snap.spots {
		c := perFloor[s.Floor]
		c.total++
		if s.Occupied {
			c.occupied++
			occupied++
		}
	}

	summary := OccupancySummary{Overall: newOccupancy(occupied, len(snap.spots))}
	for _, f := range snap.floors {
		c := perFloor[f]
		summary.Floors = append(summary.Floors, FloorOccupancy{
			Floor:     f,
			Occupancy: newOccupancy(c.occupied, c.total),
		})
	}
	return summary
}

func (r *ReportingService) Revenue() RevenueSummary {
	fees, fines := r.billing.totals()
	return RevenueSummary{
		Fees:  fees,
		Fines: fines,
		Total: fees + fines,
	}
}

// OutstandingFines lists unpaid fines, oldest first.
func (r *ReportingService) OutstandingFines() []Fine {
	snap := r.lot.snapshot()
	var unpaid []Fine
	for _, f := range snap.fines {
		if !f.Paid {
			unpaid = append(unpaid, f)
		}
	}
	sort.SliceStable(unpaid, func(i, j int) bool {
		return unpaid[i].IssuedAt.Before(unpaid[j].IssuedAt)
	})
	return unpaid
}

// Parked lists the active tickets sorted by plate.
func (r *ReportingService) Parked() []Ticket {
	return r.lot.snapshot().active
}

// History lists closed tickets in the order they were closed.
func (r *ReportingService) History() []Ticket {
	return r.lot.snapshot().history
}

func (r *ReportingService) Overstays() []Overstay {
	snap := r.lot.snapshot()
	var overstays []Overstay
	for _, t := range snap.active {
		hours, err := HoursStayed(t.EntryTime, snap.taken)
		if err != nil || hours <= OverstayThresholdHours {
			continue
		}
		overstays = append(overstays, Overstay{
			Ticket:        t,
			HoursStayed:   hours,
			ProjectedFine: snap.policy.Calculate(hours),
		})
	}
	return overstays
}
