package parking

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// smallLayout is one floor: compact, regular / handicapped, reserved.
func smallLayout() Layout {
	return Layout{
		Floors: 1,
		Rows: [][]SpotCategory{
			{Compact, Regular},
			{Handicapped, Reserved},
		},
	}
}

func newTestLot(t *testing.T, layout Layout, kind FineKind) (*LotService, *fakeClock) {
	t.Helper()

	catalog, err := NewSpotCatalog(layout, DefaultRates())
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	clock := newFakeClock()
	lot := NewLotService(catalog, NewFinePolicy(kind, DefaultFineAmounts()), WithClock(clock.Now))
	return lot, clock
}

// checkConsistency asserts the spot/ticket index invariants.
func checkConsistency(t *testing.T, lot *LotService) {
	t.Helper()

	snap := lot.snapshot()
	byPlate := make(map[string]Ticket, len(snap.active))
	for _, ticket := range snap.active {
		if _, dup := byPlate[ticket.Plate()]; dup {
			t.Errorf("Plate %s has more than one active ticket", ticket.Plate())
		}
		byPlate[ticket.Plate()] = ticket
	}

	occupied := 0
	for _, spot := range snap.spots {
		if spot.Occupied != (spot.Plate != "") {
			t.Errorf("Spot %s occupied=%v but plate=%q", spot.ID, spot.Occupied, spot.Plate)
		}
		if !spot.Occupied {
			continue
		}
		occupied++
		ticket, ok := byPlate[spot.Plate]
		if !ok {
			t.Errorf("Spot %s holds %s which has no active ticket", spot.ID, spot.Plate)
			continue
		}
		if ticket.SpotID != spot.ID {
			t.Errorf("Ticket for %s points at %s, spot %s holds it", spot.Plate, ticket.SpotID, spot.ID)
		}
	}

	if occupied != len(byPlate) {
		t.Errorf("Expected %d occupied spots for %d active tickets", occupied, len(byPlate))
	}
}
