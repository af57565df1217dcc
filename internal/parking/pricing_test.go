package parking

import (
	"errors"
	"testing"
	"time"
)

func TestHoursStayed(t *testing.T) {
	entry := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		stay time.Duration
		want int64
	}{
		{0, 1},
		{30 * time.Minute, 1},
		{time.Hour, 1},
		{61 * time.Minute, 2},
		{180 * time.Minute, 3},
		{24*time.Hour + time.Second, 25},
	}

	for _, tt := range tests {
		got, err := HoursStayed(entry, entry.Add(tt.stay))
		if err != nil {
			t.Errorf("HoursStayed(%s) unexpected error: %s", tt.stay, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HoursStayed(%s) = %d, want %d", tt.stay, got, tt.want)
		}
	}

	if _, err := HoursStayed(entry, entry.Add(-time.Minute)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for exit before entry, got %v", err)
	}
}

func TestPricingFee(t *testing.T) {
	p := Pricing{Rates: DefaultRates()}

	if fee := p.Fee(Vehicle{Category: Car}, Regular, 3); fee != 15 {
		t.Errorf("Expected car in regular for 3h to pay 15, got %.2f", fee)
	}
	if fee := p.Fee(Vehicle{Category: Motorcycle}, Compact, 2); fee != 4 {
		t.Errorf("Expected motorcycle in compact for 2h to pay 4, got %.2f", fee)
	}
	if fee := p.Fee(Vehicle{Category: Car, Reservation: true}, Reserved, 1); fee != 10 {
		t.Errorf("Expected reserved spot to pay 10, got %.2f", fee)
	}
}

func TestPricingCardRate(t *testing.T) {
	card := Vehicle{Category: HandicappedVehicle, HandicappedCard: true}
	noCard := Vehicle{Category: HandicappedVehicle}

	free := Pricing{Rates: DefaultRates()}
	if fee := free.Fee(card, Handicapped, 5); fee != 0 {
		t.Errorf("Expected card holder to park free, got %.2f", fee)
	}
	if fee := free.Fee(noCard, Handicapped, 5); fee != 10 {
		t.Errorf("Expected handicapped rate without card 10, got %.2f", fee)
	}
	if fee := free.Fee(card, Regular, 2); fee != 10 {
		t.Errorf("Expected card holder in regular spot to pay regular rate, got %.2f", fee)
	}

	discounted := Pricing{Rates: DefaultRates(), CardRate: 1}
	if rate := discounted.HourlyRate(card, Handicapped); rate != 1 {
		t.Errorf("Expected card rate 1, got %.2f", rate)
	}
}

func TestLotCardRateOption(t *testing.T) {
	catalog, _ := NewSpotCatalog(smallLayout(), nil)
	clock := newFakeClock()
	lot := NewLotService(catalog, NewFinePolicy(FineFixed, DefaultFineAmounts()), WithClock(clock.Now), WithCardRate(0.5))

	if _, err := lot.ParkAt(Vehicle{Plate: "HCARD1", Category: HandicappedVehicle, HandicappedCard: true}, "F1-R2-S01"); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	lot.Park(Vehicle{Plate: "HCARD2", Category: HandicappedVehicle, HandicappedCard: true})
	clock.Advance(4 * time.Hour)

	result, err := lot.Exit("HCARD1")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if result.Fee != 2 {
		t.Errorf("Expected card rate 0.5 for 4h, got %.2f", result.Fee)
	}

	other, _ := lot.Exit("HCARD2")
	if other.Ticket.SpotCategory != Compact || other.Fee != 8 {
		t.Errorf("Expected compact rate outside handicapped spots, got %s %.2f", other.Ticket.SpotCategory, other.Fee)
	}
}
