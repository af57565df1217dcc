package parking

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	Cash PaymentMethod = "CASH"
	Card PaymentMethod = "CARD"
)

// ParsePaymentMethod accepts "cash" or "card" in any case; empty means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return Cash, nil
	case Cash, Card:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, s)
}

type Payment struct {
	ID     string
	Plate  string
	Fee    float64
	Fine   float64
	Total  float64
	Method PaymentMethod
	PaidAt time.Time
}

// Quote previews what a parked vehicle would owe if it left now.
type Quote struct {
	Ticket           *Ticket
	HoursStayed      int64
	HourlyRate       float64
	Fee              float64
	OutstandingFines float64
	ProjectedFine    float64
	TotalDue         float64
}

// BillingService prices stays and keeps the payment ledger. Fines live in the
// lot's ledger; only Settle and PayOutstandingFines mark them paid.
type BillingService struct {
	mu       sync.Mutex
	lot      *LotService
	payments []*Payment
}

func NewBillingService(lot *LotService) *BillingService {
	return &BillingService{lot: lot}
}

func (b *BillingService) Quote(plate string) (*Quote, error) {
	p, err := ValidatePlate(plate)
	if err != nil {
		return nil, err
	}

	in, err := b.lot.quoteInputs(p)
	if err != nil {
		return nil, err
	}

	hours, err := HoursStayed(in.ticket.EntryTime, in.now)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Ticket:           in.ticket,
		HoursStayed:      hours,
		HourlyRate:       in.rate,
		Fee:              in.rate * float64(hours),
		OutstandingFines: in.unpaidFine,
		ProjectedFine:    in.policy.Calculate(hours),
	}
	q.TotalDue = q.Fee + q.OutstandingFines + q.ProjectedFine
	return q, nil
}

// Settle records the payment for one exit. The fee is always recorded. A nil
// fine defers it; a fine that is already paid contributes nothing, so
// settling twice never counts the same fine twice.
func (b *BillingService) Settle(plate string, fee float64, fine *Fine, method PaymentMethod) (*Payment, error) {
	p, err := ValidatePlate(plate)
	if err != nil {
		return nil, err
	}
	if fee < 0 {
		return nil, fmt.Errorf("%w: fee %.2f is negative", ErrInvalidInput, fee)
	}
	if method == "" {
		method = Cash
	}
	if method != Cash && method != Card {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var finePortion float64
	if fine != nil {
		paid, paidNow, err := b.lot.markFinePaid(fine.ID, p)
		if err != nil {
			return nil, err
		}
		if paidNow {
			finePortion = paid.Amount
		}
	}

	return b.record(p, fee, finePortion, method), nil
}

// PayOutstandingFines settles every deferred fine of plate in one payment.
func (b *BillingService) PayOutstandingFines(plate string, method PaymentMethod) (*Payment, []Fine, error) {
	p, err := ValidatePlate(plate)
	if err != nil {
		return nil, nil, err
	}
	if method == "" {
		method = Cash
	}
	if method != Cash && method != Card {
		return nil, nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	paid := b.lot.markPlateFinesPaid(p)
	if len(paid) == 0 {
		return nil, nil, fmt.Errorf("outstanding fines for %s: %w", p, ErrNotFound)
	}

	var total float64
	for _, f := range paid {
		total += f.Amount
	}
	return b.record(p, 0, total, method), paid, nil
}

// record must be called with b.mu held.
func (b *BillingService) record(plate string, fee, fine float64, method PaymentMethod) *Payment {
	payment := &Payment{
		ID:     uuid.New().String(),
		Plate:  plate,
		Fee:    fee,
		Fine:   fine,
		Total:  fee + fine,
		Method: method,
		PaidAt: b.lot.now(),
	}
	b.payments = append(b.payments, payment)
	c := *payment
	return &c
}

// Change returns what to hand back for a cash payment of tendered.
func Change(totalDue, tendered float64) (float64, error) {
	if tendered < totalDue {
		return 0, fmt.Errorf("%w: paid %.2f but %.2f is due", ErrInvalidInput, tendered, totalDue)
	}
	return tendered - totalDue, nil
}

func (b *BillingService) Payments() []Payment {
	b.mu.Lock()
	defer b.mu.Unlock()

	payments := make([]Payment, 0, len(b.payments))
	for _, p := range b.payments {
		payments = append(payments, *p)
	}
	return payments
}

func (b *BillingService) FeeRevenue() float64 {
	fees, _ := b.totals()
	return fees
}

func (b *BillingService) FineRevenue() float64 {
	_, fines := b.totals()
	return fines
}

func (b *BillingService) TotalRevenue() float64 {
	fees, fines := b.totals()
	return fees + fines
}

func (b *BillingService) totals() (fees, fines float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.payments {
		fees += p.Fee
		fines += p.Fine
	}
	return fees, fines
}
