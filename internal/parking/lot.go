package parking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type LotOption func(*LotService)

// WithClock replaces time.Now as the source of entry and exit times.
func WithClock(now func() time.Time) LotOption {
	return func(l *LotService) {
		l.now = now
	}
}

// WithCardRate sets the hourly rate paid by a handicapped vehicle with a
// card parked in a handicapped spot. The default is free.
func WithCardRate(rate float64) LotOption {
	return func(l *LotService) {
		l.pricing.CardRate = rate
	}
}

// LotService owns spot occupancy, the active tickets keyed by plate, closed
// ticket history and the fine ledger. Every mutation holds the write lock
// for its whole duration so a rejected call never leaves partial state.
type LotService struct {
	mu      sync.RWMutex
	catalog *SpotCatalog
	pricing Pricing
	policy  FinePolicy
	active  map[string]*Ticket
	history []*Ticket
	fines   []*Fine
	now     func() time.Time
}

func NewLotService(catalog *SpotCatalog, policy FinePolicy, opts ...LotOption) *LotService {
	l := &LotService{
		catalog: catalog,
		pricing: Pricing{Rates: catalog.rates},
		policy:  policy,
		active:  make(map[string]*Ticket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LotService) Park(v Vehicle) (*Ticket, error) {
	if err := l.normalize(&v); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.active[v.Plate]; ok {
		return nil, fmt.Errorf("plate %s: %w", v.Plate, ErrAlreadyParked)
	}

	for _, spot := range l.catalog.All() {
		if !spot.Occupied && Eligible(v, spot.Category) {
			return l.assign(v, spot), nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", v.Category, v.Plate, ErrNoSpotAvailable)
}

// ParkAt parks v in a chosen spot instead of the first eligible one.
func (l *LotService) ParkAt(v Vehicle, spotID string) (*Ticket, error) {
	if err := l.normalize(&v); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.active[v.Plate]; ok {
		return nil, fmt.Errorf("plate %s: %w", v.Plate, ErrAlreadyParked)
	}

	spot, err := l.catalog.Find(spotID)
	if err != nil {
		return nil, err
	}
	if spot.Occupied {
		return nil, fmt.Errorf("spot %s is occupied: %w", spot.ID, ErrNoSpotAvailable)
	}
	if !Eligible(v, spot.Category) {
		return nil, fmt.Errorf("spot %s (%s) not eligible for %s: %w", spot.ID, spot.Category, v.Category, ErrNoSpotAvailable)
	}
	return l.assign(v, spot), nil
}

// AvailableSpots lists the free spots v may take, in search order.
func (l *LotService) AvailableSpots(v Vehicle) ([]Spot, error) {
	if err := l.normalize(&v); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var spots []Spot
	for _, spot := range l.catalog.Filter(func(s *Spot) bool {
		return !s.Occupied && Eligible(v, s.Category)
	}) {
		spots = append(spots, *spot)
	}
	return spots, nil
}

func (l *LotService) normalize(v *Vehicle) error {
	plate, err := ValidatePlate(v.Plate)
	if err != nil {
		return err
	}
	if !v.Category.Valid() {
		return fmt.Errorf("%w: missing or unknown vehicle category", ErrInvalidInput)
	}
	// Entry may not be later than the lot clock.
	if now := l.now(); v.EntryTime.After(now) {
		return fmt.Errorf("%w: entry %s is after now %s", ErrInvalidInput,
			v.EntryTime.Format(time.DateTime), now.Format(time.DateTime))
	}
	v.Plate = plate
	return nil
}

// assign must be called with the write lock held.
func (l *LotService) assign(v Vehicle, spot *Spot) *Ticket {
	if v.EntryTime.IsZero() {
		v.EntryTime = l.now()
	}
	spot.Park(v.Plate)

	ticket := &Ticket{
		ID:           uuid.New().String(),
		Vehicle:      v,
		SpotID:       spot.ID,
		SpotCategory: spot.Category,
		EntryTime:    v.EntryTime,
	}
	l.active[v.Plate] = ticket
	return ticket.clone()
}

func (l *LotService) Exit(plate string) (*ExitResult, error) {
	p, err := ValidatePlate(plate)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ticket, ok := l.active[p]
	if !ok {
		return nil, fmt.Errorf("plate %s: %w", p, ErrNotParked)
	}
	spot, err := l.catalog.Find(ticket.SpotID)
	if err != nil {
		return nil, err
	}

	exitTime := l.now()
	hours, err := HoursStayed(ticket.EntryTime, exitTime)
	if err != nil {
		return nil, err
	}

	result := &ExitResult{
		HoursStayed: hours,
		HourlyRate:  l.pricing.HourlyRate(ticket.Vehicle, spot.Category),
		Fee:         l.pricing.Fee(ticket.Vehicle, spot.Category, hours),
	}

	if amount := l.policy.Calculate(hours); amount > 0 {
		fine := &Fine{
			ID:       uuid.New().String(),
			Plate:    p,
			Amount:   amount,
			Reason:   l.policy.Reason(hours),
			IssuedAt: exitTime,
		}
		l.fines = append(l.fines, fine)
		f := *fine
		result.Fine = &f
	}

	spot.Leave()
	ticket.ExitTime = &exitTime
	delete(l.active, p)
	l.history = append(l.history, ticket)

	result.Ticket = ticket.clone()
	return result, nil
}

func (l *LotService) SetFineStrategy(kind FineKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown fine strategy %v", ErrInvalidInput, kind)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.policy.Kind = kind
	return nil
}

func (l *LotService) FineStrategy() FinePolicy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy
}

func (l *LotService) Ticket(plate string) (*Ticket, error) {
	p, err := ValidatePlate(plate)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ticket, ok := l.active[p]
	if !ok {
		return nil, fmt.Errorf("plate %s: %w", p, ErrNotParked)
	}
	return ticket.clone(), nil
}

func (l *LotService) IsParked(plate string) bool {
	_, err := l.Ticket(plate)
	return err == nil
}

func (l *LotService) Spot(id string) (Spot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spot, err := l.catalog.Find(id)
	if err != nil {
		return Spot{}, err
	}
	return *spot, nil
}

func (l *LotService) Capacity() int {
	return l.catalog.Len()
}

// Rate is the base hourly rate of a spot category.
func (l *LotService) Rate(category SpotCategory) float64 {
	return l.catalog.Rate(category)
}

// quoteInputs is what billing needs to price an active stay without
// closing it.
type quoteInputs struct {
	ticket     *Ticket
	now        time.Time
	rate       float64
	policy     FinePolicy
	unpaidFine float64
}

func (l *LotService) quoteInputs(plate string) (*quoteInputs, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ticket, ok := l.active[plate]
	if !ok {
		return nil, fmt.Errorf("plate %s: %w", plate, ErrNotParked)
	}
	return &quoteInputs{
		ticket:     ticket.clone(),
		now:        l.now(),
		rate:       l.pricing.HourlyRate(ticket.Vehicle, ticket.SpotCategory),
		policy:     l.policy,
		unpaidFine: l.unpaidFinesLocked(plate),
	}, nil
}

func (l *LotService) unpaidFinesLocked(plate string) float64 {
	var total float64
	for _, f := range l.fines {
		if f.Plate == plate && !f.Paid {
			total += f.Amount
		}
	}
	return total
}

// markFinePaid flips the fine to paid and reports whether this call did it.
func (l *LotService) markFinePaid(id, plate string) (*Fine, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range l.fines {
		if f.ID != id {
			continue
		}
		if f.Plate != plate {
			return nil, false, fmt.Errorf("%w: fine %s belongs to %s, not %s", ErrInvalidInput, id, f.Plate, plate)
		}
		if f.Paid {
			c := *f
			return &c, false, nil
		}
		f.Paid = true
		c := *f
		return &c, true, nil
	}
	return nil, false, fmt.Errorf("fine %s: %w", id, ErrNotFound)
}

// markPlateFinesPaid pays every unpaid fine of plate and returns them.
func (l *LotService) markPlateFinesPaid(plate string) []Fine {
	l.mu.Lock()
	defer l.mu.Unlock()

	var paid []Fine
	for _, f := range l.fines {
		if f.Plate == plate && !f.Paid {
			f.Paid = true
			paid = append(paid, *f)
		}
	}
	return paid
}

func (l *LotService) Fine(id string) (Fine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.fines {
		if f.ID == id {
			return *f, nil
		}
	}
	return Fine{}, fmt.Errorf("fine %s: %w", id, ErrNotFound)
}

// lotSnapshot is a consistent copy of the lot for read-only projections.
type lotSnapshot struct {
	taken   time.Time
	floors  []int
	spots   []Spot
	rates   Rates
	active  []Ticket
	history []Ticket
	fines   []Fine
	policy  FinePolicy
}

func (l *LotService) snapshot() lotSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := lotSnapshot{
		taken:  l.now(),
		floors: append([]int(nil), l.catalog.Floors()...),
		rates:  l.pricing.Rates,
		policy: l.policy,
	}
	for _, spot := range l.catalog.All() {
		s.spots = append(s.spots, *spot)
	}
	for _, t := range l.active {
		s.active = append(s.active, *t.clone())
	}
	sort.Slice(s.active, func(i, j int) bool {
		return s.active[i].Plate() < s.active[j].Plate()
	})
	for _, t := range l.history {
		s.history = append(s.history, *t.clone())
	}
	for _, f := range l.fines {
		s.fines = append(s.fines, *f)
	}
	return s
}
