package parking

import (
	"fmt"
	"strings"
	"time"
)

// OverstayThresholdHours is the longest stay that is never fined.
const OverstayThresholdHours = 24

type FineKind int

const (
	FineFixed FineKind = iota + 1
	FineProgressive
	FineHourly
)

var fineKindNames = map[FineKind]string{
	FineFixed:       "fixed",
	FineProgressive: "progressive",
	FineHourly:      "hourly",
}

func (k FineKind) String() string {
	if name, ok := fineKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FineKind(%d)", int(k))
}

func (k FineKind) Valid() bool {
	_, ok := fineKindNames[k]
	return ok
}

func ParseFineKind(s string) (FineKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range fineKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown fine strategy %q", ErrInvalidInput, s)
}

// FineAmounts holds the numbers behind every fine kind so the active kind
// can be switched without losing them.
type FineAmounts struct {
	Fixed           float64
	ProgressiveBase float64
	ProgressiveStep float64
	HourlyRate      float64
}

func DefaultFineAmounts() FineAmounts {
	return FineAmounts{
		Fixed:           50,
		ProgressiveBase: 20,
		ProgressiveStep: 5,
		HourlyRate:      10,
	}
}

type FinePolicy struct {
	Kind    FineKind
	Amounts FineAmounts
}

func NewFinePolicy(kind FineKind, amounts FineAmounts) FinePolicy {
	return FinePolicy{Kind: kind, Amounts: amounts}
}

// Calculate returns the penalty for a stay of hours whole hours.
func (p FinePolicy) Calculate(hours int64) float64 {
	if hours <= OverstayThresholdHours {
		return 0
	}
	overdue := float64(hours - OverstayThresholdHours)

	switch p.Kind {
	case FineFixed:
		return p.Amounts.Fixed
	case FineProgressive:
		return p.Amounts.ProgressiveBase + p.Amounts.ProgressiveStep*overdue
	case FineHourly:
		return p.Amounts.HourlyRate * overdue
	}
	return 0
}

func (p FinePolicy) Reason(hours int64) string {
	return fmt.Sprintf("overstay: %dh parked, %dh over the %dh limit (%s)",
		hours, hours-OverstayThresholdHours, OverstayThresholdHours, p.Kind)
}

type Fine struct {
	ID       string
	Plate    string
	Amount   float64
	Reason   string
	IssuedAt time.Time
	Paid     bool
}
