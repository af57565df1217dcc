package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regularLayout() Layout {
	return Layout{Floors: 1, Rows: [][]SpotCategory{{Regular, Regular, Regular}}}
}

func newTestBilling(t *testing.T, kind FineKind) (*LotService, *BillingService, *fakeClock) {
	t.Helper()
	lot, clock := newTestLot(t, regularLayout(), kind)
	return lot, NewBillingService(lot), clock
}

func TestSettleFeeOnly(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	_, err := lot.Park(Vehicle{Plate: "CAR123", Category: Car})
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)

	result, err := lot.Exit("CAR123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.HoursStayed)
	assert.Equal(t, 15.0, result.Fee)
	assert.Nil(t, result.Fine)
	assert.Equal(t, 15.0, result.TotalDue())

	payment, err := billing.Settle("CAR123", result.Fee, result.Fine, Cash)
	require.NoError(t, err)
	assert.Equal(t, 15.0, payment.Total)
	assert.Equal(t, Cash, payment.Method)
	assert.Equal(t, clock.Now(), payment.PaidAt)
	assert.NotEmpty(t, payment.ID)

	assert.Equal(t, 15.0, billing.FeeRevenue())
	assert.Equal(t, 0.0, billing.FineRevenue())
	assert.Equal(t, 15.0, billing.TotalRevenue())
}

func TestSettleWithFine(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineProgressive)

	_, err := lot.Park(Vehicle{Plate: "LATE01", Category: Car})
	require.NoError(t, err)
	clock.Advance(26 * time.Hour)

	result, err := lot.Exit("LATE01")
	require.NoError(t, err)
	require.NotNil(t, result.Fine)
	assert.Equal(t, 30.0, result.Fine.Amount)
	assert.Equal(t, 130.0, result.Fee)
	assert.Equal(t, 160.0, result.TotalDue())

	stored, err := lot.Fine(result.Fine.ID)
	require.NoError(t, err)
	assert.False(t, stored.Paid, "fine stays unpaid until settled")

	payment, err := billing.Settle("LATE01", result.Fee, result.Fine, Card)
	require.NoError(t, err)
	assert.Equal(t, 130.0, payment.Fee)
	assert.Equal(t, 30.0, payment.Fine)
	assert.Equal(t, 160.0, payment.Total)

	stored, err = lot.Fine(result.Fine.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.Equal(t, 30.0, billing.FineRevenue())
}

func TestSettleFineOnlyCountedOnce(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	lot.Park(Vehicle{Plate: "TWICE1", Category: Car})
	clock.Advance(25 * time.Hour)
	result, err := lot.Exit("TWICE1")
	require.NoError(t, err)

	_, err = billing.Settle("TWICE1", result.Fee, result.Fine, Cash)
	require.NoError(t, err)
	second, err := billing.Settle("TWICE1", 0, result.Fine, Cash)
	require.NoError(t, err)

	assert.Equal(t, 0.0, second.Fine)
	assert.Equal(t, 50.0, billing.FineRevenue())
	assert.Len(t, billing.Payments(), 2)
}

func TestSettleDeferredFine(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	lot.Park(Vehicle{Plate: "DEFER1", Category: SUV})
	clock.Advance(25 * time.Hour)
	result, err := lot.Exit("DEFER1")
	require.NoError(t, err)

	payment, err := billing.Settle("DEFER1", result.Fee, nil, Cash)
	require.NoError(t, err)
	assert.Equal(t, 125.0, payment.Total)
	assert.Equal(t, 0.0, billing.FineRevenue())

	stored, err := lot.Fine(result.Fine.ID)
	require.NoError(t, err)
	assert.False(t, stored.Paid)

	paid, fines, err := billing.PayOutstandingFines("defer1", "")
	require.NoError(t, err)
	require.Len(t, fines, 1)
	assert.Equal(t, result.Fine.ID, fines[0].ID)
	assert.True(t, fines[0].Paid)
	assert.Equal(t, 50.0, paid.Total)
	assert.Equal(t, Cash, paid.Method)
	assert.Equal(t, 50.0, billing.FineRevenue())

	_, _, err = billing.PayOutstandingFines("DEFER1", Cash)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayOutstandingFinesRejectsBadMethod(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	lot.Park(Vehicle{Plate: "LATE01", Category: Car})
	clock.Advance(25 * time.Hour)
	_, err := lot.Exit("LATE01")
	require.NoError(t, err)

	_, _, err = billing.PayOutstandingFines("LATE01", PaymentMethod("CHEQUE"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, billing.Payments())

	payment, fines, err := billing.PayOutstandingFines("LATE01", Card)
	require.NoError(t, err)
	assert.Len(t, fines, 1)
	assert.Equal(t, 50.0, payment.Fine)
}

func TestSettleRejectsBadInput(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	_, err := billing.Settle("CAR123", -1, nil, Cash)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = billing.Settle("CAR123", 5, nil, PaymentMethod("CHEQUE"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = billing.Settle("!", 5, nil, Cash)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = billing.Settle("CAR123", 5, &Fine{ID: "missing"}, Cash)
	assert.ErrorIs(t, err, ErrNotFound)

	lot.Park(Vehicle{Plate: "OWNER1", Category: Car})
	clock.Advance(25 * time.Hour)
	result, err := lot.Exit("OWNER1")
	require.NoError(t, err)

	_, err = billing.Settle("OTHER1", 0, result.Fine, Cash)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, billing.Payments())
}

func TestQuote(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineHourly)

	_, err := billing.Quote("NOPE12")
	assert.ErrorIs(t, err, ErrNotParked)

	lot.Park(Vehicle{Plate: "QUOTE1", Category: Car})
	clock.Advance(90 * time.Minute)

	q, err := billing.Quote("quote1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), q.HoursStayed)
	assert.Equal(t, 5.0, q.HourlyRate)
	assert.Equal(t, 10.0, q.Fee)
	assert.Equal(t, 0.0, q.ProjectedFine)
	assert.Equal(t, 10.0, q.TotalDue)
	assert.True(t, lot.IsParked("QUOTE1"), "quoting must not close the ticket")

	clock.Advance(25 * time.Hour)
	q, err = billing.Quote("QUOTE1")
	require.NoError(t, err)
	assert.Equal(t, int64(27), q.HoursStayed)
	assert.Equal(t, 30.0, q.ProjectedFine)
	assert.Equal(t, 135.0+30.0, q.TotalDue)
}

func TestQuoteIncludesOutstandingFines(t *testing.T) {
	lot, billing, clock := newTestBilling(t, FineFixed)

	lot.Park(Vehicle{Plate: "BACK01", Category: Car})
	clock.Advance(25 * time.Hour)
	result, err := lot.Exit("BACK01")
	require.NoError(t, err)
	_, err = billing.Settle("BACK01", result.Fee, nil, Cash)
	require.NoError(t, err)

	_, err = lot.Park(Vehicle{Plate: "BACK01", Category: Car})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	q, err := billing.Quote("BACK01")
	require.NoError(t, err)
	assert.Equal(t, 50.0, q.OutstandingFines)
	assert.Equal(t, 55.0, q.TotalDue)
}

func TestChange(t *testing.T) {
	change, err := Change(15, 20)
	require.NoError(t, err)
	assert.Equal(t, 5.0, change)

	change, err = Change(15, 15)
	require.NoError(t, err)
	assert.Equal(t, 0.0, change)

	_, err = Change(15, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod(" card ")
	require.NoError(t, err)
	assert.Equal(t, Card, m)

	m, err = ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, Cash, m)

	_, err = ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
