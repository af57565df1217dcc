package parking

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedBilling struct {
	*BillingService
	telemetry *TelemetryProvider

	payments metric.Int64Counter
	revenue  metric.Float64Counter
}

func NewInstrumentedBilling(billing *BillingService, telemetry *TelemetryProvider) (*InstrumentedBilling, error) {
	meter := telemetry.Meter()

	payments, err := meter.Int64Counter("payments_total",
		metric.WithDescription("Total number of recorded payments"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("revenue_amount",
		metric.WithDescription("Collected revenue split by fee and fine"),
		metric.WithUnit("RM"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedBilling{
		BillingService: billing,
		telemetry:      telemetry,
		payments:       payments,
		revenue:        revenue,
	}, nil
}

func (ib *InstrumentedBilling) Quote(ctx context.Context, plate string) (*Quote, error) {
	_, span := ib.telemetry.Tracer().Start(ctx, "billing.quote",
		trace.WithAttributes(attribute.String("vehicle.plate", NormalizePlate(plate))))
	defer span.End()

	q, err := ib.BillingService.Quote(plate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("stay.hours", q.HoursStayed),
		attribute.Float64("quote.total_due", q.TotalDue),
	)
	return q, nil
}

func (ib *InstrumentedBilling) Settle(ctx context.Context, plate string, fee float64, fine *Fine, method PaymentMethod) (*Payment, error) {
	attrs := []attribute.KeyValue{
		attribute.String("vehicle.plate", NormalizePlate(plate)),
		attribute.Float64("payment.fee", fee),
		attribute.Bool("payment.fine_deferred", fine == nil),
	}
	if fine != nil {
		attrs = append(attrs, attribute.String("fine.id", fine.ID))
	}
	ctx, span := ib.telemetry.Tracer().Start(ctx, "billing.settle", trace.WithAttributes(attrs...))
	defer span.End()

	payment, err := ib.BillingService.Settle(plate, fee, fine, method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ib.observe(ctx, span, payment)
	return payment, nil
}

func (ib *InstrumentedBilling) PayOutstandingFines(ctx context.Context, plate string, method PaymentMethod) (*Payment, []Fine, error) {
	ctx, span := ib.telemetry.Tracer().Start(ctx, "billing.pay_outstanding_fines",
		trace.WithAttributes(attribute.String("vehicle.plate", NormalizePlate(plate))))
	defer span.End()

	payment, fines, err := ib.BillingService.PayOutstandingFines(plate, method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("fines.count", len(fines)))
	ib.observe(ctx, span, payment)
	return payment, fines, nil
}

func (ib *InstrumentedBilling) observe(ctx context.Context, span trace.Span, p *Payment) {
	span.SetAttributes(
		attribute.String("payment.id", p.ID),
		attribute.Float64("payment.total", p.Total),
	)
	span.AddEvent("payment_recorded")

	method := attribute.String("method", string(p.Method))
	ib.payments.Add(ctx, 1, metric.WithAttributes(method))
	ib.revenue.Add(ctx, p.Fee, metric.WithAttributes(method, attribute.String("kind", "fee")))
	ib.revenue.Add(ctx, p.Fine, metric.WithAttributes(method, attribute.String("kind", "fine")))
}
