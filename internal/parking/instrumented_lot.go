package parking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedLot struct {
	*LotService
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	exitOperations    metric.Int64Counter
	finesIssued       metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSpotsGauge   metric.Int64UpDownCounter
}

func NewInstrumentedLot(lot *LotService, telemetry *TelemetryProvider) (*InstrumentedLot, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of park operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("exit_operations_total",
		metric.WithDescription("Total number of exit operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	finesIssued, err := meter.Int64Counter("fines_issued_total",
		metric.WithDescription("Total number of overstay fines issued"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSpotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_spots",
		metric.WithDescription("Total number of parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	il := &InstrumentedLot{
		LotService:        lot,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		exitOperations:    exitOperations,
		finesIssued:       finesIssued,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSpotsGauge:   totalSpotsGauge,
	}

	totalSpotsGauge.Add(context.Background(), int64(lot.Capacity()))

	return il, nil
}

// Park parks v in the first eligible spot, or in spotID when it is set.
func (il *InstrumentedLot) Park(ctx context.Context, v Vehicle, spotID string) (*Ticket, error) {
	ctx, span := il.telemetry.Tracer().Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.String("vehicle.plate", NormalizePlate(v.Plate)),
			attribute.String("vehicle.category", v.Category.String()),
			attribute.Bool("vehicle.reservation", v.Reservation),
			attribute.Bool("vehicle.handicapped_card", v.HandicappedCard),
		))
	defer span.End()

	start := time.Now()

	var (
		ticket *Ticket
		err    error
	)
	if spotID != "" {
		span.AddEvent("assigning_requested_spot", trace.WithAttributes(attribute.String("spot_id", spotID)))
		ticket, err = il.LotService.ParkAt(v, spotID)
	} else {
		span.AddEvent("finding_available_spot")
		ticket, err = il.LotService.Park(v)
	}

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_category", v.Category.String()),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("spot_category", ticket.SpotCategory.String()),
		)
		span.SetAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.String("spot.id", ticket.SpotID),
		)
		span.AddEvent("spot_allocated", trace.WithAttributes(
			attribute.String("spot_id", ticket.SpotID),
		))
		il.occupancyGauge.Add(ctx, 1)
	}

	il.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (il *InstrumentedLot) Exit(ctx context.Context, plate string) (*ExitResult, error) {
	ctx, span := il.telemetry.Tracer().Start(ctx, "parking_lot.exit",
		trace.WithAttributes(
			attribute.String("vehicle.plate", NormalizePlate(plate)),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_spot")

	result, err := il.LotService.Exit(plate)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "exit"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("spot_category", result.Ticket.SpotCategory.String()),
		)
		span.SetAttributes(
			attribute.String("ticket.id", result.Ticket.ID),
			attribute.String("spot.id", result.Ticket.SpotID),
			attribute.Int64("stay.hours", result.HoursStayed),
			attribute.Float64("stay.fee", result.Fee),
		)
		span.AddEvent("spot_released")
		il.occupancyGauge.Add(ctx, -1)

		if result.Fine != nil {
			span.AddEvent("fine_issued", trace.WithAttributes(
				attribute.String("fine.id", result.Fine.ID),
				attribute.Float64("fine.amount", result.Fine.Amount),
			))
			il.finesIssued.Add(ctx, 1, metric.WithAttributes(
				attribute.String("strategy", il.LotService.FineStrategy().Kind.String()),
			))
		}
	}

	il.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (il *InstrumentedLot) SetFineStrategy(ctx context.Context, kind FineKind) error {
	_, span := il.telemetry.Tracer().Start(ctx, "parking_lot.set_fine_strategy",
		trace.WithAttributes(
			attribute.String("strategy.previous", il.LotService.FineStrategy().Kind.String()),
			attribute.String("strategy.next", kind.String()),
		))
	defer span.End()

	if err := il.LotService.SetFineStrategy(kind); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (il *InstrumentedLot) Ticket(ctx context.Context, plate string) (*Ticket, error) {
	_, span := il.telemetry.Tracer().Start(ctx, "parking_lot.get_ticket",
		trace.WithAttributes(
			attribute.String("vehicle.plate", NormalizePlate(plate)),
		))
	defer span.End()

	start := time.Now()

	ticket, err := il.LotService.Ticket(plate)

	labels := []attribute.KeyValue{
		attribute.String("operation", "get_ticket"),
	}

	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.String("spot_id", ticket.SpotID),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	il.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return ticket, err
}
