package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-lot-manager/internal/logging"
	"parking-lot-manager/internal/parking"
)

// OverstaySource is the part of the reporting service the watch reads.
type OverstaySource interface {
	Overstays() []parking.Overstay
}

// OverstayWatch periodically logs every vehicle parked past the overstay
// threshold together with the fine it would get if it left now.
type OverstayWatch struct {
	reports OverstaySource
	tracer  trace.Tracer
	cron    *cron.Cron
}

func NewOverstayWatch(reports OverstaySource, tracer trace.Tracer) *OverstayWatch {
	return &OverstayWatch{
		reports: reports,
		tracer:  tracer,
		cron:    cron.New(),
	}
}

// Start schedules the scan with a standard cron spec or a descriptor such
// as "@every 15m".
func (w *OverstayWatch) Start(ctx context.Context, schedule string) error {
	if _, err := w.cron.AddFunc(schedule, func() { w.Scan(ctx) }); err != nil {
		return fmt.Errorf("overstay schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	logging.Info(ctx, "overstay watch started", "schedule", schedule)
	return nil
}

// Stop waits for a running scan to finish.
func (w *OverstayWatch) Stop() {
	<-w.cron.Stop().Done()
}

// Scan runs one pass and returns what it found.
func (w *OverstayWatch) Scan(ctx context.Context) []parking.Overstay {
	ctx, span := w.tracer.Start(ctx, "jobs.overstay_scan")
	defer span.End()

	overstays := w.reports.Overstays()
	span.SetAttributes(attribute.Int("overstays.count", len(overstays)))

	var projected float64
	for _, o := range overstays {
		projected += o.ProjectedFine
		logging.ForVehicle(ctx, o.Ticket.Plate(), o.Ticket.SpotID).WarnContext(ctx, "vehicle overstaying",
			"hours", o.HoursStayed,
			logging.Amount(o.ProjectedFine),
		)
	}

	logging.Debug(ctx, "overstay scan finished", "count", len(overstays), "projected_fines", projected)
	return overstays
}
