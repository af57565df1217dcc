package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell reads one command per line and drives the lot the way an attendant
// at the gate would.
type Shell struct {
	lot       *InstrumentedLot
	billing   *InstrumentedBilling
	reports   *ReportingService
	telemetry *TelemetryProvider
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(lot *InstrumentedLot, billing *InstrumentedBilling, reports *ReportingService, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		lot:       lot,
		billing:   billing,
		reports:   reports,
		telemetry: telemetry,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "park":
		s.handlePark(ctx, parts)
	case "exit", "leave":
		s.handleExit(ctx, parts)
	case "quote":
		s.handleQuote(ctx, parts)
	case "pay_fines":
		s.handlePayFines(ctx, parts)
	case "strategy":
		s.handleStrategy(ctx, parts)
	case "status", "spots":
		s.handleStatus()
	case "occupancy":
		s.handleOccupancy()
	case "revenue":
		s.handleRevenue()
	case "fines":
		s.handleFines()
	case "parked":
		s.handleParked()
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if len(parts) < 3 {
		fmt.Fprintln(s.out, "Usage: park <plate> <motorcycle|car|suv|handicapped> [reserved] [card] [spot=<id>]")
		return
	}

	category, err := ParseVehicleCategory(parts[2])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	v := Vehicle{Plate: parts[1], Category: category}
	var spotID string
	for _, opt := range parts[3:] {
		switch {
		case strings.EqualFold(opt, "reserved"):
			v.Reservation = true
		case strings.EqualFold(opt, "card"):
			v.HandicappedCard = true
		case strings.HasPrefix(strings.ToLower(opt), "spot="):
			spotID = strings.ToUpper(opt[len("spot="):])
		default:
			fmt.Fprintf(s.out, "Unknown option: %s\n", opt)
			return
		}
	}

	ticket, err := s.lot.Park(ctx, v, spotID)
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Allocated spot %s (%s) ticket %s\n", ticket.SpotID, ticket.SpotCategory, ticket.ID)
}

func (s *Shell) handleExit(ctx context.Context, parts []string) {
	if len(parts) < 2 || len(parts) > 4 {
		fmt.Fprintln(s.out, "Usage: exit <plate> [pay|defer] [cash|card]")
		return
	}

	payFine := true
	if len(parts) >= 3 {
		switch strings.ToLower(parts[2]) {
		case "pay":
		case "defer":
			payFine = false
		default:
			fmt.Fprintln(s.out, "Usage: exit <plate> [pay|defer] [cash|card]")
			return
		}
	}
	method := Cash
	if len(parts) == 4 {
		m, err := ParsePaymentMethod(parts[3])
		if err != nil {
			s.printError(err)
			return
		}
		method = m
	}

	result, err := s.lot.Exit(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Spot %s is free\n", result.Ticket.SpotID)
	fmt.Fprintf(s.out, "Hours: %d x RM %.2f = RM %.2f\n", result.HoursStayed, result.HourlyRate, result.Fee)

	fine := result.Fine
	if fine != nil {
		fmt.Fprintf(s.out, "Fine: RM %.2f (%s)\n", fine.Amount, fine.Reason)
		if !payFine {
			fine = nil
		}
	}

	payment, err := s.billing.Settle(ctx, result.Ticket.Plate(), result.Fee, fine, method)
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Paid RM %.2f by %s\n", payment.Total, payment.Method)
	if result.Fine != nil && fine == nil {
		fmt.Fprintf(s.out, "Fine deferred: RM %.2f outstanding\n", result.Fine.Amount)
	}
}

func (s *Shell) handleQuote(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Fprintln(s.out, "Usage: quote <plate>")
		return
	}

	q, err := s.billing.Quote(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Spot %s, %d hour(s)\n", q.Ticket.SpotID, q.HoursStayed)
	fmt.Fprintf(s.out, "Fee: RM %.2f\n", q.Fee)
	fmt.Fprintf(s.out, "Unpaid fines: RM %.2f\n", q.OutstandingFines)
	fmt.Fprintf(s.out, "Overstay fine if leaving now: RM %.2f\n", q.ProjectedFine)
	fmt.Fprintf(s.out, "Total due: RM %.2f\n", q.TotalDue)
}

func (s *Shell) handlePayFines(ctx context.Context, parts []string) {
	if len(parts) < 2 || len(parts) > 3 {
		fmt.Fprintln(s.out, "Usage: pay_fines <plate> [cash|card]")
		return
	}
	method := Cash
	if len(parts) == 3 {
		m, err := ParsePaymentMethod(parts[2])
		if err != nil {
			s.printError(err)
			return
		}
		method = m
	}

	payment, fines, err := s.billing.PayOutstandingFines(ctx, parts[1], method)
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Paid %d fine(s): RM %.2f by %s\n", len(fines), payment.Total, payment.Method)
}

func (s *Shell) handleStrategy(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Fprintf(s.out, "Fine strategy: %s\n", s.lot.FineStrategy().Kind)
		return
	}

	kind, err := ParseFineKind(parts[1])
	if err != nil {
		s.printError(err)
		return
	}
	if err := s.lot.SetFineStrategy(ctx, kind); err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Fine strategy set to %s\n", kind)
}

func (s *Shell) handleStatus() {
	fmt.Fprintln(s.out, "Spot\t\tFloor\tType\t\tStatus\t\tPlate")
	for _, row := range s.reports.Spots() {
		status := "AVAILABLE"
		if row.Occupied {
			status = "OCCUPIED"
		}
		fmt.Fprintf(s.out, "%s\t%d\t%-11s\t%-9s\t%s\n", row.ID, row.Floor, row.Category, status, row.Plate)
	}
}

func (s *Shell) handleOccupancy() {
	summary := s.reports.Occupancy()
	for _, f := range summary.Floors {
		fmt.Fprintf(s.out, "Floor %d: %d/%d (%.1f%%)\n", f.Floor, f.Occupied, f.Total, f.Percentage)
	}
	fmt.Fprintf(s.out, "Total: %d/%d (%.1f%%)\n", summary.Overall.Occupied, summary.Overall.Total, summary.Overall.Percentage)
}

func (s *Shell) handleRevenue() {
	rev := s.reports.Revenue()
	fmt.Fprintf(s.out, "Fees: RM %.2f\nFines: RM %.2f\nTotal: RM %.2f\n", rev.Fees, rev.Fines, rev.Total)
}

func (s *Shell) handleFines() {
	fines := s.reports.OutstandingFines()
	if len(fines) == 0 {
		fmt.Fprintln(s.out, "No outstanding fines")
		return
	}
	for _, f := range fines {
		fmt.Fprintf(s.out, "%s\t%s\tRM %.2f\t%s\n", f.Plate, f.IssuedAt.Format("2006-01-02 15:04"), f.Amount, f.Reason)
	}
}

func (s *Shell) handleParked() {
	tickets := s.reports.Parked()
	if len(tickets) == 0 {
		fmt.Fprintln(s.out, "Parking lot is empty")
		return
	}

	fmt.Fprintln(s.out, "Plate\t\tType\t\tSpot\t\tEntry")
	for _, t := range tickets {
		fmt.Fprintf(s.out, "%s\t%-11s\t%s\t%s\n", t.Plate(), t.Vehicle.Category, t.SpotID, t.EntryTime.Format("2006-01-02 15:04"))
	}
}

func (s *Shell) printError(err error) {
	switch {
	case errors.Is(err, ErrNoSpotAvailable):
		fmt.Fprintln(s.out, "Sorry, no suitable spot is available")
	case errors.Is(err, ErrAlreadyParked):
		fmt.Fprintln(s.out, "Vehicle is already parked")
	case errors.Is(err, ErrNotParked):
		fmt.Fprintln(s.out, "Not found")
	default:
		fmt.Fprintf(s.out, "Error: %s\n", err)
	}
}
