package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parking-lot-manager/internal/logging"
	"parking-lot-manager/internal/parking"
)

type Handler struct {
	lot         *parking.InstrumentedLot
	billing     *parking.InstrumentedBilling
	reports     *parking.ReportingService
	serviceName string
}

func NewHandler(lot *parking.InstrumentedLot, billing *parking.InstrumentedBilling, reports *parking.ReportingService, serviceName string) *Handler {
	return &Handler{
		lot:         lot,
		billing:     billing,
		reports:     reports,
		serviceName: serviceName,
	}
}

// writeDomainError maps the parking sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, parking.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, parking.ErrNotFound), errors.Is(err, parking.ErrNotParked):
		status = http.StatusNotFound
	case errors.Is(err, parking.ErrAlreadyParked), errors.Is(err, parking.ErrNoSpotAvailable):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logging.Error(ctx, "request failed", "path", r.URL.Path, logging.Err(err))
	} else {
		logging.Debug(ctx, "request rejected", "path", r.URL.Path, "status", status, logging.Err(err))
	}
	WriteError(ctx, w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": h.serviceName,
		"spots":   h.lot.Capacity(),
		"meta":    extractMeta(r.Context()),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkRequest
	if !decode(w, r, &req) {
		return
	}

	category, err := parking.ParseVehicleCategory(req.VehicleType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ticket, err := h.lot.Park(ctx, parking.Vehicle{
		Plate:           req.Plate,
		Category:        category,
		Reservation:     req.Reservation,
		HandicappedCard: req.HandicappedCard,
	}, req.SpotID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.ForVehicle(ctx, ticket.Plate(), ticket.SpotID).InfoContext(ctx, "vehicle parked", logging.Ticket(ticket.ID))
	WriteSuccess(ctx, w, "Vehicle parked successfully", newTicketResponse(ticket))
}

func (h *Handler) ExitVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExitRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.lot.Exit(ctx, req.Plate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := ExitResponse{
		Ticket:      newTicketResponse(result.Ticket),
		HoursStayed: result.HoursStayed,
		HourlyRate:  result.HourlyRate,
		Fee:         result.Fee,
		TotalDue:    result.TotalDue(),
	}
	if result.Fine != nil {
		fine := newFineResponse(*result.Fine)
		resp.Fine = &fine
		logging.ForVehicle(ctx, result.Ticket.Plate(), result.Ticket.SpotID).WarnContext(ctx, "overstay fine issued", logging.Amount(result.Fine.Amount))
	}

	logging.ForVehicle(ctx, result.Ticket.Plate(), result.Ticket.SpotID).InfoContext(ctx, "vehicle exited", "hours", result.HoursStayed)
	WriteSuccess(ctx, w, "Spot released, payment due", resp)
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SettleRequest
	if !decode(w, r, &req) {
		return
	}

	method, err := parking.ParsePaymentMethod(req.Method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var fine *parking.Fine
	if req.FineID != "" {
		f, err := h.lot.Fine(req.FineID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		fine = &f
	}

	payment, err := h.billing.Settle(ctx, req.Plate, req.Fee, fine, method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Info(ctx, "payment recorded", logging.Plate(payment.Plate), logging.Amount(payment.Total), "method", payment.Method)
	WriteSuccess(ctx, w, "Payment recorded", newPaymentResponse(payment))
}

func (h *Handler) PayFines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PayFinesRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	method, err := parking.ParsePaymentMethod(req.Method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	payment, fines, err := h.billing.PayOutstandingFines(ctx, chi.URLParam(r, "plate"), method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Info(ctx, "outstanding fines paid", logging.Plate(payment.Plate), logging.Amount(payment.Total), "count", len(fines))
	WriteSuccess(ctx, w, "Outstanding fines paid", PayFinesResponse{
		Payment: newPaymentResponse(payment),
		Fines:   newFineResponses(fines),
	})
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := h.billing.Quote(ctx, chi.URLParam(r, "plate"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Quote computed", QuoteResponse{
		Ticket:           newTicketResponse(q.Ticket),
		HoursStayed:      q.HoursStayed,
		HourlyRate:       q.HourlyRate,
		Fee:              q.Fee,
		OutstandingFines: q.OutstandingFines,
		ProjectedFine:    q.ProjectedFine,
		TotalDue:         q.TotalDue,
	})
}

func (h *Handler) GetFineStrategy(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Fine strategy retrieved", newFineStrategyResponse(h.lot.FineStrategy()))
}

func (h *Handler) SetFineStrategy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FineStrategyRequest
	if !decode(w, r, &req) {
		return
	}

	kind, err := parking.ParseFineKind(req.Kind)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.lot.SetFineStrategy(ctx, kind); err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Info(ctx, "fine strategy changed", "kind", kind.String())
	WriteSuccess(ctx, w, "Fine strategy updated", newFineStrategyResponse(h.lot.FineStrategy()))
}

func (h *Handler) GetSpots(w http.ResponseWriter, r *http.Request) {
	rows := h.reports.Spots()

	resp := StatusResponse{
		Capacity: len(rows),
		Spots:    make([]SpotStatus, 0, len(rows)),
	}
	for _, row := range rows {
		if row.Occupied {
			resp.Occupied++
		}
		resp.Spots = append(resp.Spots, SpotStatus{
			ID:       row.ID,
			Floor:    row.Floor,
			Row:      row.Row,
			Index:    row.Index,
			Type:     row.Category.String(),
			Rate:     row.Rate,
			Occupied: row.Occupied,
			Plate:    row.Plate,
		})
	}
	resp.Available = resp.Capacity - resp.Occupied

	WriteSuccess(r.Context(), w, "Status retrieved successfully", resp)
}

func (h *Handler) GetSpot(w http.ResponseWriter, r *http.Request) {
	spot, err := h.lot.Spot(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(r.Context(), w, "Spot found", SpotStatus{
		ID:       spot.ID,
		Floor:    spot.Floor,
		Row:      spot.Row,
		Index:    spot.Index,
		Type:     spot.Category.String(),
		Rate:     h.lot.Rate(spot.Category),
		Occupied: spot.Occupied,
		Plate:    spot.Plate,
	})
}

func (h *Handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Active tickets retrieved", newTicketResponses(h.reports.Parked()))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticket, err := h.lot.Ticket(ctx, chi.URLParam(r, "plate"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", newTicketResponse(ticket))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "History retrieved", newTicketResponses(h.reports.History()))
}

func (h *Handler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	summary := h.reports.Occupancy()

	resp := OccupancySummaryResponse{
		Floors: make([]FloorOccupancyResponse, 0, len(summary.Floors)),
		Overall: OccupancyResponse{
			Occupied:   summary.Overall.Occupied,
			Total:      summary.Overall.Total,
			Percentage: summary.Overall.Percentage,
		},
	}
	for _, f := range summary.Floors {
		resp.Floors = append(resp.Floors, FloorOccupancyResponse{
			Floor: f.Floor,
			OccupancyResponse: OccupancyResponse{
				Occupied:   f.Occupied,
				Total:      f.Total,
				Percentage: f.Percentage,
			},
		})
	}

	WriteSuccess(r.Context(), w, "Occupancy retrieved", resp)
}

func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	rev := h.reports.Revenue()
	WriteSuccess(r.Context(), w, "Revenue retrieved", RevenueResponse{
		Fees:  rev.Fees,
		Fines: rev.Fines,
		Total: rev.Total,
	})
}

func (h *Handler) GetOutstandingFines(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Outstanding fines retrieved", newFineResponses(h.reports.OutstandingFines()))
}
