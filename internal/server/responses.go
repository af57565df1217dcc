package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-lot-manager/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkRequest struct {
	Plate           string `json:"plate"`
	VehicleType     string `json:"vehicle_type"`
	Reservation     bool   `json:"reservation"`
	HandicappedCard bool   `json:"handicapped_card"`
	SpotID          string `json:"spot_id,omitempty"`
}

type ExitRequest struct {
	Plate string `json:"plate"`
}

type SettleRequest struct {
	Plate  string  `json:"plate"`
	Fee    float64 `json:"fee"`
	FineID string  `json:"fine_id,omitempty"`
	Method string  `json:"method"`
}

type PayFinesRequest struct {
	Method string `json:"method"`
}

type FineStrategyRequest struct {
	Kind string `json:"kind"`
}

type TicketResponse struct {
	ID              string     `json:"id"`
	Plate           string     `json:"plate"`
	VehicleType     string     `json:"vehicle_type"`
	Reservation     bool       `json:"reservation"`
	HandicappedCard bool       `json:"handicapped_card"`
	SpotID          string     `json:"spot_id"`
	SpotType        string     `json:"spot_type"`
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        *time.Time `json:"exit_time,omitempty"`
}

func newTicketResponse(t *parking.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		Plate:           t.Plate(),
		VehicleType:     t.Vehicle.Category.String(),
		Reservation:     t.Vehicle.Reservation,
		HandicappedCard: t.Vehicle.HandicappedCard,
		SpotID:          t.SpotID,
		SpotType:        t.SpotCategory.String(),
		EntryTime:       t.EntryTime,
		ExitTime:        t.ExitTime,
	}
}

func newTicketResponses(tickets []parking.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, newTicketResponse(&tickets[i]))
	}
	return out
}

type FineResponse struct {
	ID       string    `json:"id"`
	Plate    string    `json:"plate"`
	Amount   float64   `json:"amount"`
	Reason   string    `json:"reason"`
	IssuedAt time.Time `json:"issued_at"`
	Paid     bool      `json:"paid"`
}

func newFineResponse(f parking.Fine) FineResponse {
	return FineResponse{
		ID:       f.ID,
		Plate:    f.Plate,
		Amount:   f.Amount,
		Reason:   f.Reason,
		IssuedAt: f.IssuedAt,
		Paid:     f.Paid,
	}
}

func newFineResponses(fines []parking.Fine) []FineResponse {
	out := make([]FineResponse, 0, len(fines))
	for _, f := range fines {
		out = append(out, newFineResponse(f))
	}
	return out
}

type ExitResponse struct {
	Ticket      TicketResponse `json:"ticket"`
	HoursStayed int64          `json:"hours_stayed"`
	HourlyRate  float64        `json:"hourly_rate"`
	Fee         float64        `json:"fee"`
	Fine        *FineResponse  `json:"fine,omitempty"`
	TotalDue    float64        `json:"total_due"`
}

type QuoteResponse struct {
	Ticket           TicketResponse `json:"ticket"`
	HoursStayed      int64          `json:"hours_stayed"`
	HourlyRate       float64        `json:"hourly_rate"`
	Fee              float64        `json:"fee"`
	OutstandingFines float64        `json:"outstanding_fines"`
	ProjectedFine    float64        `json:"projected_fine"`
	TotalDue         float64        `json:"total_due"`
}

type PaymentResponse struct {
	ID     string    `json:"id"`
	Plate  string    `json:"plate"`
	Fee    float64   `json:"fee"`
	Fine   float64   `json:"fine"`
	Total  float64   `json:"total"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paid_at"`
}

func newPaymentResponse(p *parking.Payment) PaymentResponse {
	return PaymentResponse{
		ID:     p.ID,
		Plate:  p.Plate,
		Fee:    p.Fee,
		Fine:   p.Fine,
		Total:  p.Total,
		Method: string(p.Method),
		PaidAt: p.PaidAt,
	}
}

type PayFinesResponse struct {
	Payment PaymentResponse `json:"payment"`
	Fines   []FineResponse  `json:"fines"`
}

type FineStrategyResponse struct {
	Kind            string  `json:"kind"`
	Fixed           float64 `json:"fixed"`
	ProgressiveBase float64 `json:"progressive_base"`
	ProgressiveStep float64 `json:"progressive_step"`
	HourlyRate      float64 `json:"hourly_rate"`
	ThresholdHours  int     `json:"threshold_hours"`
}

func newFineStrategyResponse(p parking.FinePolicy) FineStrategyResponse {
	return FineStrategyResponse{
		Kind:            p.Kind.String(),
		Fixed:           p.Amounts.Fixed,
		ProgressiveBase: p.Amounts.ProgressiveBase,
		ProgressiveStep: p.Amounts.ProgressiveStep,
		HourlyRate:      p.Amounts.HourlyRate,
		ThresholdHours:  parking.OverstayThresholdHours,
	}
}

type SpotStatus struct {
	ID       string  `json:"id"`
	Floor    int     `json:"floor"`
	Row      int     `json:"row"`
	Index    int     `json:"index"`
	Type     string  `json:"type"`
	Rate     float64 `json:"rate"`
	Occupied bool    `json:"occupied"`
	Plate    string  `json:"plate,omitempty"`
}

type StatusResponse struct {
	Capacity  int          `json:"capacity"`
	Occupied  int          `json:"occupied"`
	Available int          `json:"available"`
	Spots     []SpotStatus `json:"spots"`
}

type OccupancyResponse struct {
	Occupied   int     `json:"occupied"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type FloorOccupancyResponse struct {
	Floor int `json:"floor"`
	OccupancyResponse
}

type OccupancySummaryResponse struct {
	Floors  []FloorOccupancyResponse `json:"floors"`
	Overall OccupancyResponse        `json:"overall"`
}

type RevenueResponse struct {
	Fees  float64 `json:"fees"`
	Fines float64 `json:"fines"`
	Total float64 `json:"total"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
