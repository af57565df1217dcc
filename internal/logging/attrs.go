package logging

import (
	"context"
	"log/slog"
	"math"
)

// Keys shared by every parking log line, so shell, server and job output
// can be queried the same way.
const (
	KeyPlate  = "plate"
	KeySpot   = "spot"
	KeyTicket = "ticket"
	KeyAmount = "amount"
	KeyError  = "error"
)

func Plate(plate string) slog.Attr { return slog.String(KeyPlate, plate) }

func Spot(id string) slog.Attr { return slog.String(KeySpot, id) }

func Ticket(id string) slog.Attr { return slog.String(KeyTicket, id) }

// Amount rounds to cents.
func Amount(v float64) slog.Attr {
	return slog.Float64(KeyAmount, math.Round(v*100)/100)
}

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ForVehicle returns the context logger tagged with plate and spot. An empty
// spot is left out.
func ForVehicle(ctx context.Context, plate, spot string) *slog.Logger {
	attrs := []any{Plate(plate)}
	if spot != "" {
		attrs = append(attrs, Spot(spot))
	}
	return WithContext(ctx).With(attrs...)
}
