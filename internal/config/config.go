package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"parking-lot-manager/internal/parking"
)

type Config struct {
	Port        string
	Environment string

	ServiceName  string
	OTLPEndpoint string

	Floors      int
	Rates       parking.Rates
	CardRate    float64
	FineKind    parking.FineKind
	FineAmounts parking.FineAmounts

	// OverstaySchedule is a cron spec for the overstay watch. Empty disables it.
	OverstaySchedule string
}

// Load reads .env when present, then the environment. Values that do not
// parse fall back to their defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	defaultRates := parking.DefaultRates()
	defaultFines := parking.DefaultFineAmounts()

	kind, err := parking.ParseFineKind(envOr("PARKING_FINE_STRATEGY", parking.FineFixed.String()))
	if err != nil {
		slog.Warn("ignoring PARKING_FINE_STRATEGY", "error", err)
		kind = parking.FineFixed
	}

	floors := envOrInt("PARKING_FLOORS", 3)
	if floors <= 0 {
		slog.Warn("ignoring PARKING_FLOORS", "value", floors)
		floors = 3
	}

	return &Config{
		Port:         envOr("APP_PORT", "8080"),
		Environment:  envOr("APP_ENV", "development"),
		ServiceName:  envOr("OTEL_SERVICE_NAME", parking.DefaultServiceName),
		OTLPEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", parking.DefaultOTLPEndpoint),

		Floors: floors,
		Rates: parking.Rates{
			parking.Compact:     envOrFloat("PARKING_RATE_COMPACT", defaultRates[parking.Compact]),
			parking.Regular:     envOrFloat("PARKING_RATE_REGULAR", defaultRates[parking.Regular]),
			parking.Handicapped: envOrFloat("PARKING_RATE_HANDICAPPED", defaultRates[parking.Handicapped]),
			parking.Reserved:    envOrFloat("PARKING_RATE_RESERVED", defaultRates[parking.Reserved]),
		},
		CardRate: envOrFloat("PARKING_HANDICAPPED_CARD_RATE", 0),
		FineKind: kind,
		FineAmounts: parking.FineAmounts{
			Fixed:           envOrFloat("PARKING_FINE_FIXED", defaultFines.Fixed),
			ProgressiveBase: envOrFloat("PARKING_FINE_PROGRESSIVE_BASE", defaultFines.ProgressiveBase),
			ProgressiveStep: envOrFloat("PARKING_FINE_PROGRESSIVE_STEP", defaultFines.ProgressiveStep),
			HourlyRate:      envOrFloat("PARKING_FINE_HOURLY", defaultFines.HourlyRate),
		},

		OverstaySchedule: envOrRaw("OVERSTAY_SCAN_SCHEDULE", "@every 15m"),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envOrRaw distinguishes an unset variable from one set to empty.
func envOrRaw(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid integer in environment", "key", key, "value", v)
		return fallback
	}
	return n
}

func envOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		slog.Warn("invalid amount in environment", "key", key, "value", v)
		return fallback
	}
	return f
}
