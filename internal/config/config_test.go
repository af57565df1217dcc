package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parking-lot-manager/internal/parking"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"APP_PORT", "APP_ENV", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"PARKING_FLOORS", "PARKING_RATE_COMPACT", "PARKING_RATE_REGULAR",
		"PARKING_RATE_HANDICAPPED", "PARKING_RATE_RESERVED", "PARKING_HANDICAPPED_CARD_RATE",
		"PARKING_FINE_STRATEGY", "PARKING_FINE_FIXED", "PARKING_FINE_PROGRESSIVE_BASE",
		"PARKING_FINE_PROGRESSIVE_STEP", "PARKING_FINE_HOURLY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, parking.DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, parking.DefaultOTLPEndpoint, cfg.OTLPEndpoint)
	assert.Equal(t, 3, cfg.Floors)
	assert.Equal(t, parking.DefaultRates(), cfg.Rates)
	assert.Equal(t, 0.0, cfg.CardRate)
	assert.Equal(t, parking.FineFixed, cfg.FineKind)
	assert.Equal(t, parking.DefaultFineAmounts(), cfg.FineAmounts)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PARKING_FLOORS", "5")
	t.Setenv("PARKING_RATE_REGULAR", "7.5")
	t.Setenv("PARKING_HANDICAPPED_CARD_RATE", "1")
	t.Setenv("PARKING_FINE_STRATEGY", "Progressive")
	t.Setenv("PARKING_FINE_PROGRESSIVE_STEP", "8")
	t.Setenv("OVERSTAY_SCAN_SCHEDULE", "")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.Floors)
	assert.Equal(t, 7.5, cfg.Rates[parking.Regular])
	assert.Equal(t, 2.0, cfg.Rates[parking.Compact])
	assert.Equal(t, 1.0, cfg.CardRate)
	assert.Equal(t, parking.FineProgressive, cfg.FineKind)
	assert.Equal(t, 8.0, cfg.FineAmounts.ProgressiveStep)
	assert.Empty(t, cfg.OverstaySchedule)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PARKING_FLOORS", "many")
	t.Setenv("PARKING_RATE_COMPACT", "-3")
	t.Setenv("PARKING_FINE_FIXED", "fifty")
	t.Setenv("PARKING_FINE_STRATEGY", "weekly")

	cfg := Load()

	assert.Equal(t, 3, cfg.Floors)
	assert.Equal(t, 2.0, cfg.Rates[parking.Compact])
	assert.Equal(t, 50.0, cfg.FineAmounts.Fixed)
	assert.Equal(t, parking.FineFixed, cfg.FineKind)
}
