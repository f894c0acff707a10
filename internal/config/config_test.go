package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	bbox, err := parseBBox("50.75, 3.2,53.7,7.22")
	require.NoError(t, err)
	assert.Equal(t, [4]float64{50.75, 3.2, 53.7, 7.22}, bbox)

	_, err = parseBBox("1,2,3")
	assert.Error(t, err)

	_, err = parseBBox("1,2,x,4")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Catalog: CatalogConfig{Source: "udap"},
			Bulk: BulkConfig{
				FreeRows:            10,
				MaxRows:             500,
				DefaultThresholdKm:  0.035,
				DefaultVehicleClass: "heavy",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"postgres catalog", func(c *Config) { c.Catalog.Source = "postgres" }, false},
		{"unknown catalog", func(c *Config) { c.Catalog.Source = "csv" }, true},
		{"unknown class", func(c *Config) { c.Bulk.DefaultVehicleClass = "bus" }, true},
		{"free above max", func(c *Config) { c.Bulk.FreeRows = 600 }, true},
		{"zero threshold", func(c *Config) { c.Bulk.DefaultThresholdKm = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BULK_FREE_ROWS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Bulk.FreeRows)
	assert.Equal(t, 500, cfg.Bulk.MaxRows)
	assert.Equal(t, "udap", cfg.Catalog.Source)
	assert.Equal(t, 0.035, cfg.Bulk.DefaultThresholdKm)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}
