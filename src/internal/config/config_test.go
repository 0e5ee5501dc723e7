package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.FXFeeRate.Equal(decimal.RequireFromString("0.005")))
	assert.True(t, cfg.AMLMediumThreshold.Equal(decimal.NewFromInt(10000)))
	assert.True(t, cfg.AMLHighThreshold.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 30*time.Second, cfg.RateCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.BalanceCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.AMLScanInterval)
	assert.Equal(t, 60, cfg.AMLScanLookbackMinutes)
	assert.Equal(t, 2*time.Minute, cfg.SettlementCompletionWindow)
	assert.Equal(t, 24*time.Hour, cfg.SettlementStaleAfter)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Contains(t, cfg.DatabaseDSN, "dbname=fcy_ledger_db")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("FX_FEE_RATE", "0.01")
	t.Setenv("SETTLEMENT_COMPLETION_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.FXFeeRate.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, 30*time.Second, cfg.SettlementCompletionWindow)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "non numeric fee", env: map[string]string{"FX_FEE_RATE": "half"}},
		{name: "fee of one", env: map[string]string{"FX_FEE_RATE": "1"}},
		{name: "inverted thresholds", env: map[string]string{"AML_MEDIUM_THRESHOLD": "50000", "AML_HIGH_THRESHOLD": "10000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", "memory")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNormalizeConnectionString(t *testing.T) {
	got := normalizeConnectionString("Host=db;Port=5432;Database=ledger;Username=app;Password=secret;Timeout=5;CommandTimeout=30")
	assert.Equal(t, "host=db port=5432 dbname=ledger user=app password=secret connect_timeout=5 statement_timeout=30s sslmode=disable", got)

	url := "postgres://app:secret@db:5432/ledger?sslmode=require"
	assert.Equal(t, url, normalizeConnectionString(url))

	assert.Equal(t, "host=db sslmode=require", normalizeConnectionString("Host=db;SslMode=require"))
}
