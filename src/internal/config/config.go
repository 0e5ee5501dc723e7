package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=fcy_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	DatabaseDSN   string
	StorageDriver string
	MigrationsDir string
	HTTPAddr      string
	LogLevel      string
	ChannelID     string
	ChannelKey    string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RateCacheTTL    time.Duration
	BalanceCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	FXFeeRate decimal.Decimal

	AMLMediumThreshold     decimal.Decimal
	AMLHighThreshold       decimal.Decimal
	AMLScanInterval        time.Duration
	AMLScanLookbackMinutes int

	SettlementCompletionWindow time.Duration
	SettlementStaleAfter       time.Duration
	BankWebhookSecret          string
}

func Load() (Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}

	feeRate, err := decimalSetting(v, "FX_FEE_RATE")
	if err != nil {
		return Config{}, err
	}
	medium, err := decimalSetting(v, "AML_MEDIUM_THRESHOLD")
	if err != nil {
		return Config{}, err
	}
	high, err := decimalSetting(v, "AML_HIGH_THRESHOLD")
	if err != nil {
		return Config{}, err
	}
	if high.LessThanOrEqual(medium) {
		return Config{}, fmt.Errorf("AML_HIGH_THRESHOLD must be greater than AML_MEDIUM_THRESHOLD")
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("FX_FEE_RATE must be in [0, 1)")
	}

	conn := strings.TrimSpace(v.GetString("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	return Config{
		DatabaseDSN:   normalizeConnectionString(conn),
		StorageDriver: driver,
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		ChannelID:     strings.TrimSpace(v.GetString("CHANNEL_ID")),
		ChannelKey:    strings.TrimSpace(v.GetString("CHANNEL_KEY")),

		RedisAddr:       strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		RateCacheTTL:    v.GetDuration("RATE_CACHE_TTL"),
		BalanceCacheTTL: v.GetDuration("BALANCE_CACHE_TTL"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		FXFeeRate: feeRate,

		AMLMediumThreshold:     medium,
		AMLHighThreshold:       high,
		AMLScanInterval:        v.GetDuration("AML_SCAN_INTERVAL"),
		AMLScanLookbackMinutes: v.GetInt("AML_SCAN_LOOKBACK_MINUTES"),

		SettlementCompletionWindow: v.GetDuration("SETTLEMENT_COMPLETION_WINDOW"),
		SettlementStaleAfter:       v.GetDuration("SETTLEMENT_STALE_AFTER"),
		BankWebhookSecret:          v.GetString("BANK_WEBHOOK_SECRET"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_DIR", "src/migrations")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CHANNEL_ID", "LedgerApp")
	v.SetDefault("CHANNEL_KEY", "LedgerKey001")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_CACHE_TTL", "30s")
	v.SetDefault("BALANCE_CACHE_TTL", "10s")
	v.SetDefault("KAFKA_TOPIC", "ledger-events")
	v.SetDefault("FX_FEE_RATE", "0.005")
	v.SetDefault("AML_MEDIUM_THRESHOLD", "10000")
	v.SetDefault("AML_HIGH_THRESHOLD", "50000")
	v.SetDefault("AML_SCAN_INTERVAL", "5m")
	v.SetDefault("AML_SCAN_LOOKBACK_MINUTES", 60)
	v.SetDefault("SETTLEMENT_COMPLETION_WINDOW", "2m")
	v.SetDefault("SETTLEMENT_STALE_AFTER", "24h")
	v.SetDefault("BANK_WEBHOOK_SECRET", "BankWebhookSecret001")
}

func decimalSetting(v *viper.Viper, key string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
