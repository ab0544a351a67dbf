package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL"`
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	Postgres Postgres
	Redis    Redis
	API      API
	Cache    Cache
	Jobs     Jobs
	Currency Currency
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	QuoteApi QuoteApi
	FundApi  FundApi
	FxApi    FxApi
}

type QuoteApi struct {
	Url string `env:"QUOTE_API_URL" envDefault:"https://query1.finance.yahoo.com"`
}

type FundApi struct {
	Url string `env:"FUND_API_URL" envDefault:"https://api.mfapi.in"`
}

type FxApi struct {
	Url string `env:"FX_API_URL" envDefault:"https://api.exchangerate-api.com"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"15m"`
}

type Jobs struct {
	DailySnapshotCrontab   string        `env:"DAILY_SNAPSHOT_CRONTAB" envDefault:"30 18 * * *"`
	MonthlySipCrontab      string        `env:"MONTHLY_SIP_CRONTAB" envDefault:"0 9 1 * *"`
	WarmQuoteCacheInterval time.Duration `env:"WARM_QUOTE_CACHE_JOB_INTERVAL" envDefault:"15m"`
}

// Currency describes the single home/foreign currency pair the engine
// reports in. FallbackFxRate is applied when the rate provider is down.
type Currency struct {
	Home           string  `env:"HOME_CURRENCY" envDefault:"INR"`
	Foreign        string  `env:"FOREIGN_CURRENCY" envDefault:"USD"`
	FallbackFxRate float64 `env:"FALLBACK_FX_RATE" envDefault:"83.0"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
