package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"` // mysql, postgres or memory
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	InternalAPIToken  string `env:"INTERNAL_API_TOKEN"`

	RedisAddr           string        `env:"REDIS_ADDR"`
	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	SpinRatePerSecond float64 `env:"SPIN_RATE_PER_SECOND" envDefault:"1"`
	SpinRateBurst     int     `env:"SPIN_RATE_BURST" envDefault:"3"`

	Rewards RewardConfig
}

// RewardConfig carries the engine settings that are not part of the YAML catalog.
type RewardConfig struct {
	CatalogPath                 string `env:"REWARD_CATALOG_PATH"`
	MinimumReferralOrderAmount  int64  `env:"MIN_REFERRAL_ORDER_AMOUNT" envDefault:"100"`
	MaxReferralsPerCustomer     int    `env:"MAX_REFERRALS_PER_CUSTOMER" envDefault:"10"`
	ReferralFreeDeliveryCredits int    `env:"REFERRAL_FREE_DELIVERY_CREDITS" envDefault:"3"`
	ReferralFirstPurchaseOnly   bool   `env:"REFERRAL_FIRST_PURCHASE_ONLY" envDefault:"false"`
	SpinsPerCycle               int64  `env:"SPINS_PER_CYCLE" envDefault:"1"`
	Timezone                    string `env:"REWARD_TIMEZONE" envDefault:"UTC"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the timezone used for time-of-day badges.
func (r RewardConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}
