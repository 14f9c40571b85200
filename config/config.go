package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Admin        AdminConfig        `mapstructure:"admin"`
	MoneyFusion  MoneyFusionConfig  `mapstructure:"moneyfusion"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Store        StoreConfig        `mapstructure:"store"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"` // public URL used to build provider callbacks
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// AllowsOrigin reports whether origin is on the allowlist. An empty origin never is.
func (c CORSConfig) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

type AdminConfig struct {
	UserIDs []int64 `mapstructure:"user_ids"`
}

// IsAdmin reports whether userID is on the admin allowlist.
func (a AdminConfig) IsAdmin(userID int64) bool {
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type MoneyFusionConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	StatusURL   string        `mapstructure:"status_url"` // token is appended
	Timeout     time.Duration `mapstructure:"timeout"`
	ReturnPath  string        `mapstructure:"return_path"`
	WebhookPath string        `mapstructure:"webhook_path"`
	ArticleName string        `mapstructure:"article_name"`
}

type SubscriptionConfig struct {
	Currency string                `mapstructure:"currency"`
	Plans    map[string]PlanConfig `mapstructure:"plans"`
}

type PlanConfig struct {
	Price          float64 `mapstructure:"price"`
	DurationMonths int     `mapstructure:"duration_months"`
}

type QueueConfig struct {
	RepairQueue string        `mapstructure:"repair_queue"`
	MaxWorkers  int           `mapstructure:"max_workers"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type StoreConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type JobsConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"` // processing payments older than this are reported
}

const defaultTimeout = 10 * time.Second

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("moneyfusion.timeout", defaultTimeout)
	v.SetDefault("moneyfusion.status_url", "https://www.pay.moneyfusion.net/paiementNotif/")
	v.SetDefault("moneyfusion.return_path", "/payment/callback")
	v.SetDefault("moneyfusion.webhook_path", "/api/v1/webhooks/moneyfusion")
	v.SetDefault("moneyfusion.article_name", "FixedPronos")
	v.SetDefault("subscription.currency", "XOF")
	v.SetDefault("queue.repair_queue", "entitlement_repair")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.retry_delay", 30*time.Second)
	v.SetDefault("store.timeout", defaultTimeout)
	v.SetDefault("jobs.expiry_interval", time.Hour)
	v.SetDefault("jobs.stale_after", 24*time.Hour)
}

func Load(configPath string) (*Config, error) {
	// config.local.yaml next to the main file wins (holds real secrets, not committed)
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PlanDurationMonths returns the configured duration for plan, defaulting to one month.
func (s SubscriptionConfig) PlanDurationMonths(plan string) int {
	if p, ok := s.Plans[plan]; ok && p.DurationMonths > 0 {
		return p.DurationMonths
	}
	return 1
}

// PlanPrice returns the configured price for plan. ok is false when the plan
// has no price, in which case any positive amount is accepted.
func (s SubscriptionConfig) PlanPrice(plan string) (price decimal.Decimal, ok bool) {
	p, found := s.Plans[plan]
	if !found || p.Price <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(p.Price), true
}
