package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Stripe     StripeConfig
	Webhook    WebhookConfig
	Dunning    DunningConfig
	Sentry     SentryConfig
	Email      EmailConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// StripeConfig holds the platform-level Stripe credentials. Tenants with a
// connected sub-account are routed through it via the Stripe-Account header;
// tenants without one fall back to the platform account.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// WebhookConfig configures the outbound notification pipeline.
type WebhookConfig struct {
	Enabled         bool
	Topic           string
	PubSub          string
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
	Svix            SvixConfig
	Users           map[string]TenantWebhookConfig
}

// TenantWebhookConfig is the native (non-svix) delivery target for a tenant.
type TenantWebhookConfig struct {
	Endpoint       string
	Headers        map[string]string
	Enabled        bool
	ExcludedEvents []string
}

type SvixConfig struct {
	Enabled   bool
	AuthToken string
	BaseURL   string
}

// DunningConfig controls the periodic billing-cycle scan.
type DunningConfig struct {
	// CronSchedule is a cron expression, e.g. "0 */6 * * *"
	CronSchedule string
	// GraceDays is how long past the due date a pending cycle stays pending
	// before being reclassified overdue.
	GraceDays int
	// LeadDays is how far ahead upcoming-payment reminders look.
	LeadDays int
	// Workers is the size of the scan worker pool.
	Workers int
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

type EmailConfig struct {
	Enabled        bool
	SendGridAPIKey string
	FromAddress    string
	FromName       string
}

func NewConfig() (*Configuration, error) {
	// Load .env if present; real deployments rely on environment variables.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dojoflow")

	v.SetEnvPrefix("DOJOFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "local")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetimeminutes", 30)
	v.SetDefault("webhook.topic", "notifications")
	v.SetDefault("webhook.pubsub", "memory")
	v.SetDefault("webhook.maxretries", 3)
	v.SetDefault("webhook.initialinterval", "1s")
	v.SetDefault("webhook.maxinterval", "10s")
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.maxelapsedtime", "2m")
	v.SetDefault("dunning.cronschedule", "0 * * * *")
	v.SetDefault("dunning.gracedays", 3)
	v.SetDefault("dunning.leaddays", 3)
	v.SetDefault("dunning.workers", 4)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "local"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: "debug"},
		Webhook: WebhookConfig{
			Enabled:         true,
			Topic:           "notifications",
			PubSub:          "memory",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			MaxElapsedTime:  2 * time.Minute,
		},
		Dunning: DunningConfig{
			CronSchedule: "0 * * * *",
			GraceDays:    3,
			LeadDays:     3,
			Workers:      4,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
