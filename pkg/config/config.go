package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied to every environment variable envconfig reads.
const EnvPrefix = "partsdesk"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Notifier     NotifierConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Square       SquareConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
	Leads        LeadsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PARTSDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PARTSDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSDESK_LOG_WARN_STACK" default:"false"`
	// Timezone all business date windows resolve in.
	BusinessTimezone string `envconfig:"PARTSDESK_BUSINESS_TZ" default:"America/Chicago"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PARTSDESK_DB_DSN"`
	Driver string `envconfig:"PARTSDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PARTSDESK_DB_HOST"`
	Port     int    `envconfig:"PARTSDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"PARTSDESK_DB_USER"`
	Password string `envconfig:"PARTSDESK_DB_PASSWORD"`
	Name     string `envconfig:"PARTSDESK_DB_NAME"`
	SSLMode  string `envconfig:"PARTSDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either PARTSDESK_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARTSDESK_REDIS_ADDR"`
	Password     string        `envconfig:"PARTSDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PARTSDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PARTSDESK_JWT_ISSUER" default:"partsdesk"`
	ExpirationMinutes int    `envconfig:"PARTSDESK_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"PARTSDESK_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PARTSDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PARTSDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PARTSDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PARTSDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PARTSDESK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARTSDESK_AUTO_MIGRATE" default:"false"`
	// SquareRefunds gates card refund issuance when a customer refund is recorded.
	SquareRefunds bool `envconfig:"PARTSDESK_FEATURE_SQUARE_REFUNDS" default:"false"`
}

// NotifierConfig drives the transactional mailer.
type NotifierConfig struct {
	SMTPHost     string `envconfig:"PARTSDESK_SMTP_HOST"`
	SMTPPort     int    `envconfig:"PARTSDESK_SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"PARTSDESK_SMTP_USER"`
	SMTPPassword string `envconfig:"PARTSDESK_SMTP_PASSWORD"`
	FromAddress  string `envconfig:"PARTSDESK_MAIL_FROM" default:"ops@partsdesk.example"`
	FromName     string `envconfig:"PARTSDESK_MAIL_FROM_NAME" default:"PartsDesk Operations"`
	ReplyTo      string `envconfig:"PARTSDESK_MAIL_REPLY_TO"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PARTSDESK_GCP_PROJECT_ID"`
	CredentialsFile string `envconfig:"PARTSDESK_GCP_CREDENTIALS_FILE"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"PARTSDESK_PUBSUB_DOMAIN_TOPIC" default:"partsdesk-domain-events"`
	DomainSubscription string `envconfig:"PARTSDESK_PUBSUB_DOMAIN_SUBSCRIPTION" default:"partsdesk-domain-events-sub"`
	GmailSubscription  string `envconfig:"PARTSDESK_PUBSUB_GMAIL_SUBSCRIPTION" default:"partsdesk-gmail-leads-sub"`
	AnalyticsSub       string `envconfig:"PARTSDESK_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"partsdesk-analytics-sub"`
}

type BigQueryConfig struct {
	Dataset    string `envconfig:"PARTSDESK_BIGQUERY_DATASET" default:"partsdesk_analytics"`
	FactsTable string `envconfig:"PARTSDESK_BIGQUERY_FACTS_TABLE" default:"order_facts"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"PARTSDESK_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"PARTSDESK_SQUARE_ENV" default:"sandbox"`
}

func (s SquareConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(s.Env))
}

type StripeConfig struct {
	APIKey string `envconfig:"PARTSDESK_STRIPE_API_KEY"`
	Secret string `envconfig:"PARTSDESK_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"PARTSDESK_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(s.Env))
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"PARTSDESK_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"PARTSDESK_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"PARTSDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// LeadsConfig configures the Gmail lead-ingestion pipeline.
type LeadsConfig struct {
	Mailbox    string `envconfig:"PARTSDESK_LEADS_MAILBOX" default:"me"`
	LabelQuery string `envconfig:"PARTSDESK_LEADS_QUERY" default:"in:inbox is:unread"`
	PageSize   int64  `envconfig:"PARTSDESK_LEADS_PAGE_SIZE" default:"25"`
}
