package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "imarisha"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "IMARISHA_DB_DSN"
	EnvDBHost = "IMARISHA_DB_HOST"
	EnvDBUser = "IMARISHA_DB_USER"
	EnvDBName = "IMARISHA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Loan         LoanPolicyConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Arrears      ArrearsWorkerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Loan.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"IMARISHA_APP_ENV" required:"true"`
	Port         string `envconfig:"IMARISHA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"IMARISHA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IMARISHA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"IMARISHA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"IMARISHA_DB_DSN"`
	Driver string `envconfig:"IMARISHA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"IMARISHA_DB_HOST"`
	LegacyPort     int    `envconfig:"IMARISHA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"IMARISHA_DB_USER"`
	LegacyPassword string `envconfig:"IMARISHA_DB_PASSWORD"`
	LegacyName     string `envconfig:"IMARISHA_DB_NAME"`
	LegacySSLMode  string `envconfig:"IMARISHA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"IMARISHA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"IMARISHA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"IMARISHA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"IMARISHA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"IMARISHA_REDIS_URL"`
	Address      string        `envconfig:"IMARISHA_REDIS_ADDR"`
	Password     string        `envconfig:"IMARISHA_REDIS_PASSWORD"`
	DB           int           `envconfig:"IMARISHA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"IMARISHA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"IMARISHA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"IMARISHA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"IMARISHA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"IMARISHA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"IMARISHA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"IMARISHA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"IMARISHA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// DueDateAnchor values accepted by LoanPolicyConfig.
const (
	DueDateAnchorApplication  = "application"
	DueDateAnchorDisbursement = "disbursement"
)

// LoanPolicyConfig carries the institution-level lending policy knobs.
type LoanPolicyConfig struct {
	// DueDateAnchor picks the date the loan duration is counted from.
	DueDateAnchor string `envconfig:"IMARISHA_LOAN_DUE_DATE_ANCHOR" default:"disbursement"`
	// ArrearsGraceDays is the window past the due date before a loan counts
	// as in arrears.
	ArrearsGraceDays int `envconfig:"IMARISHA_LOAN_ARREARS_GRACE_DAYS" default:"7"`
	// LedgerRetryAttempts bounds compare-and-swap retries on balance updates.
	LedgerRetryAttempts int `envconfig:"IMARISHA_LEDGER_RETRY_ATTEMPTS" default:"3"`
}

func (l LoanPolicyConfig) validate() error {
	switch l.DueDateAnchor {
	case DueDateAnchorApplication, DueDateAnchorDisbursement:
	default:
		return fmt.Errorf("invalid due date anchor %q", l.DueDateAnchor)
	}
	if l.ArrearsGraceDays < 0 {
		return fmt.Errorf("arrears grace days must not be negative")
	}
	if l.LedgerRetryAttempts < 1 {
		return fmt.Errorf("ledger retry attempts must be at least 1")
	}
	return nil
}

// AnchorsToDisbursement reports whether due dates count from disbursement.
func (l LoanPolicyConfig) AnchorsToDisbursement() bool {
	return l.DueDateAnchor == DueDateAnchorDisbursement
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"IMARISHA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"IMARISHA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"IMARISHA_PUBSUB_DOMAIN_TOPIC" default:"imarisha-domain-events"`
	DomainSubscription string `envconfig:"IMARISHA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"IMARISHA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"IMARISHA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"IMARISHA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ArrearsWorkerConfig struct {
	ScanInterval time.Duration `envconfig:"IMARISHA_ARREARS_SCAN_INTERVAL" default:"10m"`
	MetricsAddr  string        `envconfig:"IMARISHA_ARREARS_METRICS_ADDR" default:":9104"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
