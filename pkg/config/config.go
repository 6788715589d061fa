package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Payments      PaymentsConfig
	Orders        OrdersConfig
	Cart          CartConfig
	RateLimit     RateLimitConfig
	Shipping      ShippingConfig
	Notifications NotificationsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Shipping.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DAIRYMART_APP_ENV" required:"true"`
	Port         string `envconfig:"DAIRYMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DAIRYMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DAIRYMART_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"DAIRYMART_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"DAIRYMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DAIRYMART_DB_DSN"`
	Driver string `envconfig:"DAIRYMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DAIRYMART_DB_HOST"`
	Port     int    `envconfig:"DAIRYMART_DB_PORT" default:"5432"`
	User     string `envconfig:"DAIRYMART_DB_USER"`
	Password string `envconfig:"DAIRYMART_DB_PASSWORD"`
	Name     string `envconfig:"DAIRYMART_DB_NAME"`
	SSLMode  string `envconfig:"DAIRYMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DAIRYMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DAIRYMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DAIRYMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DAIRYMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DAIRYMART_REDIS_URL"`
	Address      string        `envconfig:"DAIRYMART_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"DAIRYMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"DAIRYMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DAIRYMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DAIRYMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DAIRYMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DAIRYMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DAIRYMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DAIRYMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DAIRYMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DAIRYMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DAIRYMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DAIRYMART_AUTO_MIGRATE" default:"false"`
}

// GCPConfig falls back to application default credentials when neither
// credentials field is set.
type GCPConfig struct {
	ProjectID              string `envconfig:"DAIRYMART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DAIRYMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DAIRYMART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"DAIRYMART_PUBSUB_NOTIFICATION_TOPIC" default:"dm-order-status-events"`
	NotificationSubscription string `envconfig:"DAIRYMART_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"dm-order-status-events-sub"`
}

// Enabled reports whether notification events can be published.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(gcp.ProjectID) != "" && strings.TrimSpace(p.NotificationTopic) != ""
}

type PaymentsConfig struct {
	StripeAPIKey  string `envconfig:"DAIRYMART_STRIPE_API_KEY"`
	StripeEnv     string `envconfig:"DAIRYMART_STRIPE_ENV" default:"test"`
	SigningSecret string `envconfig:"DAIRYMART_PAYMENT_SIGNING_SECRET" required:"true"`
	Currency      string `envconfig:"DAIRYMART_PAYMENT_CURRENCY" default:"INR"`
}

// Environment returns the normalized Stripe environment (test/live).
func (p PaymentsConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.StripeEnv))
	if env == "" {
		return "test"
	}
	return env
}

type OrdersConfig struct {
	DeliveredPaymentPolicy string `envconfig:"DAIRYMART_ORDERS_DELIVERED_PAYMENT_POLICY" default:"always"`
}

func (o OrdersConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.DeliveredPaymentPolicy)) {
	case DeliveredPaymentPolicyAlways, DeliveredPaymentPolicyCODOnly, DeliveredPaymentPolicyNever:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvOrdersDeliveredPaymentPolicy,
			DeliveredPaymentPolicyAlways, DeliveredPaymentPolicyCODOnly, DeliveredPaymentPolicyNever)
	}
}

type CartConfig struct {
	DeliveryCharge string `envconfig:"DAIRYMART_CART_DELIVERY_CHARGE" default:"0"`
}

// DeliveryChargeAmount parses the configured delivery charge, falling back to zero.
func (c CartConfig) DeliveryChargeAmount() decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(c.DeliveryCharge))
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value.Round(2)
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"DAIRYMART_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"DAIRYMART_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
	PaymentWindow  time.Duration `envconfig:"DAIRYMART_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentLimit   int           `envconfig:"DAIRYMART_RATE_LIMIT_PAYMENT_LIMIT" default:"20"`
}

type ShippingConfig struct {
	Carrier            string        `envconfig:"DAIRYMART_SHIPPING_CARRIER" default:"fake"`
	ShiprocketBaseURL  string        `envconfig:"DAIRYMART_SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in/v1/external"`
	ShiprocketEmail    string        `envconfig:"DAIRYMART_SHIPROCKET_EMAIL"`
	ShiprocketPassword string        `envconfig:"DAIRYMART_SHIPROCKET_PASSWORD"`
	PickupLocation     string        `envconfig:"DAIRYMART_SHIPROCKET_PICKUP_LOCATION" default:"Primary"`
	RequestTimeout     time.Duration `envconfig:"DAIRYMART_SHIPPING_REQUEST_TIMEOUT" default:"10s"`
}

func (s ShippingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Carrier)) {
	case ShippingCarrierFake:
		return nil
	case ShippingCarrierShiprocket:
		if s.ShiprocketEmail == "" || s.ShiprocketPassword == "" {
			return fmt.Errorf("%s and %s are required for the shiprocket carrier", EnvShiprocketEmail, EnvShiprocketPassword)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %s or %s", EnvShippingCarrier, ShippingCarrierFake, ShippingCarrierShiprocket)
	}
}

type NotificationsConfig struct {
	PublishTimeout time.Duration `envconfig:"DAIRYMART_NOTIFICATIONS_PUBLISH_TIMEOUT" default:"5s"`
	RetentionDays  int           `envconfig:"DAIRYMART_NOTIFICATIONS_RETENTION_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"DAIRYMART_NOTIFICATIONS_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"DAIRYMART_CRON_INTERVAL" default:"15m"`
	LockTTL    time.Duration `envconfig:"DAIRYMART_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"DAIRYMART_CRON_JOB_TIMEOUT" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
