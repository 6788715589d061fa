package config

// EnvPrefix is handed to envconfig; every field tag carries its full variable name.
const EnvPrefix = "DAIRYMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "DAIRYMART_APP_ENV"
	EnvPort     = "DAIRYMART_APP_PORT"
	EnvLogLevel = "DAIRYMART_LOG_LEVEL"

	EnvDBDSN  = "DAIRYMART_DB_DSN"
	EnvDBHost = "DAIRYMART_DB_HOST"
	EnvDBUser = "DAIRYMART_DB_USER"
	EnvDBName = "DAIRYMART_DB_NAME"

	EnvRedisURL = "DAIRYMART_REDIS_URL"

	EnvJWTSecret  = "DAIRYMART_JWT_SECRET"
	EnvJWTIssuer  = "DAIRYMART_JWT_ISSUER"
	EnvJWTExpMins = "DAIRYMART_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "DAIRYMART_USE_SQLITE"

	EnvGCPProjectID = "DAIRYMART_GCP_PROJECT_ID"

	EnvPaymentSigningSecret = "DAIRYMART_PAYMENT_SIGNING_SECRET"
	EnvStripeAPIKey         = "DAIRYMART_STRIPE_API_KEY"

	EnvOrdersDeliveredPaymentPolicy = "DAIRYMART_ORDERS_DELIVERED_PAYMENT_POLICY"
	EnvCartDeliveryCharge           = "DAIRYMART_CART_DELIVERY_CHARGE"

	EnvShippingCarrier    = "DAIRYMART_SHIPPING_CARRIER"
	EnvShiprocketEmail    = "DAIRYMART_SHIPROCKET_EMAIL"
	EnvShiprocketPassword = "DAIRYMART_SHIPROCKET_PASSWORD"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Delivered payment policies decide whether delivery marks an order paid.
const (
	DeliveredPaymentPolicyAlways  = "always"
	DeliveredPaymentPolicyCODOnly = "cod_only"
	DeliveredPaymentPolicyNever   = "never"
)

const (
	ShippingCarrierFake       = "fake"
	ShippingCarrierShiprocket = "shiprocket"
)
