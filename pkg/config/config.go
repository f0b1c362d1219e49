package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backends supported for persistence.
const (
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

// Configuration contiene todo lo necesario para arrancar la tienda.
type Configuration struct {
	Address string `env:"ADDRESS" envDefault:":8082"`
	Backend string `env:"BACKEND" envDefault:"firebase"`

	// Firebase
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseAPIKey          string `env:"FIREBASE_API_KEY"`
	FirebaseStorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`

	// Carrito (vacío = almacenamiento en memoria)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CartTTLHours  int    `env:"CART_TTL_HOURS" envDefault:"720"`

	// Pedidos y precios
	OrderPrefix           string `env:"ORDER_PREFIX" envDefault:"BMB"`
	OrderCounterBase      int64  `env:"ORDER_COUNTER_BASE" envDefault:"1000"`
	FreeShippingThreshold int64  `env:"FREE_SHIPPING_THRESHOLD" envDefault:"150000"`
	ShippingCost          int64  `env:"SHIPPING_COST" envDefault:"10000"`

	// Cuentas de demostración
	DemoAdminEmail  string `env:"DEMO_ADMIN_EMAIL" envDefault:"admin@bombon.com"`
	DemoSellerEmail string `env:"DEMO_SELLER_EMAIL" envDefault:"vendedor@bombon.com"`
	DemoPassword    string `env:"DEMO_PASSWORD" envDefault:"bombon123"`

	CORSOrigins        string `env:"CORS_ORIGINS" envDefault:"*"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	// Protege /metrics con X-API-KEY cuando no está vacío.
	MetricsAPIKey string `env:"METRICS_API_KEY"`

	Log LogConfig `envPrefix:"LOG_"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"text"`
	Output     string `env:"OUTPUT" envDefault:"stdout"`
	Path       string `env:"PATH" envDefault:"logs"`
	MaxSize    int    `env:"MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAge     int    `env:"MAX_AGE" envDefault:"30"`
	Compress   bool   `env:"COMPRESS" envDefault:"true"`
}

// Load lee el archivo .env (si existe) y luego las variables de entorno.
func Load(files ...string) (*Configuration, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := &Configuration{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firebase backend")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend)
	}
	if c.ShippingCost < 0 || c.FreeShippingThreshold < 0 {
		return fmt.Errorf("shipping settings must not be negative")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Configuration) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
