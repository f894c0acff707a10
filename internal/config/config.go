package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Worker   WorkerConfig
	Catalog  CatalogConfig
	Geocoder GeocoderConfig
	Router   RouterConfig
	Registry RegistryConfig
	Payment  PaymentConfig
	Bulk     BulkConfig
	Savings  SavingsConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
	// CORSOrigins - список origin через запятую
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// CatalogConfig - откуда загружается каталог светофоров
type CatalogConfig struct {
	Source      string // udap | overpass | postgres
	UDAPURL     string
	CacheFile   string
	OverpassURL string
	// BBox для Overpass: minLat,minLng,maxLat,maxLng
	BBox    [4]float64
	Timeout time.Duration
}

type GeocoderConfig struct {
	PDOKURL      string
	NominatimURL string
	UserAgent    string
	Timeout      time.Duration
}

type RouterConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type RegistryConfig struct {
	URL      string
	AppToken string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type PaymentConfig struct {
	URL          string
	SecretKey    string
	Currency     string
	PricePerRow  int64 // в центах
	SuccessURL   string
	CancelURL    string
	Timeout      time.Duration
	PollInterval time.Duration
}

type BulkConfig struct {
	FreeRows            int
	MaxRows             int
	RowDelay            time.Duration
	FreeBatchesPerDay   int
	QuotaWindow         time.Duration
	DefaultThresholdKm  float64
	DefaultVehicleClass string
}

type SavingsConfig struct {
	// TablesFile - YAML, заменяющий встроенные таблицы
	TablesFile string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	bbox, err := parseBBox(viper.GetString("CATALOG_BBOX"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),

			CORSOrigins: viper.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Catalog: CatalogConfig{
			Source:      strings.ToLower(viper.GetString("CATALOG_SOURCE")),
			UDAPURL:     viper.GetString("CATALOG_UDAP_URL"),
			CacheFile:   viper.GetString("CATALOG_CACHE_FILE"),
			OverpassURL: viper.GetString("CATALOG_OVERPASS_URL"),
			BBox:        bbox,
			Timeout:     viper.GetDuration("CATALOG_TIMEOUT"),
		},
		Geocoder: GeocoderConfig{
			PDOKURL:      viper.GetString("GEOCODER_PDOK_URL"),
			NominatimURL: viper.GetString("GEOCODER_NOMINATIM_URL"),
			UserAgent:    viper.GetString("GEOCODER_USER_AGENT"),
			Timeout:      viper.GetDuration("GEOCODER_TIMEOUT"),
		},
		Router: RouterConfig{
			URL:     viper.GetString("ROUTER_URL"),
			APIKey:  viper.GetString("ROUTER_API_KEY"),
			Timeout: viper.GetDuration("ROUTER_TIMEOUT"),
		},
		Registry: RegistryConfig{
			URL:      viper.GetString("REGISTRY_URL"),
			AppToken: viper.GetString("REGISTRY_APP_TOKEN"),
			Timeout:  viper.GetDuration("REGISTRY_TIMEOUT"),
			CacheTTL: viper.GetDuration("REGISTRY_CACHE_TTL"),
		},
		Payment: PaymentConfig{
			URL:          viper.GetString("PAYMENT_URL"),
			SecretKey:    viper.GetString("PAYMENT_SECRET_KEY"),
			Currency:     viper.GetString("PAYMENT_CURRENCY"),
			PricePerRow:  viper.GetInt64("PAYMENT_PRICE_PER_ROW_CENTS"),
			SuccessURL:   viper.GetString("PAYMENT_SUCCESS_URL"),
			CancelURL:    viper.GetString("PAYMENT_CANCEL_URL"),
			Timeout:      viper.GetDuration("PAYMENT_TIMEOUT"),
			PollInterval: viper.GetDuration("PAYMENT_POLL_INTERVAL"),
		},
		Bulk: BulkConfig{
			FreeRows:            viper.GetInt("BULK_FREE_ROWS"),
			MaxRows:             viper.GetInt("BULK_MAX_ROWS"),
			RowDelay:            viper.GetDuration("BULK_ROW_DELAY"),
			FreeBatchesPerDay:   viper.GetInt("BULK_FREE_BATCHES_PER_DAY"),
			QuotaWindow:         viper.GetDuration("BULK_QUOTA_WINDOW"),
			DefaultThresholdKm:  viper.GetFloat64("BULK_DEFAULT_THRESHOLD_KM"),
			DefaultVehicleClass: strings.ToLower(viper.GetString("BULK_DEFAULT_VEHICLE_CLASS")),
		},
		Savings: SavingsConfig{
			TablesFile: viper.GetString("SAVINGS_TABLES_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")
	viper.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("WORKER_CONSUMER_GROUP", "route-impact-workers")
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_MAX_RETRIES", 3)

	viper.SetDefault("CATALOG_SOURCE", "udap")
	viper.SetDefault("CATALOG_UDAP_URL", "https://map.udap.nl/api/v1/subjects")
	viper.SetDefault("CATALOG_OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	viper.SetDefault("CATALOG_BBOX", "50.75,3.2,53.7,7.22")
	viper.SetDefault("CATALOG_TIMEOUT", "60s")

	viper.SetDefault("GEOCODER_PDOK_URL", "https://api.pdok.nl/bzk/locatieserver/search/v3_1")
	viper.SetDefault("GEOCODER_NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("GEOCODER_USER_AGENT", "route-impact/1.0")
	viper.SetDefault("GEOCODER_TIMEOUT", "10s")

	viper.SetDefault("ROUTER_URL", "https://api.openrouteservice.org")
	viper.SetDefault("ROUTER_TIMEOUT", "30s")

	viper.SetDefault("REGISTRY_URL", "https://opendata.rdw.nl")
	viper.SetDefault("REGISTRY_TIMEOUT", "5s")
	viper.SetDefault("REGISTRY_CACHE_TTL", "720h")

	viper.SetDefault("PAYMENT_URL", "https://api.stripe.com")
	viper.SetDefault("PAYMENT_CURRENCY", "eur")
	viper.SetDefault("PAYMENT_PRICE_PER_ROW_CENTS", 50)
	viper.SetDefault("PAYMENT_TIMEOUT", "15s")
	viper.SetDefault("PAYMENT_POLL_INTERVAL", "3s")

	viper.SetDefault("BULK_FREE_ROWS", 10)
	viper.SetDefault("BULK_MAX_ROWS", 500)
	viper.SetDefault("BULK_ROW_DELAY", "1100ms")
	viper.SetDefault("BULK_FREE_BATCHES_PER_DAY", 3)
	viper.SetDefault("BULK_QUOTA_WINDOW", "24h")
	viper.SetDefault("BULK_DEFAULT_THRESHOLD_KM", 0.035)
	viper.SetDefault("BULK_DEFAULT_VEHICLE_CLASS", "heavy")
}

// Validate проверяет значения, без которых сервис не может стартовать
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "udap", "overpass", "postgres":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Bulk.DefaultVehicleClass != "light" && c.Bulk.DefaultVehicleClass != "heavy" {
		return fmt.Errorf("unknown default vehicle class %q", c.Bulk.DefaultVehicleClass)
	}
	if c.Bulk.FreeRows < 0 || c.Bulk.MaxRows <= 0 || c.Bulk.FreeRows > c.Bulk.MaxRows {
		return fmt.Errorf("invalid bulk limits: free=%d max=%d", c.Bulk.FreeRows, c.Bulk.MaxRows)
	}
	if c.Bulk.DefaultThresholdKm <= 0 {
		return fmt.Errorf("threshold must be positive, got %f", c.Bulk.DefaultThresholdKm)
	}
	return nil
}

func parseBBox(s string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return bbox, fmt.Errorf("invalid bbox %q: want minLat,minLng,maxLat,maxLng", s)
	}
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &bbox[i]); err != nil {
			return bbox, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
	}
	return bbox, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
