package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Fare     FareConfig
	Dispatch DispatchConfig
	Sweep    SweepConfig
	Geocoder GeocoderConfig
	MQTT     MQTTConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	AutoMigrate   bool
	MigrationsDir string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// FareConfig holds the pricing constants.
type FareConfig struct {
	BaseFare           float64
	RatePerKm          float64
	PremiumSurcharge   float64
	ChildSeatSurcharge float64
	AverageSpeedKmh    float64
	BufferMinutes      int
}

// DispatchConfig holds driver acceptance and trip start rules.
type DispatchConfig struct {
	MinGap         time.Duration
	MaxBookedTrips int
	StartWindow    time.Duration
	LockTTL        time.Duration
	LockWait       time.Duration
}

// SweepConfig controls the periodic expiration sweep.
type SweepConfig struct {
	Interval time.Duration
	Enabled  bool
}

// GeocoderConfig holds the Nominatim client configuration.
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// MQTTConfig holds the notification broker configuration.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Topic    string
	QoS      int
	Timeout  time.Duration
}

// AuthConfig holds credential and token settings.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	TokenTTL  time.Duration
}

// Load loads configuration from environment variables.
// Values from a .env file in the working directory are loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "swiftride"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			AutoMigrate:   getBoolEnv("DB_AUTO_MIGRATE", false),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "swiftride-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Fare: FareConfig{
			BaseFare:           getFloatEnv("FARE_BASE", 11.80),
			RatePerKm:          getFloatEnv("FARE_RATE_PER_KM", 4.30),
			PremiumSurcharge:   getFloatEnv("FARE_PREMIUM_SURCHARGE", 25.00),
			ChildSeatSurcharge: getFloatEnv("FARE_CHILD_SEAT_SURCHARGE", 15.00),
			AverageSpeedKmh:    getFloatEnv("FARE_AVERAGE_SPEED_KMH", 40),
			BufferMinutes:      getIntEnv("FARE_BUFFER_MINUTES", 10),
		},
		Dispatch: DispatchConfig{
			MinGap:         getDurationEnv("DISPATCH_MIN_GAP", 30*time.Minute),
			MaxBookedTrips: getIntEnv("DISPATCH_MAX_BOOKED_TRIPS", 3),
			StartWindow:    getDurationEnv("DISPATCH_START_WINDOW", 10*time.Minute),
			LockTTL:        getDurationEnv("DISPATCH_LOCK_TTL", 10*time.Second),
			LockWait:       getDurationEnv("DISPATCH_LOCK_WAIT", 2*time.Second),
		},
		Sweep: SweepConfig{
			Interval: getDurationEnv("SWEEP_INTERVAL", time.Minute),
			Enabled:  getBoolEnv("SWEEP_ENABLED", true),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "SwiftRide/1.0"),
			Timeout:   getDurationEnv("GEOCODER_TIMEOUT", 5*time.Second),
			CacheTTL:  getDurationEnv("GEOCODER_CACHE_TTL", 24*time.Hour),
		},
		MQTT: MQTTConfig{
			Enabled:  getBoolEnv("MQTT_ENABLED", false),
			Broker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: getEnv("MQTT_CLIENT_ID", "swiftride-dispatch"),
			Topic:    getEnv("MQTT_TOPIC", "swiftride/email"),
			QoS:      getIntEnv("MQTT_QOS", 1),
			Timeout:  getDurationEnv("MQTT_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
			JWTExpiry: getDurationEnv("JWT_EXPIRY", 24*time.Hour),
			TokenTTL:  getDurationEnv("ONE_TIME_TOKEN_TTL", 10*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
