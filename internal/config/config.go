package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds everything the server and the CLI read from the environment.
type Config struct {
	Port   int
	AppEnv string

	JWTSecret string
	JWTTTL    time.Duration

	StoreDriver string
	PostgresDSN string
	MongoURI    string
	MongoDB     string

	Redis RedisConfig

	FrontendURL  string
	LogLevel     string
	MaxBodyBytes int64
}

// RedisConfig configures the cross-instance delivery bridge.
// An empty Addr disables the bridge.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func Default() *Config {
	return &Config{
		Port:         5001,
		AppEnv:       EnvDevelopment,
		JWTTTL:       7 * 24 * time.Hour,
		StoreDriver:  DriverPostgres,
		PostgresDSN:  "host=localhost user=user password=password dbname=duochat port=5432 sslmode=disable",
		MongoURI:     "mongodb://localhost:27017",
		MongoDB:      "duochat",
		Redis:        RedisConfig{Prefix: "duochat:"},
		FrontendURL:  "http://localhost:5173",
		LogLevel:     "info",
		MaxBodyBytes: 10 << 20,
	}
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load(files ...string) (*Config, bool) {
	loaded := godotenv.Load(files...) == nil
	return FromEnv(), loaded
}

// FromEnv builds a Config from environment variables, falling back to
// Default for anything unset or unparsable.
func FromEnv() *Config {
	cfg := Default()

	if port, ok := envInt("PORT"); ok {
		cfg.Port = port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.AppEnv = strings.ToLower(env)
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.JWTTTL = d
		}
	}

	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.StoreDriver = strings.ToLower(driver)
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.PostgresDSN = dsn
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		cfg.MongoURI = uri
	}
	if db := os.Getenv("MONGO_DB"); db != "" {
		cfg.MongoDB = db
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if db, ok := envInt("REDIS_DB"); ok {
		cfg.Redis.DB = db
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		cfg.Redis.Prefix = prefix
	}

	if url := os.Getenv("FRONTEND_URL"); url != "" {
		cfg.FrontendURL = url
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if n, ok := envInt("MAX_BODY_BYTES"); ok && n > 0 {
		cfg.MaxBodyBytes = int64(n)
	}
	return cfg
}

func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// BridgeEnabled reports whether a Redis address was configured.
func (c *Config) BridgeEnabled() bool { return c.Redis.Addr != "" }

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
