package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-secret-change-me"

// Secrets shipped in sample env files. They are never accepted as real keys.
var placeholderSecrets = map[string]bool{
	"replace-with-strong-random-secret": true,
	"change-me-in-production":           true,
	devJWTSecret:                        true,
}

type Config struct {
	Port     string `env:"PORT" envDefault:"4000"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         int    `env:"DB_PORT" envDefault:"5432"`
	DBUsername     string `env:"DB_USERNAME" envDefault:"postgres"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME" envDefault:"friends_db"`
	DBSSL          *bool  `env:"DB_SSL"`
	DBAutoMigrate  bool   `env:"DB_AUTO_MIGRATE"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./data/friends.db"`

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"friend_service"`

	AuthProvider            string `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret               string `env:"JWT_SECRET"`
	DjangoSecretKey         string `env:"DJANGO_SECRET_KEY"`
	SecretKey               string `env:"SECRET_KEY"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080,http://127.0.0.1:8080"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.AuthProvider {
	case "jwt":
	case "firebase":
		if c.FirebaseCredentialsPath == "" {
			return errors.New("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ShouldAutoMigrate reports whether the schema may be migrated on start. Migration is
// opt-in and never runs in production.
func (c *Config) ShouldAutoMigrate() bool {
	return c.DBAutoMigrate && !c.IsProduction()
}

// useSSL follows DB_SSL when set and otherwise requires SSL in production.
func (c *Config) useSSL() bool {
	if c.DBSSL != nil {
		return *c.DBSSL
	}
	return c.IsProduction()
}

// PostgresDSN returns DATABASE_URL when set, otherwise a URL assembled from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if dsn := strings.TrimSpace(c.DatabaseURL); dsn != "" {
		return dsn
	}

	sslMode := "disable"
	if c.useSSL() {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUsername, c.DBPassword),
		Host:     c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// ResolveJWTSecret picks the first configured secret among JWT_SECRET, DJANGO_SECRET_KEY
// and SECRET_KEY. Outside production a missing or placeholder secret falls back to a
// development key.
func (c *Config) ResolveJWTSecret() (string, error) {
	secret := ""
	for _, candidate := range []string{c.JWTSecret, c.DjangoSecretKey, c.SecretKey} {
		if s := strings.TrimSpace(candidate); s != "" {
			secret = s
			break
		}
	}

	if secret != "" && !placeholderSecrets[secret] {
		return secret, nil
	}
	if !c.IsProduction() {
		return devJWTSecret, nil
	}
	return "", errors.New("JWT secret is invalid or missing in production")
}
