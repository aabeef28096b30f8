package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"Transflower/pkg/kit"
)

const (
	prefix           = "CATALOG"
	storefrontPrefix = "STOREFRONT"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	minSecretLen = 32
)

type Config struct {
	Port        string `default:"8082"`
	LogLevel    string `split_words:"true" default:"info"`
	Environment string `default:"development"`

	Backend     string `default:"file"`
	DataFile    string `split_words:"true" default:"data/products.json"`
	Seed        bool   `default:"true"`
	DatabaseURL string `split_words:"true"`

	JWTSecret         string `envconfig:"JWT_SECRET"`
	AdminUser         string `split_words:"true" default:"admin"`
	AdminPasswordHash string `split_words:"true"`
	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `split_words:"true"`

	MetricsEnabled bool   `split_words:"true"`
	MetricsToken   string `split_words:"true"`
}

// Load reads an optional .env file (never overriding variables already
// set), then CATALOG_* variables.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			return errors.New("CATALOG_DATA_FILE is required for the file backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("CATALOG_DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.Backend)
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("CATALOG_JWT_SECRET must be at least %d chars", minSecretLen)
	}
	if _, err := kit.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("CATALOG_TRUSTED_PROXIES: %w", err)
	}
	if c.JWTSecret != "" && c.AdminPasswordHash == "" {
		return errors.New("CATALOG_ADMIN_PASSWORD_HASH is required when CATALOG_JWT_SECRET is set")
	}
	return nil
}

// WritesProtected reports whether mutating routes require a token.
func (c Config) WritesProtected() bool { return c.JWTSecret != "" }

func (c Config) IsProduction() bool { return c.Environment == "production" }

// Storefront configures the browser-facing host (STOREFRONT_* variables).
type Storefront struct {
	Port        string `default:"8080"`
	LogLevel    string `split_words:"true" default:"info"`
	Environment string `default:"development"`

	CatalogURL string `split_words:"true" default:"http://localhost:8082"`
	WebRoot    string `split_words:"true"`

	MetricsEnabled bool   `split_words:"true"`
	MetricsToken   string `split_words:"true"`
}

func LoadStorefront(envFiles ...string) (Storefront, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Storefront{}, err
	}

	var c Storefront
	if err := envconfig.Process(storefrontPrefix, &c); err != nil {
		return Storefront{}, err
	}
	if c.CatalogURL == "" {
		return Storefront{}, errors.New("STOREFRONT_CATALOG_URL is required")
	}
	return c, nil
}

func (c Storefront) IsProduction() bool { return c.Environment == "production" }
