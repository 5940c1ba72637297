package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	FilterDateFormat string

	JWTSecret []byte

	KafkaBrokers []string
	KafkaTopic   string

	ProductSource     string
	ProductServiceURL string
	ESURL             string
	ESUser            string
	ESPassword        string
	ESProductIndex    string
}

const (
	ProductSourceHTTP          = "http"
	ProductSourceElasticsearch = "elasticsearch"
)

// LoadDotEnv reads the given .env files into the environment. Missing files
// are logged and skipped.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			log.Printf("notice: %s not loaded: %v, using process environment", f, err)
		}
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shopcarts"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		FilterDateFormat: EnvDefault("FILTER_DATE_FORMAT", "2006-01-02"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "cart_events"),

		ProductSource:     strings.ToLower(os.Getenv("PRODUCT_SOURCE")),
		ProductServiceURL: os.Getenv("PRODUCT_SERVICE_URL"),
		ESURL:             os.Getenv("ES_URL"),
		ESUser:            os.Getenv("ES_USER"),
		ESPassword:        os.Getenv("ES_PASSWORD"),
		ESProductIndex:    EnvDefault("ES_PRODUCT_INDEX", "products"),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}

	switch c.DBDriver {
	case "postgres":
		if err := NonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
			errs = append(errs, err)
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	switch c.ProductSource {
	case "":
	case ProductSourceHTTP:
		if err := NonEmpty(c.ProductServiceURL, "PRODUCT_SERVICE_URL"); err != nil {
			errs = append(errs, err)
		}
	case ProductSourceElasticsearch:
		if err := NonEmpty(c.ESURL, "ES_URL"); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported PRODUCT_SOURCE %q", c.ProductSource))
	}

	if len(c.KafkaBrokers) > 0 {
		if err := NonEmpty(c.KafkaTopic, "KAFKA_TOPIC"); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
