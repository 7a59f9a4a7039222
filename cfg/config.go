package cfg

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AmadeusConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type SearchConfig struct {
	Currency   string
	MaxResults int
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

type Config struct {
	AppEnv          string
	AppPort         string
	RedisConfig     RedisConfig
	Postgres        PostgresConfig
	Amadeus         AmadeusConfig
	Search          SearchConfig
	Observability   ObservabilityConfig
	CacheTTLMinutes int
}

func Load() (*Config, error) {
	var errs []error

	err := godotenv.Load()
	if err != nil {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := mustEnv("APP_PORT", &errs)

	redisHost := mustEnv("REDIS_HOST", &errs)
	redisPort := mustEnv("REDIS_PORT", &errs)
	redisPassword := mustEnv("REDIS_PASSWORD", &errs)

	pgHost := mustEnv("POSTGRES_HOST", &errs)
	pgPort := mustEnv("POSTGRES_PORT", &errs)
	pgUser := mustEnv("POSTGRES_USER", &errs)
	pgPassword := mustEnv("POSTGRES_PASSWORD", &errs)
	pgDBName := mustEnv("POSTGRES_DB", &errs)
	pgSSLMode := envOrDefault("POSTGRES_SSLMODE", "disable")

	amadeusBaseUrl := mustEnv("AMADEUS_BASE_URL", &errs)
	amadeusTokenUrl := mustEnv("AMADEUS_TOKEN_URL", &errs)
	amadeusClientID := mustEnv("AMADEUS_CLIENT_ID", &errs)
	amadeusClientSecret := mustEnv("AMADEUS_CLIENT_SECRET", &errs)

	searchCurrency := envOrDefault("SEARCH_CURRENCY", "USD")
	searchMaxResults, err := strconv.Atoi(envOrDefault("SEARCH_MAX_RESULTS", "50"))
	if err != nil {
		errs = append(errs, errors.New("conversion failed env: "+"SEARCH_MAX_RESULTS"))
	}

	cacheTTLMinutes := mustEnv("CACHE_TTL_MINUTES", &errs)
	cacheTTLMinutesInt, err := strconv.Atoi(cacheTTLMinutes)
	if err != nil {
		errs = append(errs, errors.New("conversion failed env: "+"CACHE_TTL_MINUTES"))
	}

	otlpEndpoint := envOrDefault("OTLP_ENDPOINT", "localhost:4317")
	serviceName := envOrDefault("OTEL_SERVICE_NAME", "farefinder")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:  appEnv,
		AppPort: appPort,
		RedisConfig: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		Postgres: PostgresConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			DBName:   pgDBName,
			SSLMode:  pgSSLMode,
		},
		Amadeus: AmadeusConfig{
			BaseURL:      amadeusBaseUrl,
			TokenURL:     amadeusTokenUrl,
			ClientID:     amadeusClientID,
			ClientSecret: amadeusClientSecret,
		},
		Search: SearchConfig{
			Currency:   searchCurrency,
			MaxResults: searchMaxResults,
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: otlpEndpoint,
			ServiceName:  serviceName,
			Environment:  appEnv,
		},
		CacheTTLMinutes: cacheTTLMinutesInt,
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func envOrDefault(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}
