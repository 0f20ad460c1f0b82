package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/messaging/kafka"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Переменные окружения, из которых читается Config.
const (
	EnvHTTPAddr            = "CRM_HTTP_ADDR"
	EnvGRPCAddr            = "CRM_GRPC_ADDR"
	EnvMetricsAddr         = "CRM_METRICS_ADDR"
	EnvStorageDriver       = "CRM_STORAGE_DRIVER"
	EnvPostgresDSN         = "CRM_POSTGRES_DSN"
	EnvPostgresAutoMigrate = "CRM_POSTGRES_AUTO_MIGRATE"
	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaTopic          = "CRM_KAFKA_TOPIC"
	EnvLogLevel            = "CRM_LOG_LEVEL"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// Пустой список отключает публикацию событий.
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8000",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          kafka.TopicCRMEvents,
		LogLevel:            "info",
	}
}

// LoadConfigFromEnv накладывает переменные окружения на DefaultConfig.
// getenv обычно os.Getenv; пустое значение переменной оставляет значение по умолчанию.
func LoadConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(EnvHTTPAddr, &cfg.HTTPAddr)
	setString(EnvGRPCAddr, &cfg.GRPCAddr)
	setString(EnvMetricsAddr, &cfg.MetricsAddr)
	setString(EnvPostgresDSN, &cfg.PostgresDSN)
	setString(EnvKafkaTopic, &cfg.KafkaTopic)
	setString(EnvLogLevel, &cfg.LogLevel)

	if v := strings.TrimSpace(getenv(EnvStorageDriver)); v != "" {
		cfg.StorageDriver = StorageDriver(strings.ToLower(v))
	}
	if v := strings.TrimSpace(getenv(EnvPostgresAutoMigrate)); v != "" {
		autoMigrate, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvPostgresAutoMigrate, err)
		}
		cfg.PostgresAutoMigrate = autoMigrate
	}
	cfg.KafkaBrokers = splitBrokers(getenv(EnvKafkaBrokers))

	return cfg, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
