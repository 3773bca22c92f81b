package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Kafka   KafkaConfig
	Observ  ObservabilityConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CatalogConfig struct {
	BaseURL        string
	TimeoutSeconds int
	ItemsPerPage   int
}

// KafkaConfig configures the order event stream. An empty broker list
// disables publishing and the fulfillment worker entirely.
type KafkaConfig struct {
	Brokers       []string
	TopicOrders   string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	catalogTimeout, _ := strconv.Atoi(getEnv("CATALOG_TIMEOUT_SECONDS", "10"))
	itemsPerPage, _ := strconv.Atoi(getEnv("ITEMS_PER_PAGE", "30"))

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Catalog: CatalogConfig{
			BaseURL:        getEnv("CATALOG_API_URL", "https://dummyjson.com"),
			TimeoutSeconds: catalogTimeout,
			ItemsPerPage:   itemsPerPage,
		},
		Kafka: KafkaConfig{
			Brokers:       brokers,
			TopicOrders:   getEnv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-fulfillment"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
