// config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	MongoDBName string
	AuthURL     string
	RabbitURL   string
	OrdersURL   string
	Port        string

	LogLevel  string
	LogFormat string

	Storage StorageConfig
	Queue   QueueConfig

	// Etiquetas
	LabelFormat    string
	LabelTempDir   string
	CarrierTimeout time.Duration
}

// StorageConfig para el bucket S3 (o compatible: MinIO, RustFS) donde viven los assets.
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// QueueConfig controla la cola de pasos (buy → label).
type QueueConfig struct {
	Name         string
	Prefetch     int
	Workers      int
	JobRetries   int
	RetryBackoff time.Duration
	BuyDelay     time.Duration
	RequeueDelay time.Duration
}

func Load() *Config {
	// .env es opcional; en contenedores las variables vienen del entorno
	_ = godotenv.Load()

	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "shipment_orchestrator_db"),
		AuthURL:     getEnv("AUTH_URL", "http://host.docker.internal:3000"),
		RabbitURL:   getEnv("RABBIT_URL", "amqp://host.docker.internal"),
		OrdersURL:   getEnv("ORDERS_URL", "http://host.docker.internal:3004"),
		Port:        getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Storage: StorageConfig{
			Endpoint:     getEnv("S3_ENDPOINT", "http://host.docker.internal:9000"),
			Region:       getEnv("S3_REGION", "us-east-1"),
			Bucket:       getEnv("S3_BUCKET", "labels"),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", true),
		},
		Queue: QueueConfig{
			Name:         getEnv("QUEUE_NAME", "order_progress"),
			Prefetch:     getEnvInt("QUEUE_PREFETCH", 10),
			Workers:      getEnvInt("QUEUE_WORKERS", 2),
			JobRetries:   getEnvInt("JOB_RETRIES", 3),
			RetryBackoff: getEnvDuration("JOB_RETRY_BACKOFF", 10*time.Second),
			BuyDelay:     getEnvDuration("BUY_DELAY", 5*time.Second),
			RequeueDelay: getEnvDuration("REQUEUE_DELAY", 5*time.Second),
		},

		LabelFormat:    getEnv("LABEL_FORMAT", "pdf"),
		LabelTempDir:   getEnv("LABEL_TEMP_DIR", os.TempDir()),
		CarrierTimeout: getEnvDuration("CARRIER_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Acepta "5s", "1m30s"; un entero se interpreta como milisegundos.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
