package config

import (
	"os"
	"strconv"
	"time"
)

// MQTTConfig holds the broker connection settings for the signal publisher.
type MQTTConfig struct {
	Broker      string
	Port        int
	Username    string
	Password    string
	TopicPrefix string
	UseTLS      bool
}

// SyncConfig holds the edge sync agent settings. PeerURL is empty on the
// cloud deployment; the agent only runs where a peer is configured.
type SyncConfig struct {
	PeerURL  string
	Interval time.Duration
}

// Config holds all configuration for the API server and sync agent.
type Config struct {
	APIPort     int
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenExpire time.Duration
	UploadDir   string
	MQTT        MQTTConfig
	Sync        SyncConfig
	// Default admin seeded at first startup
	DefaultAdminUsername string
	DefaultAdminPassword string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		APIPort:     getEnvAsInt("API_PORT", 8000),
		DatabaseURL: getEnv("DATABASE_URL", "facegate.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "facegate-secret-change-in-production"),
		TokenExpire: time.Duration(getEnvAsInt("TOKEN_EXPIRE_MINUTES", 1440)) * time.Minute,
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		MQTT: MQTTConfig{
			Broker:      getEnv("MQTT_BROKER", "localhost"),
			Port:        getEnvAsInt("MQTT_PORT", 1883),
			Username:    getEnv("MQTT_USERNAME", ""),
			Password:    getEnv("MQTT_PASSWORD", ""),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "factory/machine"),
			UseTLS:      getEnvAsBool("MQTT_USE_TLS", false),
		},
		Sync: SyncConfig{
			PeerURL:  getEnv("SYNC_PEER_URL", ""),
			Interval: time.Duration(getEnvAsInt("SYNC_INTERVAL_SECONDS", 300)) * time.Second,
		},
		DefaultAdminUsername: getEnv("DEFAULT_ADMIN_USERNAME", "admin"),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
