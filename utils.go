package main

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Config holds everything read from the environment at startup.
type Config struct {
	InstanceID string

	WebListen     string
	APIKey        string
	ProxyProtocol bool

	PrometheusListen string
	PrometheusPath   string

	AMQPURL      string
	JobsQueue    string
	ResultsQueue string

	LogLevel     string
	LokiURL      string
	LokiUsername string
	LokiPassword string
}

func loadConfig() Config {
	return Config{
		InstanceID:       getEnv("INSTANCE_ID", uuid.New().String()),
		WebListen:        getEnv("WEB_LISTEN", "0.0.0.0:3000"),
		APIKey:           os.Getenv("API_KEY"),
		ProxyProtocol:    getEnvBool("HAPROXY_PROXY_PROTOCOL"),
		PrometheusListen: getEnv("PROMETHEUS_LISTEN", ":2550"),
		PrometheusPath:   getEnv("PROMETHEUS_PATH", "/metrics"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		JobsQueue:        getEnv("TEXT_JOBS_QUEUE", "insim.text.jobs"),
		ResultsQueue:     getEnv("TEXT_RESULTS_QUEUE", "insim.text.results"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LokiURL:          os.Getenv("LOKI_URL"),
		LokiUsername:     os.Getenv("LOKI_USERNAME"),
		LokiPassword:     os.Getenv("LOKI_PASSWORD"),
	}
}

// getEnv returns the variable or def when it is unset or blank.
func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// decodeHexPayload accepts hex with optional spaces, as copied from packet dumps.
func decodeHexPayload(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}
