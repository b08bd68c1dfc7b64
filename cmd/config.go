package cmd

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration values for commands.
type Config struct {
	Port          string
	MetricsPort   string
	UpstreamHost  string
	UpstreamPort  int
	ProxyName     string
	Timeout       time.Duration
	ProxyTimeout  time.Duration
	ProxyProtocol bool
	CheckTimeout  time.Duration
}

// GetConfigFromEnvironment creates a Config object based on the shell
// environment.
func GetConfigFromEnvironment() *Config {
	return &Config{
		Port:          env("PORT", "8080"),
		MetricsPort:   env("METRICS_PORT", "8081"),
		UpstreamHost:  env("UPSTREAM_HOST", "localhost"),
		UpstreamPort:  int(envInt("UPSTREAM_PORT", 80)),
		ProxyName:     env("PROXY_NAME", ""),
		Timeout:       envDuration("CLIENT_TIMEOUT", 0),
		ProxyTimeout:  envDuration("UPSTREAM_TIMEOUT", 0),
		ProxyProtocol: envBool("PROXY_PROTOCOL", false),
		CheckTimeout:  envDuration("CHECK_TIMEOUT", 500*time.Millisecond),
	}
}

func env(key string, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return def
}

func envInt(key string, def int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, _ := strconv.ParseInt(value, 10, 64)
		return i
	}

	return def
}

func envBool(key string, def bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, _ := strconv.ParseBool(value)
		return b
	}

	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return def
		}
		return d
	}

	return def
}
