package config

import (
	"os"
	"strconv"
	"strings"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
