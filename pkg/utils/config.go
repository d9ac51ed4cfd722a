package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	// Bcrypt hash of the device pairing passphrase. Empty disables pairing.
	PairHash string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("BETTERFICTION_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("BETTERFICTION_JWT_ISSUER")
	if issuer == "" {
		issuer = "betterfiction"
	}

	duration := 30 * 24 * time.Hour
	if ttl := os.Getenv("BETTERFICTION_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
		PairHash:    os.Getenv("BETTERFICTION_PAIR_HASH"),
	}
}

type ServerConfig struct {
	HTTPAddr string
	SyncAddr string
}

func LoadServerConfig() ServerConfig {
	httpAddr := os.Getenv("BETTERFICTION_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	syncAddr := os.Getenv("BETTERFICTION_SYNC_ADDR")
	if syncAddr == "" {
		syncAddr = ":7070"
	}
	return ServerConfig{HTTPAddr: httpAddr, SyncAddr: syncAddr}
}

type SourceConfig struct {
	BaseURL string
}

func LoadSourceConfig() SourceConfig {
	base := os.Getenv("BETTERFICTION_SOURCE_URL")
	if base == "" {
		base = "https://www.fanfiction.net"
	}
	return SourceConfig{BaseURL: base}
}
