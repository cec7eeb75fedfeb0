package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A dotenv file is
// loaded first (the -env flag, or ./.env); variables already present in the
// environment win over the file. A missing dotenv file is not an error, a
// malformed one panics like the other config sources.
//
// Recognized variables:
//
//	SERVER_PORT          REST API port (EXPRESSPORT is accepted too)
//	GRPC_HEALTH_ADDR     gRPC health bind address
//	DATABASE_DSN         full PostgreSQL DSN
//	DB_USERNAME, DB_PASSWORD, DB_HOST, DB_NAME
//	                     DSN parts, used when DATABASE_DSN is unset
//	JWT_SECRET           token signing key
//	DUPE_USER, DUPE_EMAIL
//	APP_LOG_PATH, ERROR_LOG_PATH
//	CORS_ORIGINS         comma separated
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
//	LOG_ARCHIVE_INTERVAL Go duration, e.g. "15m"
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlag()
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	for _, key := range []string{"EXPRESSPORT", "SERVER_PORT"} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			config.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
		}
	}
	setString(&config.EndpointAddrGRPC, "GRPC_HEALTH_ADDR")

	if dsn := dsnFromParts(); dsn != "" {
		config.DatabaseDSN = dsn
	}
	setString(&config.DatabaseDSN, "DATABASE_DSN")

	setString(&config.SecretKey, "JWT_SECRET")
	setString(&config.DupeUserMessage, "DUPE_USER")
	setString(&config.DupeEmailMessage, "DUPE_EMAIL")
	setString(&config.AppLogPath, "APP_LOG_PATH")
	setString(&config.ErrorLogPath, "ERROR_LOG_PATH")

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.RateLimitRPS = f
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.RateLimitBurst = n
	}

	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	if v, ok := os.LookupEnv("LOG_ARCHIVE_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.LogArchiveInterval = d
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// dsnFromParts composes a PostgreSQL URL from DB_* variables. It returns ""
// unless both DB_HOST and DB_NAME are set.
func dsnFromParts() string {
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	if !strings.Contains(host, ":") {
		host += ":5432"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if user := os.Getenv("DB_USERNAME"); user != "" {
		if pass, ok := os.LookupEnv("DB_PASSWORD"); ok {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
