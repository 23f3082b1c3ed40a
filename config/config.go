// Package config loads the service configuration from environment variables.
// Load never aborts: it fills in defaults and reports what is wrong as a
// Problem list, letting the binary decide whether to refuse startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RepositoriesInMemory = "IN_MEMORY"
	RepositoriesPG       = "PG"
)

type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Config struct {
	Repositories string
	DatabaseURL  string

	HTTPPort int
	LogLevel string

	JWTSecret              string
	MagicLinkTTL           time.Duration
	BackofficeUsername     string
	BackofficePasswordHash string

	CrawlerIntervalMS int
	CrawlerInterval   time.Duration
	CrawlerBatchSize  int
	DispatchTimeoutMS int
	DispatchTimeout   time.Duration
}

func Load() (Config, []Problem) {
	cfg := Config{
		Repositories:           RepositoriesInMemory,
		DatabaseURL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPPort:               8080,
		LogLevel:               "info",
		JWTSecret:              strings.TrimSpace(os.Getenv("JWT_SECRET")),
		BackofficeUsername:     strings.TrimSpace(os.Getenv("BACKOFFICE_USERNAME")),
		BackofficePasswordHash: strings.TrimSpace(os.Getenv("BACKOFFICE_PASSWORD_HASH")),
		CrawlerIntervalMS:      5000,
		CrawlerBatchSize:       100,
		DispatchTimeoutMS:      10000,
	}

	problems := make([]Problem, 0, 2)

	if v := strings.TrimSpace(os.Getenv("REPOSITORIES")); v != "" {
		switch strings.ToUpper(v) {
		case RepositoriesInMemory, RepositoriesPG:
			cfg.Repositories = strings.ToUpper(v)
		default:
			problems = append(problems, Problem{Field: "REPOSITORIES", Message: "REPOSITORIES must be IN_MEMORY or PG"})
		}
	}

	portRaw := strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if portRaw == "" {
		portRaw = strings.TrimSpace(os.Getenv("PORT"))
	}
	if portRaw != "" {
		if p, err := strconv.Atoi(portRaw); err != nil || p <= 0 || p > 65535 {
			problems = append(problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		} else {
			cfg.HTTPPort = p
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	ttlHours := 31 * 24
	if v := strings.TrimSpace(os.Getenv("MAGIC_LINK_TTL_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			problems = append(problems, Problem{Field: "MAGIC_LINK_TTL_HOURS", Message: "MAGIC_LINK_TTL_HOURS must be a positive integer"})
		} else {
			ttlHours = n
		}
	}
	cfg.MagicLinkTTL = time.Duration(ttlHours) * time.Hour

	if v := strings.TrimSpace(os.Getenv("CRAWLER_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			problems = append(problems, Problem{Field: "CRAWLER_INTERVAL_MS", Message: "CRAWLER_INTERVAL_MS must be an integer"})
		} else {
			cfg.CrawlerIntervalMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CRAWLER_BATCH_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			problems = append(problems, Problem{Field: "CRAWLER_BATCH_SIZE", Message: "CRAWLER_BATCH_SIZE must be a positive integer"})
		} else {
			cfg.CrawlerBatchSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DISPATCH_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			problems = append(problems, Problem{Field: "DISPATCH_TIMEOUT_MS", Message: "DISPATCH_TIMEOUT_MS must be a positive integer"})
		} else {
			cfg.DispatchTimeoutMS = n
		}
	}
	cfg.CrawlerInterval = time.Duration(cfg.CrawlerIntervalMS) * time.Millisecond
	cfg.DispatchTimeout = time.Duration(cfg.DispatchTimeoutMS) * time.Millisecond

	if cfg.JWTSecret == "" {
		problems = append(problems, Problem{Field: "JWT_SECRET", Message: "JWT_SECRET is required"})
	}
	if cfg.Repositories == RepositoriesPG && cfg.DatabaseURL == "" {
		problems = append(problems, Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required when REPOSITORIES=PG"})
	}

	return cfg, problems
}
