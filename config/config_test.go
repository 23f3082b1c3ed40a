package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REPOSITORIES", "DATABASE_URL", "HTTP_PORT", "PORT", "LOG_LEVEL",
		"JWT_SECRET", "MAGIC_LINK_TTL_HOURS", "BACKOFFICE_USERNAME",
		"BACKOFFICE_PASSWORD_HASH", "CRAWLER_INTERVAL_MS",
		"CRAWLER_BATCH_SIZE", "DISPATCH_TIMEOUT_MS",
	} {
		t.Setenv(key, "")
	}
}

func hasProblem(problems []Problem, field string) bool {
	for _, p := range problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, problems := Load()
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if cfg.Repositories != RepositoriesInMemory {
		t.Errorf("expected in-memory default, got %s", cfg.Repositories)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.CrawlerInterval != 5*time.Second {
		t.Errorf("expected default crawl interval 5s, got %s", cfg.CrawlerInterval)
	}
	if cfg.DispatchTimeout != 10*time.Second {
		t.Errorf("expected default dispatch timeout 10s, got %s", cfg.DispatchTimeout)
	}
	if cfg.MagicLinkTTL != 31*24*time.Hour {
		t.Errorf("expected default link TTL 31 days, got %s", cfg.MagicLinkTTL)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	clearEnv(t)

	_, problems := Load()
	if !hasProblem(problems, "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET problem, got %v", problems)
	}
}

func TestLoadPGRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REPOSITORIES", "PG")

	_, problems := Load()
	if !hasProblem(problems, "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL problem, got %v", problems)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/immersion")
	cfg, problems := Load()
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if cfg.Repositories != RepositoriesPG {
		t.Errorf("expected PG repositories, got %s", cfg.Repositories)
	}
}

func TestLoadRejectsUnknownRepositories(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REPOSITORIES", "MONGO")

	cfg, problems := Load()
	if !hasProblem(problems, "REPOSITORIES") {
		t.Fatalf("expected REPOSITORIES problem, got %v", problems)
	}
	if cfg.Repositories != RepositoriesInMemory {
		t.Errorf("invalid value must fall back to in-memory, got %s", cfg.Repositories)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("CRAWLER_INTERVAL_MS", "250")
	t.Setenv("CRAWLER_BATCH_SIZE", "10")
	t.Setenv("DISPATCH_TIMEOUT_MS", "1500")
	t.Setenv("MAGIC_LINK_TTL_HOURS", "24")

	cfg, problems := Load()
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if cfg.HTTPPort != 3000 {
		t.Errorf("port override lost, got %d", cfg.HTTPPort)
	}
	if cfg.CrawlerInterval != 250*time.Millisecond {
		t.Errorf("interval override lost, got %s", cfg.CrawlerInterval)
	}
	if cfg.CrawlerBatchSize != 10 {
		t.Errorf("batch size override lost, got %d", cfg.CrawlerBatchSize)
	}
	if cfg.DispatchTimeout != 1500*time.Millisecond {
		t.Errorf("dispatch timeout override lost, got %s", cfg.DispatchTimeout)
	}
	if cfg.MagicLinkTTL != 24*time.Hour {
		t.Errorf("link TTL override lost, got %s", cfg.MagicLinkTTL)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "not-a-port")

	cfg, problems := Load()
	if !hasProblem(problems, "HTTP_PORT") {
		t.Fatalf("expected HTTP_PORT problem, got %v", problems)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("bad port must keep the default, got %d", cfg.HTTPPort)
	}
}
