package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process level configuration for the consent service.
type Config struct {
	Addr string

	// LogLevel selects the slog level: debug, info, warn or error.
	LogLevel string

	// DatabaseURL points at the primary PostgreSQL backend. Empty means the
	// primary is considered unreachable and selection starts at the secondary.
	DatabaseURL string

	// DocstorePath is the directory of the embedded document store used as
	// the durable secondary backend.
	DocstorePath string

	// OpTimeout bounds every repository operation.
	OpTimeout time.Duration

	// ProbeTimeout bounds each backend reachability probe at bind time.
	ProbeTimeout time.Duration

	// ProbeInterval enables the periodic primary reachability probe when
	// non-zero. The probe only observes; rebinding stays administrative.
	ProbeInterval time.Duration

	// AuditBrokers enables the Kafka audit mirror when non-empty.
	AuditBrokers []string
	AuditTopic   string

	// ActivitiesFile overrides the embedded processing activity register.
	ActivitiesFile  string
	WatchActivities bool

	// TrustedProxies lists CIDRs whose Forwarded headers are honored when
	// resolving the consent origin IP.
	TrustedProxies []string

	// AdminToken gates the administrative reconnect endpoint. Empty disables
	// the endpoint entirely.
	AdminToken string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from TUTELA_* environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("TUTELA_ADDR", ":8080"),
		LogLevel:        envOr("TUTELA_LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("TUTELA_DATABASE_URL"),
		DocstorePath:    envOr("TUTELA_DOCSTORE_PATH", "./data/docstore"),
		OpTimeout:       envDuration("TUTELA_OP_TIMEOUT", 5*time.Second),
		ProbeTimeout:    envDuration("TUTELA_PROBE_TIMEOUT", 3*time.Second),
		ProbeInterval:   envDuration("TUTELA_PROBE_INTERVAL", 0),
		AuditTopic:      envOr("TUTELA_AUDIT_TOPIC", "tutela.audit.events"),
		ActivitiesFile:  os.Getenv("TUTELA_ACTIVITIES_FILE"),
		WatchActivities: os.Getenv("TUTELA_ACTIVITIES_WATCH") == "true",
		AdminToken:      os.Getenv("TUTELA_ADMIN_TOKEN"),
		ShutdownTimeout: envDuration("TUTELA_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	cfg.AuditBrokers = splitList(os.Getenv("TUTELA_AUDIT_BROKERS"))
	cfg.TrustedProxies = splitList(os.Getenv("TUTELA_TRUSTED_PROXIES"))
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses a duration variable, keeping the default on absence or
// parse failure so a typo cannot take the service down at boot.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
