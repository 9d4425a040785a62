package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./data/docstore", cfg.DocstorePath)
	assert.Equal(t, 5*time.Second, cfg.OpTimeout)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Zero(t, cfg.ProbeInterval)
	assert.Empty(t, cfg.AuditBrokers)
	assert.Equal(t, "tutela.audit.events", cfg.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TUTELA_ADDR", ":9090")
	t.Setenv("TUTELA_LOG_LEVEL", "debug")
	t.Setenv("TUTELA_OP_TIMEOUT", "250ms")
	t.Setenv("TUTELA_AUDIT_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("TUTELA_TRUSTED_PROXIES", "10.0.0.0/8")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.OpTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.AuditBrokers)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestFromEnvBadDurationKeepsDefault(t *testing.T) {
	t.Setenv("TUTELA_OP_TIMEOUT", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Second, cfg.OpTimeout)
}
