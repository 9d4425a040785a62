//go:build integration

// Package containers provides testcontainers-based fixtures for integration
// tests. Containers start on first request and are shared across suites in
// the same test process; Ryuk reclaims them when the process exits.
package containers

import (
	"sync"
	"testing"
)

// shared is the process-wide container set. Suites in the same test binary
// reuse one Postgres and one Redpanda instead of paying startup per suite.
var shared struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
}

// SharedPostgres returns the process-wide Postgres container, starting it on
// first use. A start that failed its calling test is retried by the next.
func SharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.postgres == nil {
		shared.postgres = NewPostgresContainer(t)
	}
	return shared.postgres
}

// SharedKafka returns the process-wide Kafka container, starting it on
// first use.
func SharedKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.kafka == nil {
		shared.kafka = NewKafkaContainer(t)
	}
	return shared.kafka
}
