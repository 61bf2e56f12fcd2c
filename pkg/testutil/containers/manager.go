//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager hands out one container per backend for the whole test binary.
// Suites share containers and isolate themselves with TruncateTables/FlushAll.
type Manager struct {
	pgOnce  sync.Once
	pg      *PostgresContainer
	rdsOnce sync.Once
	rds     *RedisContainer
	rpOnce  sync.Once
	rp      *RedpandaContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() {
		m.pg = NewPostgresContainer(t)
	})
	if m.pg == nil {
		t.Fatal("postgres container failed to start in an earlier suite")
	}
	return m.pg
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.rdsOnce.Do(func() {
		m.rds = NewRedisContainer(t)
	})
	if m.rds == nil {
		t.Fatal("redis container failed to start in an earlier suite")
	}
	return m.rds
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.rpOnce.Do(func() {
		m.rp = NewRedpandaContainer(t)
	})
	if m.rp == nil {
		t.Fatal("redpanda container failed to start in an earlier suite")
	}
	return m.rp
}
