package engine

import (
	"sync"
	"time"

	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

const defaultShutdownTimeout = 30 * time.Second

// Worker is the interface implemented by the per-duration scheduler workers.
type Worker interface {
	Start()
	Stop()
}

// Manager owns the engine's workers and shared resources.
type Manager struct {
	workers []Worker
	kvstore kvstore.KVStore
	emitter events.Emitter
	redis   infra.RedisClient
}

func NewManager(kv kvstore.KVStore, emitter events.Emitter, redis infra.RedisClient) *Manager {
	return &Manager{
		kvstore: kv,
		emitter: emitter,
		redis:   redis,
	}
}

// AddWorkers injects workers into the manager.
func (m *Manager) AddWorkers(workers ...Worker) {
	m.workers = append(m.workers, workers...)
}

// Start launches all injected workers.
func (m *Manager) Start() {
	for _, w := range m.workers {
		w.Start()
	}
}

// Stop shuts down all workers concurrently with a timeout, then closes resources.
func (m *Manager) Stop() {
	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, w := range m.workers {
			if w != nil {
				wg.Add(1)
				go func(w Worker) {
					defer wg.Done()
					w.Stop()
				}(w)
			}
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All workers stopped")
	case <-time.After(defaultShutdownTimeout):
		logger.Warn("Worker shutdown timed out, proceeding with resource cleanup",
			"timeout", defaultShutdownTimeout)
	}

	if m.emitter != nil {
		m.emitter.Close()
	}
	m.closeResource("KV store", m.kvstore != nil, func() error { return m.kvstore.Close() })
	m.closeResource("redis client", m.redis != nil, func() error { return m.redis.Close() })

	logger.Info("Manager stopped")
}

func (m *Manager) closeResource(name string, present bool, closer func() error) {
	if present {
		if err := closer(); err != nil {
			logger.Error("Failed to close "+name, "err", err)
		}
	}
}
