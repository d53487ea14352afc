package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bike-rental-go/internal/models"

	"go.uber.org/zap"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// StatusCache holds committed bike snapshots. Only the ledger writes to it,
// and only while it holds the bike's lock.
type StatusCache interface {
	Get(ctx context.Context, bikeId int64) (*models.BikeStatus, bool)
	Set(ctx context.Context, status *models.BikeStatus) error
	Invalidate(ctx context.Context, bikeId int64) error
	Close()
}

// New builds the cache selected by cfg.Backend.
func New(ctx context.Context, cfg models.CacheConfig) (StatusCache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		zap.L().Info("Bike status cache disabled")
		return Nop{}, nil
	case BackendMemory:
		zap.L().Info("Using in-memory bike status cache", zap.Duration("ttl", cfg.TTL))
		return NewMemory(cfg.TTL), nil
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, int64) (*models.BikeStatus, bool) { return nil, false }
func (Nop) Set(context.Context, *models.BikeStatus) error         { return nil }
func (Nop) Invalidate(context.Context, int64) error               { return nil }
func (Nop) Close()                                                {}

type memoryEntry struct {
	status    models.BikeStatus
	expiresAt time.Time
}

// Memory is a process-local cache with a fixed time to live per entry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int64]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[int64]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, bikeId int64) (*models.BikeStatus, bool) {
	m.mu.RLock()
	entry, ok := m.entries[bikeId]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, bikeId)
		m.mu.Unlock()
		return nil, false
	}
	status := entry.status
	return &status, true
}

func (m *Memory) Set(_ context.Context, status *models.BikeStatus) error {
	if status == nil {
		return fmt.Errorf("cannot cache nil bike status")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[status.Id] = memoryEntry{status: *status, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, bikeId int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, bikeId)
	return nil
}

func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[int64]memoryEntry)
}
