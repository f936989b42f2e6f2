package memory

import (
	"fmt"
	"sync"
	"time"

	"before-after/internal/logger"
	"before-after/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// DefaultLimit caps the native memory held by live Mats
const DefaultLimit = 1 << 30

// Manager tracks every Mat it is told about and recycles composite buffers
// of the same shape between renders.
type Manager struct {
	mu          sync.Mutex
	pools       map[PoolKey]*Pool
	allocations map[uint64]*AllocationRecord
	stats       Stats
	logger      logger.Logger
}

type PoolKey struct {
	Rows    int
	Cols    int
	MatType gocv.MatType
}

type AllocationRecord struct {
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PoolHits       int64
	PoolMisses     int64
	MaxAllowed     int64
}

// InUse is the number of bytes held by Mats that have not been closed
func (s Stats) InUse() int64 {
	return s.TotalAllocated - s.TotalReleased
}

func NewManager(log logger.Logger) *Manager {
	return NewManagerWithLimit(log, DefaultLimit)
}

func NewManagerWithLimit(log logger.Logger, limit int64) *Manager {
	return &Manager{
		pools:       make(map[PoolKey]*Pool),
		allocations: make(map[uint64]*AllocationRecord),
		stats:       Stats{MaxAllowed: limit},
		logger:      log,
	}
}

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[id] = &AllocationRecord{Tag: tag, CreatedAt: time.Now(), Size: size}
	m.stats.TotalAllocated += size
	m.stats.ActiveMats++
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.allocations[id]
	if !ok {
		m.logger.Warning("release of untracked Mat", map[string]interface{}{"id": id, "tag": tag})
		return
	}
	delete(m.allocations, id)
	m.stats.TotalReleased += record.Size
	m.stats.ActiveMats--
}

// GetMat returns a Mat of the requested shape, reusing a pooled one when possible.
// Its contents are undefined.
func (m *Manager) GetMat(rows, cols int, matType gocv.MatType, tag string) (*safe.Mat, error) {
	key := PoolKey{Rows: rows, Cols: cols, MatType: matType}

	m.mu.Lock()
	pool := m.pools[key]
	inUse := m.stats.InUse()
	limit := m.stats.MaxAllowed
	m.mu.Unlock()

	if pool != nil {
		if mat := pool.Get(); mat != nil {
			m.mu.Lock()
			m.stats.PoolHits++
			m.mu.Unlock()
			return mat, nil
		}
	}

	size := safe.ByteSize(rows, cols, matType)
	if limit > 0 && inUse+size > limit {
		return nil, fmt.Errorf("memory limit exceeded: %d bytes in use, %d requested", inUse, size)
	}

	mat, err := safe.NewMatWithTracker(rows, cols, matType, m, tag)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.stats.PoolMisses++
	m.mu.Unlock()
	return mat, nil
}

// ReleaseMat hands mat back for reuse, closing it when its pool is full
func (m *Manager) ReleaseMat(mat *safe.Mat) {
	if mat == nil || !mat.IsValid() {
		return
	}

	key := PoolKey{Rows: mat.Rows(), Cols: mat.Cols(), MatType: mat.Type()}

	m.mu.Lock()
	pool, ok := m.pools[key]
	if !ok {
		pool = NewPool(defaultPoolSize)
		m.pools[key] = pool
	}
	m.mu.Unlock()

	if !pool.Put(mat) {
		mat.Close()
	}
}

func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Cleanup closes every pooled Mat. Mats still held by callers are left alone.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[PoolKey]*Pool)
	m.mu.Unlock()

	closed := 0
	for _, pool := range pools {
		closed += pool.Cleanup()
	}
	return closed
}

func (m *Manager) Shutdown() {
	closed := m.Cleanup()
	stats := m.GetStats()

	m.logger.Info("memory manager shut down", map[string]interface{}{
		"pooled_closed": closed,
		"active_mats":   stats.ActiveMats,
		"in_use_bytes":  stats.InUse(),
	})
}
