package downloader

import (
	"sync"

	"soulspot/internal/domain"
)

// JobRepository stores live playlist jobs and their transient stop
// flags. Implementations must be safe for concurrent use: job tasks
// mutate through it while API handlers read snapshots.
type JobRepository interface {
	// Put registers a new job.
	Put(job *domain.PlaylistJob)
	// Mutate runs fn on the stored job under the repository lock.
	// Returns false when the job does not exist.
	Mutate(id string, fn func(*domain.PlaylistJob)) bool
	// Snapshot returns a deep copy of the job.
	Snapshot(id string) (*domain.PlaylistJob, bool)
	// Snapshots returns deep copies of all jobs.
	Snapshots() []*domain.PlaylistJob
	// RequestStop sets the stop flag if the job exists and is running;
	// it reports whether the request was accepted.
	RequestStop(id string) bool
	// ClearStop clears the stop flag.
	ClearStop(id string)
	// StopRequested reports the stop flag.
	StopRequested(id string) bool
}

// MemoryJobs is the in-process JobRepository. Job state lives only in
// memory and is lost on restart.
type MemoryJobs struct {
	mu    sync.RWMutex
	jobs  map[string]*domain.PlaylistJob
	stops map[string]bool
	order []string
}

// NewMemoryJobs creates an empty in-memory repository.
func NewMemoryJobs() *MemoryJobs {
	return &MemoryJobs{
		jobs:  make(map[string]*domain.PlaylistJob),
		stops: make(map[string]bool),
	}
}

func (m *MemoryJobs) Put(job *domain.PlaylistJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[job.ID]; !exists {
		m.order = append(m.order, job.ID)
	}
	m.jobs[job.ID] = job
}

func (m *MemoryJobs) Mutate(id string, fn func(*domain.PlaylistJob)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return false
	}
	fn(job)
	return true
}

func (m *MemoryJobs) Snapshot(id string) (*domain.PlaylistJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

func (m *MemoryJobs) Snapshots() []*domain.PlaylistJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.PlaylistJob, 0, len(m.jobs))
	for _, id := range m.order {
		if job, ok := m.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

func (m *MemoryJobs) RequestStop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != domain.JobStatusRunning {
		return false
	}
	m.stops[id] = true
	return true
}

func (m *MemoryJobs) ClearStop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops[id] = false
}

func (m *MemoryJobs) StopRequested(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stops[id]
}
