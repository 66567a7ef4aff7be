package runs

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/slpu/game/service"
)

var (
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRunID     = errors.New("invalid run ID")
)

// Manager handles the run history
type Manager struct {
	runs        map[string]*service.Run
	persistence Persistence
	mu          sync.RWMutex
}

// NewManager creates a new in-memory run manager
func NewManager() *Manager {
	return &Manager{
		runs: make(map[string]*service.Run),
	}
}

// NewManagerWithPersistence creates a new run manager backed by persistence
func NewManagerWithPersistence(persistence Persistence) *Manager {
	return &Manager{
		runs:        make(map[string]*service.Run),
		persistence: persistence,
	}
}

// Create records a run. A missing ID or creation time is filled in.
func (m *Manager) Create(run *service.Run) (*service.Run, error) {
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}

	stored := *run
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else if _, err := uuid.Parse(stored.ID); err != nil {
		return nil, ErrInvalidRunID
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[stored.ID]; exists {
		return nil, ErrRunAlreadyExists
	}
	m.runs[stored.ID] = &stored

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(&stored); err != nil {
			// Log error but don't fail the creation
			log.Printf("Warning: Failed to persist run %s: %v", stored.ID, err)
		}
	}

	return &stored, nil
}

// Get retrieves a run by ID
func (m *Manager) Get(id string) (*service.Run, error) {
	m.mu.RLock()
	run, exists := m.runs[id]
	m.mu.RUnlock()

	if exists {
		return run, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		run, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		m.runs[id] = run
		m.mu.Unlock()

		return run, nil
	}

	return nil, service.ErrRunNotFound
}

// List returns all runs, newest first
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.runs[id]
	delete(m.runs, id)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return service.ErrRunNotFound
	}
	return nil
}

// CleanupExpiredRuns removes runs created before now minus maxAge
func (m *Manager) CleanupExpiredRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			if m.persistence != nil {
				if err := m.persistence.Delete(id); err != nil && !errors.Is(err, service.ErrRunNotFound) {
					log.Printf("Warning: Failed to delete expired run %s: %v", id, err)
				}
			}
			removed++
		}
	}

	return removed
}

// Count returns the number of runs held in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersistedRuns loads all persisted runs into memory
func (m *Manager) LoadPersistedRuns() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, exists := m.runs[id]; exists {
			continue
		}

		run, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted run %s: %v", id, err)
			continue
		}

		m.runs[id] = run
		loaded++
	}

	if loaded > 0 {
		log.Printf("Loaded %d persisted runs from storage", loaded)
	}

	return nil
}
