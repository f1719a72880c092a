package directory

import (
	"sync"
)

// MemoryStats counts directory queries, mirroring the operational counters
// the sqlite registry gets from its logs. Tests use it to assert how often
// discovery actually hits the directory.
type MemoryStats struct {
	CountQueries   int
	NameQueries    int
	ActiveSets     int
	InfoQueries    int
	ActiveReleases int
}

// Memory is an in-process Directory used by tests and single-process demos.
type Memory struct {
	mu     sync.Mutex
	names  []string
	infos  map[string]Info
	active string
	stats  MemoryStats
	closed bool
}

func NewMemory() *Memory {
	return &Memory{infos: make(map[string]Info)}
}

// Add registers (or replaces) a producer entry.
func (m *Memory) Add(info Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.infos[info.Name]; !ok {
		m.names = append(m.names, info.Name)
	}
	m.infos[info.Name] = info
}

// Remove drops a producer entry.
func (m *Memory) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.infos[name]; !ok {
		return
	}
	delete(m.infos, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

func (m *Memory) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	m.stats.CountQueries++
	return len(m.names), nil
}

func (m *Memory) NameAt(index int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	m.stats.NameQueries++
	if index < 0 || index >= len(m.names) {
		return "", ErrNotFound
	}
	return m.names[index], nil
}

func (m *Memory) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.stats.ActiveSets++
	m.active = name
	return nil
}

func (m *Memory) InfoFor(name string) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	m.stats.InfoQueries++
	info, ok := m.infos[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := info
	return &out, nil
}

func (m *Memory) ReleaseActive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.stats.ActiveReleases++
	m.active = ""
	return nil
}

// ActiveName returns the current active selection, empty when none.
func (m *Memory) ActiveName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Stats returns a snapshot of the query counters.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
