package cite

// Manager collects citations keyed by KPI name for one extraction run.
type Manager struct {
	citations map[string]Citation
}

// NewManager creates an empty citation manager.
func NewManager() *Manager {
	return &Manager{citations: make(map[string]Citation)}
}

// Add stores a citation for a KPI, replacing any previous one.
func (m *Manager) Add(kpiKey string, c Citation) {
	m.citations[kpiKey] = c
}

// Get returns the citation for a KPI and whether one was recorded.
func (m *Manager) Get(kpiKey string) (Citation, bool) {
	c, ok := m.citations[kpiKey]
	return c, ok
}

// All returns a copy of every recorded citation.
func (m *Manager) All() map[string]Citation {
	out := make(map[string]Citation, len(m.citations))
	for k, v := range m.citations {
		out[k] = v
	}
	return out
}

// Clear drops all recorded citations.
func (m *Manager) Clear() {
	m.citations = make(map[string]Citation)
}
