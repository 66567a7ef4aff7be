package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/slpu/game/search"
	"github.com/wricardo/mcp-training/slpu/game/service"
)

// DefaultProfile is the profile name used when a request names none
const DefaultProfile = "default"

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manager handles search profile loading and caching
type Manager struct {
	configDir      string
	defaultProfile *search.Options
	profiles       map[string]*search.Options
	mu             sync.RWMutex
}

// NewManager creates a new profile manager. A missing directory is not an
// error: the manager then only serves the built-in default profile.
func NewManager(configDir string) (*Manager, error) {
	if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		profiles:  make(map[string]*search.Options),
	}

	if err := m.loadDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to load default profile: %w", err)
	}

	return m, nil
}

// LoadProfile loads a profile by name. The name "default" always resolves,
// falling back to the built-in profile when no default.json exists.
func (m *Manager) LoadProfile(name string) (*search.Options, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" {
		return m.GetDefault(), nil
	}
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: bad profile name %q", service.ErrInvalidProfile, name)
	}

	m.mu.RLock()
	if opts, exists := m.profiles[name]; exists {
		m.mu.RUnlock()
		return opts, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if opts, exists := m.profiles[name]; exists {
		return opts, nil
	}

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			if name == DefaultProfile {
				def := search.DefaultOptions()
				return &def, nil
			}
			return nil, service.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	opts, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = name
	}

	m.profiles[name] = opts
	return opts, nil
}

// Parse decodes and validates a profile document. Unset fields take the
// built-in defaults.
func Parse(data []byte) (*search.Options, error) {
	var raw search.Options
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	opts, err := search.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidProfile, err)
	}
	return &opts, nil
}

// ListProfiles returns information about all available profiles, the
// built-in default included.
func (m *Manager) ListProfiles() ([]*service.ProfileInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var profiles []*service.ProfileInfo
	hasDefault := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		opts, err := m.LoadProfile(name)
		if err != nil {
			// Skip invalid profiles
			continue
		}
		if name == DefaultProfile {
			hasDefault = true
		}

		profiles = append(profiles, profileInfo(entry.Name(), name, opts))
	}

	if !hasDefault {
		profiles = append(profiles, profileInfo("", DefaultProfile, m.GetDefault()))
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ProfileID < profiles[j].ProfileID
	})
	return profiles, nil
}

func profileInfo(filename, id string, opts *search.Options) *service.ProfileInfo {
	return &service.ProfileInfo{
		Filename:          filename,
		ProfileID:         id,
		Name:              opts.Name,
		Description:       opts.Description,
		Attempts:          opts.Attempts,
		MaxRolls:          opts.MaxRolls,
		CoverageThreshold: opts.CoverageThreshold,
		Rules:             opts.Rules,
	}
}

// GetDefault returns the default profile
func (m *Manager) GetDefault() *search.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault sets the default profile by name
func (m *Manager) SetDefault(name string) error {
	opts, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultProfile = opts
	return nil
}

// RefreshCache drops cached profiles so the next load reads from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.profiles = make(map[string]*search.Options)
	m.mu.Unlock()

	return m.loadDefaultProfile()
}

// ReloadProfile forces a profile to be read from disk again
func (m *Manager) ReloadProfile(name string) error {
	name = strings.TrimSuffix(name, ".json")

	m.mu.Lock()
	delete(m.profiles, name)
	m.mu.Unlock()

	opts, err := m.LoadProfile(name)
	if err != nil {
		return err
	}
	if name == DefaultProfile {
		m.mu.Lock()
		m.defaultProfile = opts
		m.mu.Unlock()
	}
	return nil
}

// loadDefaultProfile uses default.json when present and the built-in profile otherwise
func (m *Manager) loadDefaultProfile() error {
	opts, err := m.LoadProfile(DefaultProfile)
	if err != nil {
		def := search.DefaultOptions()
		opts = &def
	}

	m.mu.Lock()
	m.defaultProfile = opts
	m.mu.Unlock()
	return nil
}

// SaveProfile validates a profile and writes it to disk
func (m *Manager) SaveProfile(name string, opts *search.Options) error {
	if opts == nil {
		return fmt.Errorf("%w: profile cannot be nil", service.ErrInvalidProfile)
	}
	name = strings.TrimSuffix(name, ".json")
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: bad profile name %q", service.ErrInvalidProfile, name)
	}

	normalized, err := search.Normalize(*opts)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidProfile, err)
	}
	if normalized.Name == "" {
		normalized.Name = name
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[name] = &normalized
	if name == DefaultProfile {
		m.defaultProfile = &normalized
	}
	m.mu.Unlock()

	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.configDir, name+".json")
}
