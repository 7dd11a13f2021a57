package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// StateVersion is the current version of the registry file format.
const StateVersion = 1

// Registry is the set of devices this controller provisioned.
type Registry struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the registry was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Devices is ordered by first provisioning time.
	Devices []ProvisionedDevice `json:"devices,omitempty"`
}

// ProvisionedDevice is one registry entry.
type ProvisionedDevice struct {
	// DeviceID is the identifier the device reported or advertised. Zero
	// when unknown.
	DeviceID int `json:"device_id,omitempty"`

	// Name is the advertised name, e.g. SmartMonitor_7.
	Name string `json:"name,omitempty"`

	// Address is the transport handle the device was reached at.
	Address string `json:"address,omitempty"`

	// Transport is RADIO or ACCESS_POINT.
	Transport string `json:"transport"`

	// SSID is the network the device was provisioned onto.
	SSID string `json:"ssid"`

	// ProvisionedAt is when the device was first provisioned.
	ProvisionedAt time.Time `json:"provisioned_at"`

	// UpdatedAt is when the entry last changed.
	UpdatedAt time.Time `json:"updated_at"`

	// Reprovisioned counts later credential changes.
	Reprovisioned int `json:"reprovisioned,omitempty"`

	// VerifiedAt is when the device was last seen on the network.
	VerifiedAt time.Time `json:"verified_at,omitempty"`
}

// sameDevice reports whether d and o describe the same device.
func (d ProvisionedDevice) sameDevice(o ProvisionedDevice) bool {
	if d.DeviceID != 0 && o.DeviceID != 0 {
		return d.DeviceID == o.DeviceID
	}
	return d.Address != "" && d.Address == o.Address
}

// Find returns the entry for deviceID.
func (r *Registry) Find(deviceID int) (ProvisionedDevice, bool) {
	for _, d := range r.Devices {
		if d.DeviceID == deviceID {
			return d, true
		}
	}
	return ProvisionedDevice{}, false
}

// RegistryStore manages persistence of the registry to a JSON file.
type RegistryStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewRegistryStore creates a new registry store.
func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{path: path, now: time.Now}
}

// Path returns the registry file path.
func (s *RegistryStore) Path() string {
	return s.path
}

// Save persists the registry to disk.
func (s *RegistryStore) Save(reg *Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(reg)
}

func (s *RegistryStore) save(reg *Registry) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	reg.Version = StateVersion
	reg.SavedAt = s.now()

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the registry from disk.
// Returns nil, nil if the file doesn't exist (empty registry).
func (s *RegistryStore) Load() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *RegistryStore) load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reg := &Registry{}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if reg.Version > StateVersion {
		return nil, fmt.Errorf("%s: unsupported registry version %d", s.path, reg.Version)
	}

	return reg, nil
}

// Record inserts or updates the entry for a provisioned device. An
// existing entry keeps its first provisioning time and counts the update
// as a reprovisioning.
func (s *RegistryStore) Record(d ProvisionedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil {
		return err
	}
	if reg == nil {
		reg = &Registry{}
	}

	now := s.now()
	d.UpdatedAt = now

	for i, existing := range reg.Devices {
		if !existing.sameDevice(d) {
			continue
		}
		d.ProvisionedAt = existing.ProvisionedAt
		d.Reprovisioned = existing.Reprovisioned + 1
		if d.VerifiedAt.IsZero() {
			d.VerifiedAt = existing.VerifiedAt
		}
		if d.DeviceID == 0 {
			d.DeviceID = existing.DeviceID
		}
		reg.Devices[i] = d
		return s.save(reg)
	}

	if d.ProvisionedAt.IsZero() {
		d.ProvisionedAt = now
	}
	reg.Devices = append(reg.Devices, d)
	sort.SliceStable(reg.Devices, func(i, j int) bool {
		return reg.Devices[i].ProvisionedAt.Before(reg.Devices[j].ProvisionedAt)
	})
	return s.save(reg)
}

// MarkVerified records that deviceID was seen on the network at t.
// Unknown devices are ignored.
func (s *RegistryStore) MarkVerified(deviceID int, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil || reg == nil {
		return err
	}
	for i := range reg.Devices {
		if reg.Devices[i].DeviceID == deviceID {
			reg.Devices[i].VerifiedAt = t
			return s.save(reg)
		}
	}
	return nil
}

// Clear removes the registry file.
func (s *RegistryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
