package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/websocket"
)

// MockOptionRepository is a mock implementation of domain.OptionRepository
type MockOptionRepository struct {
	Options      map[string]*domain.Option
	GetCalls     int
	GetManyCalls int
	GetFn        func(key string) (*domain.Option, error)
	GetManyFn    func(keys []string) (map[string]*domain.Option, error)
	SetFn        func(key string, value map[string]any) (*domain.Option, error)
	DeleteFn     func(key string) error
	ListFn       func(prefix string) ([]*domain.Option, error)
}

// NewMockOptionRepository creates a new MockOptionRepository
func NewMockOptionRepository() *MockOptionRepository {
	return &MockOptionRepository{
		Options: make(map[string]*domain.Option),
	}
}

// Get retrieves an option by key
func (m *MockOptionRepository) Get(key string) (*domain.Option, error) {
	m.GetCalls++
	if m.GetFn != nil {
		return m.GetFn(key)
	}
	if option, ok := m.Options[key]; ok {
		return option, nil
	}
	return nil, domain.ErrNotFound
}

// GetMany retrieves the existing options among keys
func (m *MockOptionRepository) GetMany(keys []string) (map[string]*domain.Option, error) {
	m.GetManyCalls++
	if m.GetManyFn != nil {
		return m.GetManyFn(keys)
	}
	result := make(map[string]*domain.Option)
	for _, key := range keys {
		if option, ok := m.Options[key]; ok {
			result[key] = option
		}
	}
	return result, nil
}

// Set creates or replaces an option
func (m *MockOptionRepository) Set(key string, value map[string]any) (*domain.Option, error) {
	if m.SetFn != nil {
		return m.SetFn(key, value)
	}
	option := &domain.Option{Key: key, Value: value, UpdatedAt: time.Now()}
	m.Options[key] = option
	return option, nil
}

// Delete removes an option
func (m *MockOptionRepository) Delete(key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(key)
	}
	delete(m.Options, key)
	return nil
}

// ListByPrefix retrieves options whose key starts with prefix, ordered by key
func (m *MockOptionRepository) ListByPrefix(prefix string) ([]*domain.Option, error) {
	if m.ListFn != nil {
		return m.ListFn(prefix)
	}
	var options []*domain.Option
	for key, option := range m.Options {
		if strings.HasPrefix(key, prefix) {
			options = append(options, option)
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Key < options[j].Key })
	return options, nil
}

// AddOption adds an option to the mock repository (helper for tests)
func (m *MockOptionRepository) AddOption(key string, value map[string]any) {
	m.Options[key] = &domain.Option{Key: key, Value: value, UpdatedAt: time.Now()}
}

// MockShippingClassRepository is a mock implementation of domain.ShippingClassRepository
type MockShippingClassRepository struct {
	Classes  []*domain.ShippingClass
	GetAllFn func() ([]*domain.ShippingClass, error)
}

// NewMockShippingClassRepository creates a new MockShippingClassRepository
func NewMockShippingClassRepository() *MockShippingClassRepository {
	return &MockShippingClassRepository{}
}

// GetAll retrieves all shipping classes
func (m *MockShippingClassRepository) GetAll() ([]*domain.ShippingClass, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn()
	}
	return m.Classes, nil
}

// GetBySlug retrieves a shipping class by slug
func (m *MockShippingClassRepository) GetBySlug(slug string) (*domain.ShippingClass, error) {
	for _, class := range m.Classes {
		if class.Slug == slug {
			return class, nil
		}
	}
	return nil, domain.ErrShippingClassNotFound
}

// AddClass adds a shipping class (helper for tests)
func (m *MockShippingClassRepository) AddClass(slug, name string) *domain.ShippingClass {
	class := &domain.ShippingClass{
		ID:        int32(len(m.Classes) + 1),
		Slug:      slug,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.Classes = append(m.Classes, class)
	return class
}

// MockShippingZoneRepository is a mock implementation of domain.ShippingZoneRepository
type MockShippingZoneRepository struct {
	Zones    []*domain.ShippingZone
	GetAllFn func() ([]*domain.ShippingZone, error)
}

// NewMockShippingZoneRepository creates a new MockShippingZoneRepository
func NewMockShippingZoneRepository() *MockShippingZoneRepository {
	return &MockShippingZoneRepository{}
}

// GetAll retrieves all zones
func (m *MockShippingZoneRepository) GetAll() ([]*domain.ShippingZone, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn()
	}
	return m.Zones, nil
}

// AddZone adds a zone with the given method instances (helper for tests)
func (m *MockShippingZoneRepository) AddZone(name string, methods ...domain.ShippingMethodInstance) *domain.ShippingZone {
	zone := &domain.ShippingZone{
		ID:      int32(len(m.Zones) + 1),
		Name:    name,
		Order:   len(m.Zones),
		Methods: methods,
	}
	m.Zones = append(m.Zones, zone)
	return zone
}

// MockSnapshotRepository is an in-memory implementation of storage.SnapshotRepository
type MockSnapshotRepository struct {
	Objects  map[string][]byte
	UploadFn func(ctx context.Context, objectPath string, data []byte) error
	mu       sync.Mutex
}

// NewMockSnapshotRepository creates a new MockSnapshotRepository
func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores an object
func (m *MockSnapshotRepository) Upload(ctx context.Context, objectPath string, data []byte) error {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, objectPath, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = append([]byte(nil), data...)
	return nil
}

// Download returns a stored object
func (m *MockSnapshotRepository) Download(ctx context.Context, objectPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[objectPath]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return data, nil
}

// GeneratePresignedURL returns a fake URL for a stored object
func (m *MockSnapshotRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[objectPath]; !ok {
		return "", domain.ErrSnapshotNotFound
	}
	return fmt.Sprintf("https://snapshots.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	Events []websocket.Event
	mu     sync.Mutex
}

// Publish records the event
func (p *RecordingPublisher) Publish(event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// Types returns the recorded event types in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.Events))
	for i, event := range p.Events {
		types[i] = event.Type
	}
	return types
}
