package application

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"redmine-mcp-server/internal/domain"
)

var (
	// ErrToolNotFound is returned by Lookup for names that were never registered.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateNameConflict is returned when a different descriptor is registered
	// under an existing name.
	ErrDuplicateNameConflict = errors.New("duplicate tool name with conflicting descriptor")
)

// ToolRegistry maps tool names to descriptors and remembers registration order for
// discovery. Registration normally completes before the server accepts requests;
// the mutex only matters if a deployment registers late.
type ToolRegistry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]domain.ToolDescriptor
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]domain.ToolDescriptor),
	}
}

// Register inserts descriptor. Registering an identical descriptor again is a no-op;
// a different descriptor under the same name fails and leaves the original in place.
func (r *ToolRegistry) Register(descriptor domain.ToolDescriptor) error {
	if descriptor.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if descriptor.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", descriptor.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[descriptor.Name]; ok {
		if sameDescriptor(existing, descriptor) {
			return nil
		}
		return domain.NewFailure(domain.KindDuplicateNameConflict,
			"tool %s is already registered with a different descriptor", descriptor.Name).WithCause(ErrDuplicateNameConflict)
	}

	r.tools[descriptor.Name] = descriptor
	r.order = append(r.order, descriptor.Name)
	return nil
}

// RegisterProviders registers every tool of every provider, stopping at the first error.
func (r *ToolRegistry) RegisterProviders(providers ...domain.ToolProvider) error {
	for _, provider := range providers {
		for _, descriptor := range provider.Tools() {
			if err := r.Register(descriptor); err != nil {
				return fmt.Errorf("failed to register %s tools: %w", provider.Resource(), err)
			}
		}
	}
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *ToolRegistry) Lookup(name string) (domain.ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptor, ok := r.tools[name]
	if !ok {
		return domain.ToolDescriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return descriptor, nil
}

// List returns the descriptors in registration order.
func (r *ToolRegistry) List() []domain.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Reset clears the registry. Only tests should need it.
func (r *ToolRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.tools = make(map[string]domain.ToolDescriptor)
}

// sameDescriptor compares schema by value and handler by function identity.
// Func values are not comparable in Go, so the code pointer plus the backing
// service stand in for handler equality.
func sameDescriptor(a, b domain.ToolDescriptor) bool {
	if a.Name != b.Name || !reflect.DeepEqual(a.Schema, b.Schema) {
		return false
	}
	if reflect.ValueOf(a.Handler).Pointer() != reflect.ValueOf(b.Handler).Pointer() {
		return false
	}
	return sameService(a.Service, b.Service)
}

// sameService reports whether a and b are the same service value. Maps, slices and
// funcs compare by identity; other values that cannot be compared with == (e.g. a
// struct holding a slice behind an interface field) count as different.
func sameService(a, b interface{}) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Type().Comparable() {
		return false
	}

	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
