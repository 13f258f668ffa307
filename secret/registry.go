package secret

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from its configuration options.
type ProviderFactory func(opts map[string]any) (Provider, error)

// ProviderSpec names a provider and its options, as read from config.
type ProviderSpec struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// NewDefaultRegistry returns a registry holding the "env" and "file"
// providers. "file" accepts a "dir" option.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("env", func(map[string]any) (Provider, error) {
		return EnvProvider{}, nil
	})
	_ = r.Register("file", func(opts map[string]any) (Provider, error) {
		dir, _ := opts["dir"].(string)
		return FileProvider{Dir: dir}, nil
	})
	return r
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return errors.New("secret: invalid provider registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("secret: provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates the named provider.
func (r *Registry) Create(name string, opts map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	return factory(opts)
}

// List returns registered provider names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolver builds a Resolver from specs. With no specs every registered
// provider is created with empty options.
func (r *Registry) Resolver(strict bool, specs ...ProviderSpec) (*Resolver, error) {
	if len(specs) == 0 {
		for _, name := range r.List() {
			specs = append(specs, ProviderSpec{Name: name})
		}
	}
	res := NewResolver(strict)
	for _, s := range specs {
		p, err := r.Create(s.Name, s.Options)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		res.Register(p)
	}
	return res, nil
}
