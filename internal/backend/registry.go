package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/agbru/fxtree/internal/errors"
)

// Constructor creates a backend from the configuration part of a backend
// spec ("parallel:workers=4" passes "workers=4").
type Constructor func(config string) (Backend, error)

// Info describes a registered backend without constructing it.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type entry struct {
	info Info
	ctor Constructor
}

// Registry maps backend names to constructors. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a backend constructor.
//
// Parameters:
//   - name: The backend name used in specs, e.g. "emulator".
//   - description: A one-line description for listings.
//   - ctor: The constructor.
func (r *Registry) Register(name, description string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{info: Info{Name: name, Description: description}, ctor: ctor}
}

// New constructs a backend from a spec of the form "name" or "name:config".
//
// Parameters:
//   - spec: The backend spec.
//
// Returns:
//   - Backend: The constructed backend.
//   - error: A BackendUnavailableError if the name is unknown or the
//     constructor fails.
func (r *Registry) New(spec string) (Backend, error) {
	name, config := ParseSpec(spec)
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewBackendUnavailableError(name,
			fmt.Errorf("not registered (known: %s)", strings.Join(r.Names(), ", ")))
	}
	b, err := e.ctor(config)
	if err != nil {
		if apperrors.IsBackendUnavailable(err) || apperrors.IsPrecondition(err) {
			return nil, err
		}
		return nil, apperrors.NewBackendUnavailableError(name, err)
	}
	return b, nil
}

// Names returns the sorted registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered backends, sorted by name.
func (r *Registry) List() []Info {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, r.entries[name].info)
	}
	return infos
}

// ParseSpec splits "name:config" into its parts. A spec without a colon is a
// bare name with an empty config.
func ParseSpec(spec string) (name, config string) {
	spec = strings.TrimSpace(spec)
	if idx := strings.Index(spec, ":"); idx != -1 {
		return spec[:idx], spec[idx+1:]
	}
	return spec, ""
}

// ParseConfig reads a comma-separated "key=value" list. A key without a value
// maps to "".
func ParseConfig(config string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(config, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// Default is the process-wide registry that backend packages register into
// from their init functions.
var Default = NewRegistry()

// Register adds a backend to the Default registry.
func Register(name, description string, ctor Constructor) {
	Default.Register(name, description, ctor)
}

// New constructs a backend from the Default registry.
func New(spec string) (Backend, error) {
	return Default.New(spec)
}

// List returns the backends of the Default registry.
func List() []Info {
	return Default.List()
}
