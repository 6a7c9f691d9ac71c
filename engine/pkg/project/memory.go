package project

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRegistry keeps projects in registration order.
type MemoryRegistry struct {
	mu       sync.RWMutex
	projects []Project
	byID     map[ID]int
}

func NewMemoryRegistry(projects ...Project) (*MemoryRegistry, error) {
	r := &MemoryRegistry{byID: make(map[ID]int)}
	for _, p := range projects {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a project. Registered projects cannot be replaced.
func (r *MemoryRegistry) Register(p Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("project %s already registered", p.ID)
	}
	r.byID[p.ID] = len(r.projects)
	r.projects = append(r.projects, p)
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, id ID) (Project, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Project{}, false, nil
	}
	return r.projects[i], true, nil
}

func (r *MemoryRegistry) Iterate(_ context.Context) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out, nil
}

func (r *MemoryRegistry) Len(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects), nil
}
