package operations

import (
	"fmt"
	"sync"
)

// Registry holds steps in registration order
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

// Register adds a Step; ids must be unique and non-empty
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a Step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, NewNotFoundError(id)
	}
	return step, nil
}

// Has checks if a Step is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[id]
	return exists
}

// List returns all registered steps in registration order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// ListIDs returns all registered Step IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// GetDependencyOrder returns every step topologically sorted by
// GetDependencies. Ties keep registration order.
func (r *Registry) GetDependencyOrder() ([]Step, error) {
	return r.Select(nil)
}

// Select returns the steps named by ids in dependency order. A nil or empty
// ids selects every step. Dependencies of a selected step must be selected
// as well.
func (r *Registry) Select(ids []string) ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make(map[string]bool, len(r.steps))
	if len(ids) == 0 {
		for id := range r.steps {
			selected[id] = true
		}
	}
	for _, id := range ids {
		if _, exists := r.steps[id]; !exists {
			return nil, NewNotFoundError(id)
		}
		selected[id] = true
	}

	dependents := make(map[string][]string)
	inDegree := make(map[string]int, len(selected))
	for id := range selected {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, exists := r.steps[dep]; !exists {
				return nil, NewDependencyError(id, dep, fmt.Sprintf("depends on unknown step %s", dep))
			}
			if !selected[dep] {
				return nil, NewDependencyError(id, dep, fmt.Sprintf("depends on unselected step %s", dep))
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	// Kahn's algorithm; each pass releases ready steps in registration order
	ordered := make([]Step, 0, len(selected))
	done := make(map[string]bool, len(selected))
	for len(ordered) < len(selected) {
		progressed := false
		for _, id := range r.order {
			if !selected[id] || done[id] || inDegree[id] > 0 {
				continue
			}
			done[id] = true
			ordered = append(ordered, r.steps[id])
			for _, d := range dependents[id] {
				inDegree[d]--
			}
			progressed = true
		}
		if !progressed {
			return nil, NewFatalError("dependency cycle detected", nil)
		}
	}
	return ordered, nil
}
