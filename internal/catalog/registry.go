// Package catalog holds the registry of dashboard pages. Each page supplies
// a grid's column schema, seed rows, sort options and summary settings.
// Built-in pages register themselves from package catalog/pages; YAML files
// loaded with LoadDir may add pages or replace built-in ones.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var errMissingKey = errors.New("page definition has no key")

var (
	registry   = make(map[string]PageDefinition)
	registryMu sync.RWMutex
)

// Register adds a page definition to the registry.
// Panics if a page with the same key is already registered.
func Register(def PageDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("page already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Put adds or replaces a page definition after validating it.
func Put(def PageDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("page %q: %w", def.Info.Key, err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[def.Info.Key] = def
	return nil
}

// Get returns a page definition by key.
// Returns false if not found.
func Get(key string) (PageDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered page definitions.
// Sorted by order then by key for consistent ordering.
func All() []PageDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]PageDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all page definitions for a sidebar group.
func ByGroup(group string) []PageDefinition {
	var result []PageDefinition
	for _, def := range All() {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns the group names in sidebar order.
func Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, def := range All() {
		if !seen[def.Info.Group] {
			seen[def.Info.Group] = true
			groups = append(groups, def.Info.Group)
		}
	}
	return groups
}

// Count returns the number of registered pages.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered pages.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]PageDefinition)
}
