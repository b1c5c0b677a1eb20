package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a circular dependency in the graph.
type CircularDependencyError[K comparable] struct {
	Node K
	Path []K
}

func (e *CircularDependencyError[K]) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("circular dependency detected involving %v", e.Node)
	}

	pathStrs := make([]string, len(e.Path))
	for i, node := range e.Path {
		pathStrs[i] = fmt.Sprintf("%v", node)
	}

	return fmt.Sprintf("circular dependency detected: %s", strings.Join(pathStrs, " -> "))
}
