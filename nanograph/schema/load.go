package schema

import (
	"strings"

	"github.com/arthur-debert/nanograph/nanograph/query"
)

// Constraint customizes the related query of an eager load
type Constraint func(q *query.Query)

// Load describes one relation to eager-load, the constraints applied to its
// related query, and the relations to load on the related instances.
type Load struct {
	Name        string
	Constraints []Constraint
	With        []*Load
}

// NewLoad creates a load descriptor for relation name
func NewLoad(name string, constraints ...Constraint) *Load {
	return &Load{Name: name, Constraints: constraints}
}

// Nest adds child loads and returns l
func (l *Load) Nest(children ...*Load) *Load {
	l.With = append(l.With, children...)
	return l
}

// Child returns the nested load for name, if present
func (l *Load) Child(name string) *Load {
	for _, child := range l.With {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// ParseWith builds load trees from dotted paths such as "roles.permissions".
// Paths sharing a prefix share nodes.
func ParseWith(paths ...string) []*Load {
	var roots []*Load
	find := func(list []*Load, name string) *Load {
		for _, l := range list {
			if l.Name == name {
				return l
			}
		}
		return nil
	}

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		var parent *Load
		for _, name := range strings.Split(path, ".") {
			if name == "" {
				continue
			}
			if parent == nil {
				node := find(roots, name)
				if node == nil {
					node = NewLoad(name)
					roots = append(roots, node)
				}
				parent = node
				continue
			}
			node := parent.Child(name)
			if node == nil {
				node = NewLoad(name)
				parent.With = append(parent.With, node)
			}
			parent = node
		}
	}
	return roots
}
