package xpspage

import (
	"fmt"

	"github.com/benoitkugler/okxps/xpspath"
)

// Scoped key to value store for reusable brushes, transforms and
// geometries, filled by ResourceDictionary elements.

// resource is one dictionary entry; exactly one field is set.
type resource struct {
	brush    Brush
	mat      *xpspath.Matrix2D
	geometry string
}

// resourceStack is a stack of dictionary scopes. A scope is
// pushed when entering a dictionary bearing element (page or
// grouping container) and popped when leaving it; lookup walks
// from the innermost scope outwards, so inner entries shadow
// outer ones.
type resourceStack []map[string]resource

func (rs *resourceStack) push() {
	*rs = append(*rs, map[string]resource{})
}

func (rs *resourceStack) pop() {
	*rs = (*rs)[:len(*rs)-1]
}

// define registers an entry in the innermost scope.
func (rs resourceStack) define(key string, r resource) {
	if len(rs) == 0 {
		return
	}
	rs[len(rs)-1][key] = r
}

// lookup resolves a key through the scope chain.
func (rs resourceStack) lookup(key string) (resource, error) {
	for i := len(rs) - 1; i >= 0; i-- {
		if r, ok := rs[i][key]; ok {
			return r, nil
		}
	}
	return resource{}, fmt.Errorf("undefined resource %q", key)
}
