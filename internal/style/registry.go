package style

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrDuplicateStyle   = errors.New("duplicate style")
	ErrCyclicBaseChain  = errors.New("cyclic base style chain")
	ErrInvalidStyleKind = errors.New("invalid attributes for style kind")
)

// Registry holds named style definitions with inheritance.
//
// A Registry is filled once and then shared read-only; Register must not be
// called after the registry has been handed to other components.
type Registry struct {
	defs  map[string]Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Build registers every definition in order and returns the first failure.
func Build(defs []Definition) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a style. The base style does not have to exist yet; missing
// ancestors are reported by Resolve.
func (r *Registry) Register(d Definition) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("register style: empty name")
	}
	if _, ok := r.defs[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStyle, d.Name)
	}
	if err := d.checkKind(); err != nil {
		return err
	}
	r.defs[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Resolve merges the base chain of name left to right, most derived last.
func (r *Registry) Resolve(name string) (Effective, error) {
	chain, err := r.chain(name)
	if err != nil {
		return Effective{}, err
	}

	eff := Effective{Name: name, Kind: chain[len(chain)-1].Kind}
	for _, d := range chain {
		eff.Attrs = merge(eff.Attrs, d)
	}
	return eff, nil
}

// chain returns the definitions from the root ancestor down to name.
func (r *Registry) chain(name string) ([]Definition, error) {
	var chain []Definition
	seen := make(map[string]bool)
	for cur := name; cur != ""; {
		if seen[cur] {
			return nil, fmt.Errorf("%w: %s", ErrCyclicBaseChain, cyclePath(chain, cur))
		}
		seen[cur] = true

		d, ok := r.defs[cur]
		if !ok {
			if cur == name {
				return nil, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
			}
			return nil, fmt.Errorf("%w: %q (base of %q)", ErrStyleNotFound, cur, name)
		}
		chain = append(chain, d)
		cur = d.Base
	}
	slices.Reverse(chain)
	return chain, nil
}

func cyclePath(chain []Definition, repeated string) string {
	names := make([]string, 0, len(chain)+1)
	for _, d := range chain {
		names = append(names, d.Name)
	}
	names = append(names, repeated)
	return strings.Join(names, " -> ")
}

// Has reports whether name is registered (its ancestors may still be missing).
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Definition returns the definition as registered, without merging.
func (r *Registry) Definition(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names lists styles in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Check resolves every registered style so a broken graph fails up front.
func (r *Registry) Check() error {
	for _, name := range r.order {
		if _, err := r.Resolve(name); err != nil {
			return err
		}
	}
	return nil
}
