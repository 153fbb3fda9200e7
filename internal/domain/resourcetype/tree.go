package resourcetype

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/domain/property"
)

// Type is a resource type: a name, an optional parent and the properties it declares.
type Type struct {
	Name       string
	Parent     string
	Properties []*property.Definition
}

type defKey struct{ prefix, name string }

type snapshot struct {
	types      map[string]*Type
	order      []string
	paths      map[string][]string
	defs       map[defKey]*property.Definition
	defOrder   []defKey
	belongs    map[string]map[defKey]struct{}
	namespaces map[string]property.Namespace
}

// Tree resolves resource types and property definitions.
// It is safe for concurrent use; Reload swaps the whole configuration atomically.
type Tree struct {
	current atomic.Pointer[snapshot]

	mu        sync.Mutex
	observers map[int]func()
	nextID    int
}

// NewTree validates types and namespaces and builds a Tree.
func NewTree(types []Type, namespaces []property.Namespace) (*Tree, error) {
	snap, err := buildSnapshot(types, namespaces)
	if err != nil {
		return nil, err
	}
	t := &Tree{observers: make(map[int]func())}
	t.current.Store(snap)
	return t, nil
}

// Reload replaces the configuration and notifies observers.
// On error the previous configuration stays in place.
func (t *Tree) Reload(types []Type, namespaces []property.Namespace) error {
	snap, err := buildSnapshot(types, namespaces)
	if err != nil {
		return err
	}
	t.current.Store(snap)

	t.mu.Lock()
	fns := make([]func(), 0, len(t.observers))
	for _, id := range sortedKeys(t.observers) {
		fns = append(fns, t.observers[id])
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// OnChange registers fn to be called after every Reload. The returned func unregisters it.
func (t *Tree) OnChange(fn func()) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// Type returns the named resource type.
func (t *Tree) Type(name string) (*Type, error) {
	rt, ok := t.current.Load().types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTypeNotFound, name)
	}
	return rt, nil
}

// Types returns all type names in declaration order.
func (t *Tree) Types() []string {
	return slices.Clone(t.current.Load().order)
}

// Path returns the type hierarchy of name, root first and name last.
func (t *Tree) Path(name string) ([]string, error) {
	p, ok := t.current.Load().paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTypeNotFound, name)
	}
	return slices.Clone(p), nil
}

// IsA reports whether typ equals ancestor or descends from it.
func (t *Tree) IsA(typ, ancestor string) bool {
	return slices.Contains(t.current.Load().paths[typ], ancestor)
}

// Definition resolves a property definition by namespace prefix and name.
func (t *Tree) Definition(prefix, name string) (*property.Definition, bool) {
	d, ok := t.current.Load().defs[defKey{prefix, name}]
	return d, ok
}

// Definitions returns every distinct property definition in declaration order.
func (t *Tree) Definitions() []*property.Definition {
	snap := t.current.Load()
	out := make([]*property.Definition, 0, len(snap.defOrder))
	for _, k := range snap.defOrder {
		out = append(out, snap.defs[k])
	}
	return out
}

// PropertyDefinitions returns the definitions declared by typ and its ancestors.
func (t *Tree) PropertyDefinitions(typ string) ([]*property.Definition, error) {
	snap := t.current.Load()
	p, ok := snap.paths[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTypeNotFound, typ)
	}
	var out []*property.Definition
	for _, name := range p {
		out = append(out, snap.types[name].Properties...)
	}
	return out, nil
}

// Belongs reports whether def is declared by typ or one of its ancestors.
func (t *Tree) Belongs(def *property.Definition, typ string) bool {
	set, ok := t.current.Load().belongs[typ]
	if !ok {
		return false
	}
	_, ok = set[defKey{def.Namespace().Prefix, def.Name()}]
	return ok
}

// Namespace resolves a namespace by prefix. The empty prefix is the default namespace.
func (t *Tree) Namespace(prefix string) (property.Namespace, bool) {
	if prefix == "" {
		return property.DefaultNamespace, true
	}
	ns, ok := t.current.Load().namespaces[prefix]
	return ns, ok
}

func buildSnapshot(types []Type, namespaces []property.Namespace) (*snapshot, error) {
	snap := &snapshot{
		types:      make(map[string]*Type, len(types)),
		paths:      make(map[string][]string, len(types)),
		defs:       make(map[defKey]*property.Definition),
		belongs:    make(map[string]map[defKey]struct{}, len(types)),
		namespaces: make(map[string]property.Namespace, len(namespaces)),
	}

	for _, ns := range namespaces {
		if ns.IsDefault() {
			return nil, fmt.Errorf("%w: namespace without prefix", domain.ErrInvalidDefinition)
		}
		if _, dup := snap.namespaces[ns.Prefix]; dup {
			return nil, fmt.Errorf("%w: duplicate namespace %q", domain.ErrInvalidDefinition, ns.Prefix)
		}
		snap.namespaces[ns.Prefix] = ns
	}

	for i := range types {
		rt := types[i]
		if rt.Name == "" {
			return nil, fmt.Errorf("%w: type name is required at index %d", domain.ErrInvalidDefinition, i)
		}
		if _, dup := snap.types[rt.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate type %q", domain.ErrInvalidDefinition, rt.Name)
		}
		snap.types[rt.Name] = &rt
		snap.order = append(snap.order, rt.Name)

		for _, d := range rt.Properties {
			prefix := d.Namespace().Prefix
			if prefix != "" {
				if _, ok := snap.namespaces[prefix]; !ok {
					return nil, fmt.Errorf("%w: type %q: property %s uses undeclared namespace",
						domain.ErrInvalidDefinition, rt.Name, d)
				}
			}
			k := defKey{prefix, d.Name()}
			if prev, ok := snap.defs[k]; ok {
				if prev.Type() != d.Type() || prev.IsMultiple() != d.IsMultiple() {
					return nil, fmt.Errorf("%w: property %s declared with conflicting types %s and %s",
						domain.ErrInvalidDefinition, d, prev.Type(), d.Type())
				}
				continue
			}
			snap.defs[k] = d
			snap.defOrder = append(snap.defOrder, k)
		}
	}

	for _, name := range snap.order {
		p, err := resolvePath(snap.types, name)
		if err != nil {
			return nil, err
		}
		snap.paths[name] = p

		set := make(map[defKey]struct{})
		for _, anc := range p {
			for _, d := range snap.types[anc].Properties {
				set[defKey{d.Namespace().Prefix, d.Name()}] = struct{}{}
			}
		}
		snap.belongs[name] = set
	}
	return snap, nil
}

func resolvePath(types map[string]*Type, name string) ([]string, error) {
	var rev []string
	seen := make(map[string]bool)
	for cur := name; cur != ""; {
		if seen[cur] {
			return nil, fmt.Errorf("%w: type %q has a cyclic parent chain", domain.ErrInvalidDefinition, name)
		}
		seen[cur] = true
		rt, ok := types[cur]
		if !ok {
			return nil, fmt.Errorf("%w: type %q: unknown parent %q", domain.ErrInvalidDefinition, name, cur)
		}
		rev = append(rev, cur)
		cur = rt.Parent
	}
	slices.Reverse(rev)
	return rev, nil
}

func sortedKeys(m map[int]func()) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
