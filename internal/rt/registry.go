package rt

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// CanonicalName puts a type or member name into its canonical spelling.
// Identifiers compare after NFC normalization so visually identical
// names resolve to the same entry.
func CanonicalName(s string) string {
	return norm.NFC.String(s)
}

// Visibility is a member's accessibility.
type Visibility uint8

const (
	// VisPublic members are visible everywhere.
	VisPublic Visibility = iota
	// VisProtected members are visible to the declaring type and its
	// descendants.
	VisProtected
	// VisPrivate members are visible to the declaring type only.
	VisPrivate

	visCount
)

// ParamType is a host-native parameter representation a library method
// declares. The binder translates dynamic arguments into these.
type ParamType uint8

const (
	// ParamValue accepts any runtime value as-is.
	ParamValue ParamType = iota
	// ParamBool is a native boolean parameter.
	ParamBool
	// ParamLong is a native integer parameter.
	ParamLong
	// ParamDouble is a native float parameter.
	ParamDouble
	// ParamString is a native string parameter.
	ParamString
	// ParamArray is a native array parameter.
	ParamArray
	// ParamObject is a native object parameter.
	ParamObject
	// ParamAlias is a by-reference parameter.
	ParamAlias
)

// MethodInfo describes one host-callable member overload.
type MethodInfo struct {
	Name          string
	Visibility    Visibility
	IsConstructor bool
	Params        []ParamType
	// Invoke runs the native implementation. Nil for abstract members.
	Invoke func(recv *Object, args []Value, cc *ConvContext) (Value, error)
}

// TypeDecl is the input to Registry.DeclareType.
type TypeDecl struct {
	Name     string
	BaseName string
	Fields   []string
	Methods  []MethodInfo
}

// TypeInfo is the runtime descriptor of one declared type. Base-type
// resolution and the per-visibility constructor sets are compute-once
// cells: the first caller pays, concurrent first use is safe.
type TypeInfo struct {
	name     string
	baseName string
	fields   []string
	methods  []MethodInfo
	reg      *Registry

	baseOnce sync.Once
	base     *TypeInfo

	ctorOnce [visCount]sync.Once
	ctors    [visCount][]*MethodInfo
}

// Name returns the canonical type name.
func (t *TypeInfo) Name() string { return t.name }

// Base resolves the base type lazily through the owning registry. An
// unknown base resolves to nil and stays nil.
func (t *TypeInfo) Base() *TypeInfo {
	if t.baseName == "" {
		return nil
	}
	t.baseOnce.Do(func() {
		t.base, _ = t.reg.Lookup(t.baseName)
	})
	return t.base
}

// Methods returns the declared member overloads, base types excluded.
func (t *TypeInfo) Methods() []MethodInfo { return t.methods }

// Constructors returns the constructor overloads callable from a scope
// with the given visibility into this type. The set for each partition
// is built once and reused.
func (t *TypeInfo) Constructors(vis Visibility) []*MethodInfo {
	if vis >= visCount {
		vis = VisPublic
	}
	t.ctorOnce[vis].Do(func() {
		var out []*MethodInfo
		for i := range t.methods {
			m := &t.methods[i]
			if !m.IsConstructor {
				continue
			}
			if m.Visibility <= vis {
				out = append(out, m)
			}
		}
		t.ctors[vis] = out
	})
	return t.ctors[vis]
}

// FindMethod looks an overload set up by member name, walking base
// types.
func (t *TypeInfo) FindMethod(name string) []*MethodInfo {
	name = CanonicalName(name)
	var out []*MethodInfo
	for ti := t; ti != nil; ti = ti.Base() {
		for i := range ti.methods {
			if ti.methods[i].Name == name {
				out = append(out, &ti.methods[i])
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Registry is the process-wide type-descriptor cache. It is passed
// explicitly so tests instantiate independent registries.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeInfo
}

// NewRegistry makes an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TypeInfo)}
}

// DeclareType registers decl and returns its descriptor. Redeclaring a
// name returns the existing descriptor unchanged.
func (r *Registry) DeclareType(decl TypeDecl) *TypeInfo {
	name := CanonicalName(decl.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.types[name]; ok {
		return t
	}
	t := &TypeInfo{
		name:     name,
		baseName: CanonicalName(decl.BaseName),
		fields:   decl.Fields,
		methods:  make([]MethodInfo, len(decl.Methods)),
		reg:      r,
	}
	for i, m := range decl.Methods {
		m.Name = CanonicalName(m.Name)
		t.methods[i] = m
	}
	r.types[name] = t
	return t
}

// Lookup resolves a canonicalized type name.
func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[CanonicalName(name)]
	return t, ok
}

// Len returns the number of declared types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
