package rename

import "strings"

// BindingKind tells what a tracked local name stands for.
type BindingKind uint8

const (
	// Symbol is a local name bound to the tracked definition itself.
	Symbol BindingKind = iota
	// ModuleBinding is a local name (possibly dotted, as "pkg.base" after
	// "import pkg.base") bound to the module that owns the definition.
	ModuleBinding
)

// Binding is one entry of a TargetSet.
type Binding struct {
	Name string
	Kind BindingKind
}

// TargetSet is the ordered collection of local names that denote the tracked
// symbol, or its module, in the file being processed.
type TargetSet struct {
	bindings []Binding
}

// Add records name unless it is already present with the same kind.
func (s *TargetSet) Add(name string, kind BindingKind) {
	if s.Has(name, kind) {
		return
	}
	s.bindings = append(s.bindings, Binding{Name: name, Kind: kind})
}

// Has reports whether name is bound with the given kind.
func (s *TargetSet) Has(name string, kind BindingKind) bool {
	for _, b := range s.bindings {
		if b.Name == name && b.Kind == kind {
			return true
		}
	}
	return false
}

// HasModuleRoot reports whether some module binding starts with the
// identifier root, so an attribute chain rooted there may reach the tracked
// module.
func (s *TargetSet) HasModuleRoot(root string) bool {
	for _, b := range s.bindings {
		if b.Kind != ModuleBinding {
			continue
		}
		if b.Name == root || strings.HasPrefix(b.Name, root+".") {
			return true
		}
	}
	return false
}

// Bindings returns the recorded bindings in discovery order.
func (s *TargetSet) Bindings() []Binding {
	return append([]Binding(nil), s.bindings...)
}

// Len returns the number of bindings.
func (s *TargetSet) Len() int {
	return len(s.bindings)
}

// Reset forgets every binding.
func (s *TargetSet) Reset() {
	s.bindings = s.bindings[:0]
}
