package ids

// Resolver is the symbol service consumed by the compiler and decompiler.
type Resolver interface {
	Lookup(table, name string) (*Entry, bool)
	LookupID(table string, id int64) (*Entry, bool)
	LookupOverflow(table string, id int64) (*Entry, bool)
	ResourceExists(name string) bool
	StringRef(index int64) string
}

// Pinner is implemented by resolvers whose tables may be replaced while a
// translation is running. Pin returns a resolver bound to one consistent
// set of tables and resources.
type Pinner interface {
	Pin() Resolver
}

// TitleResolver is optionally implemented by resolvers that can describe a
// resource, e.g. the display name of a creature.
type TitleResolver interface {
	ResourceTitle(name string) (string, bool)
}

// ScriptNameResolver is optionally implemented by resolvers that know the
// script names of the game's creatures. enabled is false when no list of
// names is available.
type ScriptNameResolver interface {
	ScriptNameKnown(name string) (known, enabled bool)
}

// Resources answers resource and string table questions.
type Resources interface {
	Exists(name string) bool
	StringRef(index int64) (string, bool)
}

// ResourcePinner is implemented by resource catalogs that refresh in the background.
type ResourcePinner interface {
	PinResources() Resources
}

// Service implements Resolver over a Registry and a Resources source.
type Service struct {
	reg *Registry
	res Resources
}

// NewService creates a Service. res may be nil, in which case no resource
// exists and string references have no text.
func NewService(reg *Registry, res Resources) *Service {
	return &Service{reg: reg, res: res}
}

func (s *Service) Registry() *Registry {
	return s.reg
}

func (s *Service) Pin() Resolver {
	res := s.res
	if p, ok := res.(ResourcePinner); ok {
		res = p.PinResources()
	}
	return &view{snap: s.reg.Snapshot(), res: res}
}

func (s *Service) Lookup(table, name string) (*Entry, bool) {
	return s.reg.Snapshot().Lookup(table, name)
}

func (s *Service) LookupID(table string, id int64) (*Entry, bool) {
	return s.reg.Snapshot().LookupID(table, id)
}

func (s *Service) LookupOverflow(table string, id int64) (*Entry, bool) {
	return s.reg.Snapshot().LookupOverflow(table, id)
}

func (s *Service) ResourceExists(name string) bool {
	return s.res != nil && s.res.Exists(name)
}

func (s *Service) StringRef(index int64) string {
	if s.res == nil {
		return ""
	}
	text, _ := s.res.StringRef(index)
	return text
}

// view is a Resolver pinned to one snapshot.
type view struct {
	snap *Snapshot
	res  Resources
}

func (v *view) Lookup(table, name string) (*Entry, bool) {
	return v.snap.Lookup(table, name)
}

func (v *view) LookupID(table string, id int64) (*Entry, bool) {
	return v.snap.LookupID(table, id)
}

func (v *view) LookupOverflow(table string, id int64) (*Entry, bool) {
	return v.snap.LookupOverflow(table, id)
}

func (v *view) ResourceExists(name string) bool {
	return v.res != nil && v.res.Exists(name)
}

func (v *view) StringRef(index int64) string {
	if v.res == nil {
		return ""
	}
	text, _ := v.res.StringRef(index)
	return text
}

func (v *view) ResourceTitle(name string) (string, bool) {
	if t, ok := v.res.(TitleResolver); ok {
		return t.ResourceTitle(name)
	}
	return "", false
}

func (v *view) ScriptNameKnown(name string) (bool, bool) {
	if sn, ok := v.res.(ScriptNameResolver); ok {
		return sn.ScriptNameKnown(name)
	}
	return false, false
}

func (s *Service) ResourceTitle(name string) (string, bool) {
	if t, ok := s.res.(TitleResolver); ok {
		return t.ResourceTitle(name)
	}
	return "", false
}

func (s *Service) ScriptNameKnown(name string) (bool, bool) {
	if sn, ok := s.res.(ScriptNameResolver); ok {
		return sn.ScriptNameKnown(name)
	}
	return false, false
}
