package schema

import (
	"fmt"
	"sort"
)

// TypeManager is the read-only schema oracle consumed by annotation and
// plan compilation (spec.md §4.6). Methods mirror the source's
// TypeManager surface with Go-idiomatic (value, ok) / (value, error)
// returns instead of panics or options.
type TypeManager interface {
	GetEntityType(label string) (Type, bool)
	GetRelationType(label string) (Type, bool)
	GetAttributeType(label string) (Type, bool)
	GetRoleType(label string) (Type, bool)
	GetType(id TypeID) (Type, bool)

	// GetSupertype returns the direct supertype, if any.
	GetSupertype(id TypeID) (TypeID, bool)

	// GetSubtypes returns direct subtypes, or the full transitive subtype
	// set when transitive is true (including id itself).
	GetSubtypes(id TypeID, transitive bool) []TypeID

	// GetOwns returns the attribute types id may own (transitively through
	// its supertypes when transitive is true).
	GetOwns(id TypeID, transitive bool) []TypeID
	// GetPlays returns the role types id may play.
	GetPlays(id TypeID, transitive bool) []TypeID
	// GetRelates returns the role types a relation type relates.
	GetRelates(id TypeID, transitive bool) []TypeID

	GetValueType(attributeType TypeID) (ValueType, bool)
	GetCardinality(owner, attribute TypeID) (Cardinality, bool)

	// IsSubtype reports whether sub is sub (or equal to) super in the
	// subtype graph.
	IsSubtype(sub, super TypeID) bool
}

// edgeSet is a small adjacency list keyed by TypeID, used for the three
// capability relations (owns/plays/relates) and for subtype children.
type edgeSet map[TypeID][]TypeID

// InMemoryTypeManager is a reference TypeManager backed by plain Go maps.
// It is not the production schema manager (spec.md explicitly places
// schema persistence out of scope) - it exists so the core is runnable
// and testable without a network-attached schema service.
type InMemoryTypeManager struct {
	byID    map[TypeID]Type
	byLabel map[string]TypeID

	supertype edgeSet // single parent, but stored as edgeSet for uniformity (len<=1)
	subtypes  edgeSet

	owns        edgeSet // ownerType -> attributeTypes
	plays       edgeSet // playerType -> roleTypes
	relates     edgeSet // relationType -> roleTypes
	cardinality map[[2]TypeID]Cardinality

	nextID TypeID
}

// NewInMemoryTypeManager creates an empty schema.
func NewInMemoryTypeManager() *InMemoryTypeManager {
	return &InMemoryTypeManager{
		byID:        make(map[TypeID]Type),
		byLabel:     make(map[string]TypeID),
		supertype:   make(edgeSet),
		subtypes:    make(edgeSet),
		owns:        make(edgeSet),
		plays:       make(edgeSet),
		relates:     make(edgeSet),
		cardinality: make(map[[2]TypeID]Cardinality),
		nextID:      1,
	}
}

// DefineType registers a new schema type and returns its TypeID.
func (m *InMemoryTypeManager) DefineType(label string, category Category, valueType ValueType) TypeID {
	id := m.nextID
	m.nextID++
	m.byID[id] = Type{ID: id, Label: label, Category: category, ValueType: valueType}
	m.byLabel[label] = id
	return id
}

// SetSupertype establishes sub <: super in the subtype graph.
func (m *InMemoryTypeManager) SetSupertype(sub, super TypeID) {
	m.supertype[sub] = []TypeID{super}
	m.subtypes[super] = append(m.subtypes[super], sub)
}

// AddOwns records that ownerType may own attributeType.
func (m *InMemoryTypeManager) AddOwns(ownerType, attributeType TypeID, card Cardinality) {
	m.owns[ownerType] = append(m.owns[ownerType], attributeType)
	m.cardinality[[2]TypeID{ownerType, attributeType}] = card
}

// AddPlays records that playerType may play roleType.
func (m *InMemoryTypeManager) AddPlays(playerType, roleType TypeID) {
	m.plays[playerType] = append(m.plays[playerType], roleType)
}

// AddRelates records that relationType relates roleType.
func (m *InMemoryTypeManager) AddRelates(relationType, roleType TypeID) {
	m.relates[relationType] = append(m.relates[relationType], roleType)
}

func (m *InMemoryTypeManager) GetType(id TypeID) (Type, bool) {
	t, ok := m.byID[id]
	return t, ok
}

func (m *InMemoryTypeManager) getByLabel(label string, want Category) (Type, bool) {
	id, ok := m.byLabel[label]
	if !ok {
		return Type{}, false
	}
	t := m.byID[id]
	if t.Category != want {
		return Type{}, false
	}
	return t, true
}

func (m *InMemoryTypeManager) GetEntityType(label string) (Type, bool) {
	return m.getByLabel(label, CategoryEntity)
}
func (m *InMemoryTypeManager) GetRelationType(label string) (Type, bool) {
	return m.getByLabel(label, CategoryRelation)
}
func (m *InMemoryTypeManager) GetAttributeType(label string) (Type, bool) {
	return m.getByLabel(label, CategoryAttribute)
}
func (m *InMemoryTypeManager) GetRoleType(label string) (Type, bool) {
	return m.getByLabel(label, CategoryRoleType)
}

func (m *InMemoryTypeManager) GetSupertype(id TypeID) (TypeID, bool) {
	parents := m.supertype[id]
	if len(parents) == 0 {
		return 0, false
	}
	return parents[0], true
}

func (m *InMemoryTypeManager) GetSubtypes(id TypeID, transitive bool) []TypeID {
	if !transitive {
		out := append([]TypeID(nil), m.subtypes[id]...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	seen := map[TypeID]bool{id: true}
	var walk func(TypeID)
	var out []TypeID
	walk = func(cur TypeID) {
		for _, child := range m.subtypes[cur] {
			if !seen[child] {
				seen[child] = true
				out = append(out, child)
				walk(child)
			}
		}
	}
	walk(id)
	out = append(out, id)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *InMemoryTypeManager) collectTransitive(id TypeID, edges edgeSet) []TypeID {
	seen := map[TypeID]bool{}
	var out []TypeID
	cur := id
	for {
		for _, e := range edges[cur] {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
		parent, ok := m.GetSupertype(cur)
		if !ok {
			break
		}
		cur = parent
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *InMemoryTypeManager) GetOwns(id TypeID, transitive bool) []TypeID {
	if !transitive {
		out := append([]TypeID(nil), m.owns[id]...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	return m.collectTransitive(id, m.owns)
}

func (m *InMemoryTypeManager) GetPlays(id TypeID, transitive bool) []TypeID {
	if !transitive {
		out := append([]TypeID(nil), m.plays[id]...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	return m.collectTransitive(id, m.plays)
}

func (m *InMemoryTypeManager) GetRelates(id TypeID, transitive bool) []TypeID {
	if !transitive {
		out := append([]TypeID(nil), m.relates[id]...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	return m.collectTransitive(id, m.relates)
}

func (m *InMemoryTypeManager) GetValueType(attributeType TypeID) (ValueType, bool) {
	t, ok := m.byID[attributeType]
	if !ok || t.Category != CategoryAttribute {
		return ValueTypeNone, false
	}
	return t.ValueType, true
}

func (m *InMemoryTypeManager) GetCardinality(owner, attribute TypeID) (Cardinality, bool) {
	c, ok := m.cardinality[[2]TypeID{owner, attribute}]
	return c, ok
}

func (m *InMemoryTypeManager) IsSubtype(sub, super TypeID) bool {
	if sub == super {
		return true
	}
	cur := sub
	for {
		parent, ok := m.GetSupertype(cur)
		if !ok {
			return false
		}
		if parent == super {
			return true
		}
		cur = parent
	}
}

// MustLabel returns the label for id or a placeholder; used only for
// error messages and String() methods.
func (m *InMemoryTypeManager) MustLabel(id TypeID) string {
	if t, ok := m.byID[id]; ok {
		return t.Label
	}
	return fmt.Sprintf("<type %d>", id)
}
