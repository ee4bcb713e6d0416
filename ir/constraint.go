package ir

// ConstraintKind discriminates the concrete Constraint variants.
type ConstraintKind uint8

const (
	KindIsa ConstraintKind = iota
	KindSub
	KindHas
	KindLinks
	KindOwns
	KindRelates
	KindPlays
	KindLabel
	KindRoleName
	KindIid
	KindIs
	KindComparison
	KindExpressionBinding
	KindFunctionCallBinding
)

// SubKind distinguishes exact ("direct subtype/instance of exactly this
// type") from transitive ("this type or any subtype") semantics, shared
// by Sub and Isa.
type SubKind uint8

const (
	Exact SubKind = iota
	Transitive
)

// IsaKind is an alias of SubKind used on Isa constraints for readability
// at call sites; the two share representation and transitive semantics.
type IsaKind = SubKind

// Constraint is a typed relational predicate over Vertex operands.
// Every concrete constraint type below implements this interface so
// plan compilation and annotation can dispatch on Kind() rather than
// relying on interface-polymorphism chains (spec.md §9, "tagged variants
// over inheritance").
type Constraint interface {
	Kind() ConstraintKind
	Vertices() []Vertex
}

// Isa: thing isa type (Kind: Entity/Relation/Attribute instance-of Type).
type Isa struct {
	Thing Vertex
	Type  Vertex
	IsaKind IsaKind
}

func (Isa) Kind() ConstraintKind   { return KindIsa }
func (c Isa) Vertices() []Vertex   { return []Vertex{c.Thing, c.Type} }

// Sub: sub is a (transitive or direct) subtype of super.
type Sub struct {
	Sub     Vertex
	Super   Vertex
	SubKind SubKind
}

func (Sub) Kind() ConstraintKind { return KindSub }
func (c Sub) Vertices() []Vertex { return []Vertex{c.Sub, c.Super} }

// Has: owner has an attribute instance.
type Has struct {
	Owner     Vertex
	Attribute Vertex
}

func (Has) Kind() ConstraintKind { return KindHas }
func (c Has) Vertices() []Vertex { return []Vertex{c.Owner, c.Attribute} }

// Links: a relation instance links player in role.
type Links struct {
	Relation Vertex
	Player   Vertex
	Role     Vertex
}

func (Links) Kind() ConstraintKind { return KindLinks }
func (c Links) Vertices() []Vertex { return []Vertex{c.Relation, c.Player, c.Role} }

// Owns: owner_type may own attribute_type (schema-level capability).
type Owns struct {
	OwnerType     Vertex
	AttributeType Vertex
}

func (Owns) Kind() ConstraintKind { return KindOwns }
func (c Owns) Vertices() []Vertex { return []Vertex{c.OwnerType, c.AttributeType} }

// Relates: relation_type relates role_type.
type Relates struct {
	RelationType Vertex
	RoleType     Vertex
}

func (Relates) Kind() ConstraintKind { return KindRelates }
func (c Relates) Vertices() []Vertex { return []Vertex{c.RelationType, c.RoleType} }

// Plays: player_type may play role_type.
type Plays struct {
	PlayerType Vertex
	RoleType   Vertex
}

func (Plays) Kind() ConstraintKind { return KindPlays }
func (c Plays) Vertices() []Vertex { return []Vertex{c.PlayerType, c.RoleType} }

// Label: var is exactly the schema type named by Name (binds a Type
// variable to a label without an Isa/Sub traversal).
type Label struct {
	Var  Vertex
	Name string
}

func (Label) Kind() ConstraintKind { return KindLabel }
func (c Label) Vertices() []Vertex { return []Vertex{c.Var} }

// RoleName: a role-player edge's role is exactly the named role.
type RoleName struct {
	Role Vertex
	Name string
}

func (RoleName) Kind() ConstraintKind { return KindRoleName }
func (c RoleName) Vertices() []Vertex { return []Vertex{c.Role} }

// Iid: thing has exactly the given internal instance id.
type Iid struct {
	Thing Vertex
	IID   []byte
}

func (Iid) Kind() ConstraintKind { return KindIid }
func (c Iid) Vertices() []Vertex { return []Vertex{c.Thing} }

// Is: two vertices denote the same concept.
type Is struct {
	Left  Vertex
	Right Vertex
}

func (Is) Kind() ConstraintKind { return KindIs }
func (c Is) Vertices() []Vertex { return []Vertex{c.Left, c.Right} }

// CompareOp is a comparison operator for Comparison constraints.
type CompareOp uint8

const (
	OpEQ CompareOp = iota
	OpNEQ
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpContains
	OpLike
)

// Comparison: lhs `op` rhs, e.g. $age > 18.
type Comparison struct {
	Left  Vertex
	Right Vertex
	Op    CompareOp
}

func (Comparison) Kind() ConstraintKind { return KindComparison }
func (c Comparison) Vertices() []Vertex { return []Vertex{c.Left, c.Right} }

// ExpressionBinding: assigned := evaluate(tree).
type ExpressionBinding struct {
	Assigned Vertex
	Tree     *ExpressionTree
}

func (ExpressionBinding) Kind() ConstraintKind { return KindExpressionBinding }
func (c ExpressionBinding) Vertices() []Vertex { return []Vertex{c.Assigned} }

// FunctionCallBinding: assigned := call(function, args...). Assigned may
// be more than one vertex when the callee returns a tuple.
type FunctionCallBinding struct {
	Assigned []Vertex
	Call     *FunctionCall
}

func (FunctionCallBinding) Kind() ConstraintKind { return KindFunctionCallBinding }
func (c FunctionCallBinding) Vertices() []Vertex {
	out := append([]Vertex(nil), c.Assigned...)
	for _, a := range c.Call.Arguments {
		out = append(out, a)
	}
	return out
}

// FunctionCall names a callee and its argument vertices. A call is
// "tabled" (memoized) iff Recursive is set, computed when the function
// body is compiled and found to (transitively) call itself.
type FunctionCall struct {
	Function  string
	Arguments []Vertex
	Recursive bool
}
