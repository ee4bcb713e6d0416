package ir

import "github.com/katadb/katadb/schema"

// FunctionDecl is a stored, possibly-recursive function: a named body
// block with declared parameter and return signatures. Mutually-calling
// functions reference each other by name through FunctionCall
// constraints inside Body, never by pointer - the "registry + index"
// pattern spec.md §9 prescribes for cyclic call graphs.
type FunctionDecl struct {
	Name       string
	Parameters []VariableID // variables in Body bound to the caller's arguments, in order
	// DeclaredParameterTypes/DeclaredReturnTypes are the signature as
	// written in the function's definition; inferred annotations must be
	// subtypes of these (spec.md §4.2 step 5) or annotation fails with
	// SignatureReturnMismatch.
	DeclaredParameterTypes []schema.TypeID
	DeclaredReturnTypes    []schema.TypeID
	Return                 []Variable // return vertices, in order
	Body                   *Block
}

// FunctionRegistry is the set of function declarations visible to a
// query, keyed by name so mutually-recursive calls resolve without
// cyclic ownership.
type FunctionRegistry map[string]*FunctionDecl

// CallGraph returns, for each function, the set of (possibly itself)
// function names it directly calls, found by walking Body's
// FunctionCallBinding constraints (including inside nested blocks).
func (r FunctionRegistry) CallGraph() map[string]map[string]bool {
	graph := make(map[string]map[string]bool, len(r))
	for name, decl := range r {
		callees := make(map[string]bool)
		collectCalls(decl.Body, callees)
		graph[name] = callees
	}
	return graph
}

func collectCalls(b *Block, out map[string]bool) {
	if b == nil {
		return
	}
	for _, c := range b.Constraints {
		if fcb, ok := c.(FunctionCallBinding); ok {
			out[fcb.Call.Function] = true
		}
	}
	for _, d := range b.Disjunctions {
		for _, branch := range d.Branches {
			collectCalls(branch, out)
		}
	}
	for _, n := range b.Negations {
		collectCalls(n.Inner, out)
	}
	for _, o := range b.Optionals {
		collectCalls(o.Inner, out)
	}
}

// Recursive reports whether name participates in a cycle of the call
// graph (directly or transitively calls itself).
func (r FunctionRegistry) Recursive(name string) bool {
	graph := r.CallGraph()
	visited := make(map[string]bool)
	var walk func(string) bool
	walk = func(cur string) bool {
		for callee := range graph[cur] {
			if callee == name {
				return true
			}
			if !visited[callee] {
				visited[callee] = true
				if walk(callee) {
					return true
				}
			}
		}
		return false
	}
	return walk(name)
}
