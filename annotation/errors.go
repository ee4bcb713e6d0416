// Package annotation implements the type annotation pass (spec.md
// §4.2): given a parsed IR block, a schema-reading snapshot, and a
// TypeManager, it computes for every variable a set of admissible
// schema types and, for every function call, the annotated signature of
// the callee.
package annotation

import "github.com/katadb/katadb/internal/corerr"

func errCouldNotResolveLabel(label string) error {
	return corerr.New(corerr.TypeInference, "Annotation", "could not resolve label",
		map[string]any{"label": label})
}

func errUnsatisfiableBlock() error {
	return corerr.New(corerr.TypeInference, "Annotation", "block is unsatisfiable", nil)
}

func errSignatureMismatch(function string, reason string) error {
	return corerr.New(corerr.TypeInference, "Annotation", "function signature mismatch",
		map[string]any{"function": function, "reason": reason})
}

func errTypeInference(kind string, detail string) error {
	return corerr.New(corerr.TypeInference, "Annotation", "type inference failed",
		map[string]any{"kind": kind, "detail": detail})
}
