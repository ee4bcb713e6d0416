package concept

import "github.com/katadb/katadb/internal/corerr"

func errSnapshotRead(cause error) error {
	return corerr.Wrap(corerr.Concept, "Concept", "snapshot read failed", cause)
}

func errSchemaObjectMissing(typeID any) error {
	return corerr.New(corerr.Concept, "Concept", "schema object missing (raced schema change)",
		map[string]any{"type": typeID})
}

func errCardinalityViolation(owner, attribute any, max int) error {
	return corerr.New(corerr.DataValidation, "Concept", "write exceeds attribute cardinality",
		map[string]any{"owner": owner, "attribute": attribute, "max": max})
}
