package core

// DependencyKind classifies what a document depends on.
type DependencyKind string

// DependencyKindPartial is a reference to a named partial.
const DependencyKindPartial DependencyKind = "partial"

// Dependency is an implicit or declared reference from a document to
// another named resource. Identity is (Kind, Identifier).
type Dependency struct {
	Kind       DependencyKind `json:"kind"`
	Identifier string         `json:"identifier"`
}

// Key returns the identity key, e.g. "partial:footer".
func (d Dependency) Key() string {
	return string(d.Kind) + ":" + d.Identifier
}

// PartialDependency is shorthand for a partial dependency.
func PartialDependency(name string) Dependency {
	return Dependency{Kind: DependencyKindPartial, Identifier: name}
}
