// Package transform composes document-to-document transforms into the
// compilation pipeline and attaches derived partial dependencies.
package transform

import (
	"fmt"

	"github.com/rulesets-dev/rulesets/internal/deps"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// Transform maps one document to another.
//
// A transform must not mutate its input. Returning the input pointer means
// "nothing changed"; later stages and Run rely on that to avoid copies.
type Transform func(*core.RulesetDocument) (*core.RulesetDocument, error)

// Identity returns its input unchanged.
func Identity(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
	return doc, nil
}

// StageError reports which pipeline stage failed.
type StageError struct {
	Stage int
	Doc   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("transform %d failed for %s: %v", e.Stage, e.Doc, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Compose folds transforms left to right into a single transform.
// With no transforms it returns Identity.
func Compose(transforms ...Transform) Transform {
	if len(transforms) == 0 {
		return Identity
	}

	stages := make([]Transform, len(transforms))
	copy(stages, transforms)

	return func(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
		current := doc
		for i, stage := range stages {
			next, err := stage(current)
			if err != nil {
				return nil, &StageError{Stage: i, Doc: current.Name(), Err: err}
			}
			current = next
		}
		return current, nil
	}
}

// Run executes the transforms, then extracts partial references from the
// resulting contents and merges them into its dependencies.
//
// When the merge adds nothing the returned document is exactly the pointer the
// transforms produced. Malformed partial tags are reported as warnings.
// A failing transform aborts the run.
func Run(doc *core.RulesetDocument, transforms ...Transform) (*core.TransformResult, error) {
	transformed, err := Compose(transforms...)(doc)
	if err != nil {
		return nil, err
	}

	derived, diagnostics := deps.Scan(transformed.Source.Contents, transformed.Source.Path)
	if diagnostics == nil {
		diagnostics = []core.Diagnostic{}
	}

	merged, changed := deps.Merge(transformed.Dependencies, derived)
	if changed {
		transformed = transformed.WithDependencies(merged)
	}

	return &core.TransformResult{
		Document:    transformed,
		Diagnostics: diagnostics,
	}, nil
}
