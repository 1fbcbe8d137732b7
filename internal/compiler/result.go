package compiler

import (
	"fmt"
	"time"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// ArtifactResult describes the artifact for one destination.
type ArtifactResult struct {
	Destination string
	Path        string // absolute output path
	Hash        string
	Written     bool // false when unchanged or in a dry run
}

// DocumentResult is the outcome of compiling one rule file.
type DocumentResult struct {
	Path        string
	ID          string
	Document    *core.RulesetDocument // nil when parsing failed
	Diagnostics []core.Diagnostic
	Artifacts   []ArtifactResult
	Err         error
}

// Result is the outcome of one compile run.
type Result struct {
	RunID     string
	Documents []*DocumentResult
	Duration  time.Duration
}

// Failed returns the number of documents that failed.
func (r *Result) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Written returns the number of artifacts written.
func (r *Result) Written() int {
	n := 0
	for _, d := range r.Documents {
		for _, a := range d.Artifacts {
			if a.Written {
				n++
			}
		}
	}
	return n
}

// Diagnostics returns every diagnostic across documents.
func (r *Result) Diagnostics() []core.Diagnostic {
	var all []core.Diagnostic
	for _, d := range r.Documents {
		all = append(all, d.Diagnostics...)
	}
	return all
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d documents (%d failed) | %d artifacts written | %d diagnostics | Duration: %s",
		len(r.Documents), r.Failed(), r.Written(), len(r.Diagnostics()), r.Duration.Round(time.Millisecond))
}
