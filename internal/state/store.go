// Package state records compile runs and the artifacts they wrote in a
// SQLite database, so unchanged artifacts are not rewritten.
package state

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of a compile run.
type RunStatus string

// RunStatus values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the compiler.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Artifact is the last write of one document for one destination.
type Artifact struct {
	DocumentID  string
	Destination string
	OutputPath  string
	ContentHash string
	RunID       string
	CompiledAt  time.Time
}

// Store is the compile cache used by the compiler.
type Store interface {
	CreateRun(ctx context.Context) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	GetArtifactHash(ctx context.Context, documentID, destination string) (string, error)
	RecordArtifact(ctx context.Context, a Artifact) error
	ListArtifacts(ctx context.Context) ([]Artifact, error)
	Close() error
}
