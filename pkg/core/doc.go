// Package core defines the shared language of the rulesets compiler.
//
// This package contains:
//   - Domain entities (RulesetDocument, Dependency, Diagnostic)
//   - Pipeline results (TransformResult, CompilationDirective)
//   - Configuration types (ProjectConfig, PathsConfig)
//
// pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
