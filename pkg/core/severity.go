package core

// Severity grades a diagnostic found while scanning a rule or partial.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError marks source text that keeps the document from compiling.
	SeverityError Severity = iota
	// SeverityWarning marks source text that is skipped, such as a malformed
	// partial tag. The document still compiles.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}
