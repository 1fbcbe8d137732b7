package render

import (
	"fmt"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// RenderError reports a partial tag that could not be inlined.
type RenderError struct {
	Pos     core.Position
	Partial string
	Msg     string
}

func newRenderErrorf(pos core.Position, partial, format string, args ...any) *RenderError {
	return &RenderError{Pos: pos, Partial: partial, Msg: fmt.Sprintf(format, args...)}
}

// Position returns where the failing tag appears.
func (e *RenderError) Position() core.Position { return e.Pos }

func (e *RenderError) Error() string {
	if e.Pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}
