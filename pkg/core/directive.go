package core

// CompilationDirective is what a destination provider asks of the renderer.
// A nil *CompilationDirective means "no override; use defaults".
type CompilationDirective struct {
	Handlebars HandlebarsDirective
}

// HandlebarsDirective carries templating engine overrides.
//
// Nil maps mean the document did not specify them, which is different from
// an explicitly empty mapping.
type HandlebarsDirective struct {
	Force    bool              `mapstructure:"force"`
	Helpers  map[string]any    `mapstructure:"helpers"`
	Partials map[string]string `mapstructure:"partials"`
}
