package core

// ProjectConfig holds project-level configuration read from .ruleset/config.yaml.
type ProjectConfig struct {
	Paths        PathsConfig `koanf:"paths"`
	Destinations []string    `koanf:"destinations"` // empty means every registered destination
	Output       string      `koanf:"output"`       // artifact root, relative to the project root
	State        string      `koanf:"state"`        // compile cache database
}

// PathsConfig overrides the default locations under .ruleset/.
// Blank values mean "use the default".
type PathsConfig struct {
	Rules     string `koanf:"rules"`
	Partials  string `koanf:"partials"`
	Templates string `koanf:"templates"`
}
