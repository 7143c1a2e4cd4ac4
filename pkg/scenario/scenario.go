// Package scenario handles parsing and representation of keep-runner YAML scenario files.
package scenario

// Scenario represents a parsed scenario file.
type Scenario struct {
	SourcePath string // Path to the source file
	Config     Config // Scenario configuration (name, tags, env)
	Steps      []Step // Steps to execute
}

// Config represents scenario-level configuration.
type Config struct {
	Name    string            `yaml:"name"`
	Tags    []string          `yaml:"tags"`
	Env     map[string]string `yaml:"env"`
	Timeout int               `yaml:"timeout"` // Scenario timeout in ms
}

// DisplayName returns the configured name, or the source path.
func (s *Scenario) DisplayName() string {
	if s.Config.Name != "" {
		return s.Config.Name
	}
	return s.SourcePath
}
