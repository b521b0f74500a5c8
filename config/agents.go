package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentConfig is one named creative agent connection.
type AgentConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Default bool   `yaml:"default,omitempty"`
}

// AgentRegistry holds all configured creative agents.
type AgentRegistry struct {
	Agents []AgentConfig `yaml:"agents"`
}

const defaultAgentsConfig = `# Creative agents known to adcp.
# base_url values may reference environment variables with ${VAR}.
agents:
  - name: "exercise"
    base_url: "https://adzymic-exercise.s3.ap-southeast-1.amazonaws.com/adcp"
    default: true

  - name: "mock"
    base_url: "http://127.0.0.1:8000"
`

// LoadAgentRegistry loads agents.yaml from the config dir. A missing
// file yields the built-in defaults without creating it.
func LoadAgentRegistry() (*AgentRegistry, error) {
	path, err := GetAgentsFile()
	if err != nil {
		return nil, err
	}
	return LoadAgentRegistryFrom(path)
}

// LoadAgentRegistryFrom loads a registry from an explicit path.
func LoadAgentRegistryFrom(path string) (*AgentRegistry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data = []byte(defaultAgentsConfig)
	} else if err != nil {
		return nil, fmt.Errorf("read agent registry: %w", err)
	}

	var registry AgentRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("parse agent registry: %w", err)
	}

	for i := range registry.Agents {
		registry.Agents[i].BaseURL = strings.TrimRight(expandEnvVars(registry.Agents[i].BaseURL), "/")
	}

	return &registry, nil
}

// EnsureAgentsConfigExists writes the default agents.yaml if none is
// present, so users have a file to edit.
func EnsureAgentsConfigExists() error {
	path, err := GetAgentsFile()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.WriteFile(path, []byte(defaultAgentsConfig), 0644)
	}
	return nil
}

// Resolve picks an agent by name, or the default entry when name is
// empty. With no default flag set, the first entry wins.
func (r *AgentRegistry) Resolve(name string) (*AgentConfig, error) {
	if len(r.Agents) == 0 {
		return nil, fmt.Errorf("no agents configured")
	}

	if name != "" {
		for i := range r.Agents {
			if r.Agents[i].Name == name {
				return &r.Agents[i], nil
			}
		}
		return nil, fmt.Errorf("unknown agent %q", name)
	}

	for i := range r.Agents {
		if r.Agents[i].Default {
			return &r.Agents[i], nil
		}
	}

	return &r.Agents[0], nil
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
