package server

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// RegistrySetting describes the subgraphs listed in a registry.yaml file.
// RunRegistry requires at least one of them but does not load them into the
// registry it starts.
type RegistrySetting struct {
	Graphs []RegistryGraphSetting `yaml:"graphs"`
}

type RegistryGraphSetting struct {
	Name       string `yaml:"name"`
	Host       string `yaml:"host"`
	SchemaFile string `yaml:"schema_file"`
}

// LoadRegistryGraphs reads a registry.yaml-shaped file and resolves each
// entry's schema file into a Graph ready for RunRegistry.
func LoadRegistryGraphs(path string) ([]*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry settings file: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry settings file: %w", err)
	}

	var settings RegistrySetting
	if err := yaml.Unmarshal(b, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry settings: %w", err)
	}

	graphs := make([]*Graph, 0, len(settings.Graphs))
	for _, g := range settings.Graphs {
		sdl, err := os.ReadFile(g.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %q: %w", g.SchemaFile, err)
		}
		graphs = append(graphs, &Graph{Name: g.Name, Host: g.Host, SDL: string(sdl)})
	}

	return graphs, nil
}
