package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-workspace settings file.
const ProjectFileName = ".canvas.yaml"

// Project holds the workspace-level settings.
type Project struct {
	// Project namespaces the persisted ledger. Defaults to the workspace
	// directory name.
	Project string `yaml:"project" json:"project"`

	// URL is the page the preview surface opens.
	URL string `yaml:"url" json:"url"`

	// Language selects the editor's tooltip and menu language.
	Language string `yaml:"language" json:"language"`
}

// LoadProject reads ProjectFileName from workspace. A missing file yields
// the defaults.
func LoadProject(workspace string) (*Project, error) {
	p := &Project{}
	path := filepath.Join(workspace, ProjectFileName)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read project file: %w", err)
	default:
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
		}
	}

	p.Project = strings.TrimSpace(p.Project)
	if p.Project == "" {
		if abs, err := filepath.Abs(workspace); err == nil {
			p.Project = filepath.Base(abs)
		}
	}
	return p, nil
}

// Save writes the project file into workspace.
func (p *Project) Save(workspace string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project file: %w", err)
	}
	path := filepath.Join(workspace, ProjectFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}
