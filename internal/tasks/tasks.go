// Package tasks loads the YAML task list mapping release-source URLs to
// target folder names on the remote drive.
package tasks

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Task is one mirror job: a GitHub repository URL and the remote folder
// its release assets land in. FolderName may contain "/" separators for
// nested folders. Immutable for the run.
type Task struct {
	URL        string `yaml:"url"`
	FolderName string `yaml:"folder_name"`
}

// Valid reports whether the task carries both required fields. Invalid
// entries are kept at load time and skipped with a warning by the
// orchestrator, so one bad entry never hides the rest of the file.
func (t Task) Valid() bool {
	return t.URL != "" && t.FolderName != ""
}

// taskFile is the YAML document shape.
type taskFile struct {
	Tasks []Task `yaml:"tasks"`
}

// Load reads the task list from path.
func Load(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tasks: reading %s: %w", path, err)
	}

	var doc taskFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tasks: parsing %s: %w", path, err)
	}

	return doc.Tasks, nil
}
