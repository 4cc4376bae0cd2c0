package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema is the top-level YAML structure of a course catalog file.
type Schema struct {
	Courses []CourseSchema `yaml:"courses" validate:"required,min=1,dive"`
}

// CourseSchema defines one course and its ordered modules.
type CourseSchema struct {
	ID      string         `yaml:"id" validate:"required"`
	Title   string         `yaml:"title" validate:"required"`
	Tier    int            `yaml:"tier" validate:"required,min=1"`
	Modules []ModuleSchema `yaml:"modules" validate:"dive"`
}

// ModuleSchema defines a module inside a course.
type ModuleSchema struct {
	ID       string `yaml:"id" validate:"required"`
	Position int    `yaml:"position" validate:"required,min=1"`
	Title    string `yaml:"title" validate:"required"`
	Type     string `yaml:"type" validate:"required,oneof=content cfu workshop"`
}

// LoadSchema reads and parses a catalog YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchema(data)
}

// ParseSchema parses catalog YAML.
func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	return &schema, nil
}
