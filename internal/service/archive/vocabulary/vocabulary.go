// Package vocabulary holds the fixed naming vocabulary of the legacy
// archive layout: the allowed semester names and document type folders.
// The lists ship as an embedded YAML file so deployments can be audited
// without reading code.
package vocabulary

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry answers membership questions about the archive vocabulary.
// It is immutable after loading.
type Registry struct {
	semesters     map[string]bool
	documentTypes map[string]bool
}

type vocabularyFile struct {
	Semesters     []string `yaml:"semesters"`
	DocumentTypes []string `yaml:"document_types"`
}

// NewRegistry loads the embedded vocabulary file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/archive.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded vocabulary: %w", err)
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal vocabulary: %w", err)
	}

	if len(file.Semesters) == 0 || len(file.DocumentTypes) == 0 {
		return nil, fmt.Errorf("vocabulary file is incomplete")
	}

	r := &Registry{
		semesters:     make(map[string]bool, len(file.Semesters)),
		documentTypes: make(map[string]bool, len(file.DocumentTypes)),
	}
	for _, s := range file.Semesters {
		r.semesters[s] = true
	}
	for _, d := range file.DocumentTypes {
		r.documentTypes[d] = true
	}

	return r, nil
}

// IsSemester reports whether name is a known semester folder name.
func (r *Registry) IsSemester(name string) bool {
	return r.semesters[name]
}

// IsDocumentType reports whether name is a known document type folder name.
func (r *Registry) IsDocumentType(name string) bool {
	return r.documentTypes[name]
}
