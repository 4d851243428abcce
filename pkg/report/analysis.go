package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/importgraph"
)

// Analysis is the aggregated result of one report.
type Analysis struct {
	ID           string    `json:"id" yaml:"id"`
	Target       string    `json:"target" yaml:"target"`
	Bundler      string    `json:"bundler,omitempty" yaml:"bundler,omitempty"`
	Entry        string    `json:"entry,omitempty" yaml:"entry,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	MonorepoDirs []string  `json:"monorepo_dirs,omitempty" yaml:"monorepo_dirs,omitempty"`

	OutputBytes int64 `json:"output_bytes" yaml:"output_bytes"`
	InputBytes  int64 `json:"input_bytes" yaml:"input_bytes"`

	// Modules is sorted by size, largest first.
	Modules     []bundle.ModuleRecord `json:"modules" yaml:"modules"`
	Packages    []bundle.PackageGroup `json:"packages" yaml:"packages"`
	ImportGraph importgraph.Graph     `json:"import_graph,omitempty" yaml:"import_graph,omitempty"`

	Stats Stats `json:"stats" yaml:"stats"`
}

// Stats summarizes an analysis.
type Stats struct {
	Modules         int `json:"modules" yaml:"modules"`
	ExternalModules int `json:"external_modules" yaml:"external_modules"`
	LocalModules    int `json:"local_modules" yaml:"local_modules"`
	Packages        int `json:"packages" yaml:"packages"`
	ImportEdges     int `json:"import_edges" yaml:"import_edges"`
}

// ComputeStats counts modules, packages and import edges.
func ComputeStats(modules []bundle.ModuleRecord, packages []bundle.PackageGroup, g importgraph.Graph) Stats {
	s := Stats{Modules: len(modules), Packages: len(packages), ImportEdges: g.EdgeCount()}
	for _, m := range modules {
		if m.External {
			s.ExternalModules++
		} else {
			s.LocalModules++
		}
	}
	return s
}

// Package returns the group with the given name.
func (a *Analysis) Package(name string) (bundle.PackageGroup, bool) {
	return bundle.FindGroup(a.Packages, name)
}

// PackageOf returns the name of the group that contains the module at path.
func (a *Analysis) PackageOf(path string) (string, bool) {
	for _, g := range a.Packages {
		for _, f := range g.Files {
			if f.Path == path {
				return g.Name, true
			}
		}
	}
	return "", false
}

// HasModule reports whether path is one of the analyzed modules.
func (a *Analysis) HasModule(path string) bool {
	for _, m := range a.Modules {
		if m.Path == path {
			return true
		}
	}
	return false
}

// ReadAnalysis decodes a JSON analysis from r.
func ReadAnalysis(r io.Reader) (*Analysis, error) {
	var a Analysis
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}

// MarshalAnalysis encodes a compactly for caches and stores.
func MarshalAnalysis(a *Analysis) ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalAnalysis is the inverse of [MarshalAnalysis].
func UnmarshalAnalysis(data []byte) (*Analysis, error) {
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}
