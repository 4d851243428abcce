package bundle

import "strings"

// ModuleRecord is one physical input file as seen by the bundler.
type ModuleRecord struct {
	// Path is the normalized module path (forward slashes, no query suffix),
	// relative to the project root where possible.
	Path string `json:"path" yaml:"path"`

	// Bytes is the module's contribution to the bundle.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// External is true when the module was resolved through node_modules.
	External bool `json:"external,omitempty" yaml:"external,omitempty"`
}

// PackageGroup aggregates the module records that share a group name.
type PackageGroup struct {
	Name  string         `json:"name" yaml:"name"`
	Bytes int64          `json:"bytes" yaml:"bytes"`
	Files []ModuleRecord `json:"files" yaml:"files"`
}

// Category returns the kind of group, derived from its name.
func (g PackageGroup) Category() Category { return CategoryOf(g.Name) }

// Largest returns the biggest file of the group.
// The second return value is false for a group without files.
func (g PackageGroup) Largest() (ModuleRecord, bool) {
	if len(g.Files) == 0 {
		return ModuleRecord{}, false
	}
	return g.Files[0], true
}

// Category distinguishes third-party packages from workspace members and local source.
type Category string

const (
	CategoryNPM       Category = "npm"
	CategoryWorkspace Category = "workspace"
	CategoryLocal     Category = "local"
)

const (
	workspaceSuffix = " (workspace)"
	localSuffix     = " (local)"

	// LocalGroup is the generic group for local files without a directory.
	LocalGroup = "(local)"
)

// CategoryOf returns the category encoded in a group name produced by [Classify].
func CategoryOf(name string) Category {
	switch {
	case strings.HasSuffix(name, workspaceSuffix):
		return CategoryWorkspace
	case strings.HasSuffix(name, localSuffix), name == LocalGroup:
		return CategoryLocal
	default:
		return CategoryNPM
	}
}
