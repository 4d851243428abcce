package bundle

import (
	"maps"
	"slices"
	"strings"
)

const (
	nodeModulesSegment = "node_modules/"
	parentSegment      = ".."
)

// DefaultMonorepoDirs lists the top-level directories that conventionally hold
// the members of a monorepo.
var DefaultMonorepoDirs = []string{"packages", "apps", "libs", "services", "workers", "modules"}

// Classifier maps module paths to group names.
// The zero value is not usable; create one with [NewClassifier].
type Classifier struct {
	monorepoDirs map[string]struct{}
}

// NewClassifier returns a Classifier that treats the given directory names as
// monorepo roots. With no arguments, [DefaultMonorepoDirs] is used.
func NewClassifier(monorepoDirs ...string) *Classifier {
	if len(monorepoDirs) == 0 {
		monorepoDirs = DefaultMonorepoDirs
	}
	dirs := make(map[string]struct{}, len(monorepoDirs))
	for _, d := range monorepoDirs {
		if d = strings.Trim(d, "/"); d != "" {
			dirs[d] = struct{}{}
		}
	}
	return &Classifier{monorepoDirs: dirs}
}

var defaultClassifier = NewClassifier()

// Classify returns the group name for path using [DefaultMonorepoDirs].
func Classify(path string) string {
	return defaultClassifier.Classify(path)
}

// MonorepoDirs returns the configured monorepo directory names, sorted.
func (c *Classifier) MonorepoDirs() []string {
	return slices.Sorted(maps.Keys(c.monorepoDirs))
}

// Classify returns the group name for path. It never fails: paths that match
// no rule end up in the generic [LocalGroup].
func (c *Classifier) Classify(path string) string {
	// Nested installs, hoisting and virtual stores all place the real package
	// after the last node_modules segment.
	if i := strings.LastIndex(path, nodeModulesSegment); i >= 0 {
		return packageName(path[i+len(nodeModulesSegment):])
	}

	path = strings.TrimPrefix(path, "./")

	if strings.HasPrefix(path, "../") {
		parts := strings.Split(path, "/")
		i := 0
		for i < len(parts) && parts[i] == parentSegment {
			i++
		}
		segs := parts[i:]
		if len(segs) == 0 || segs[0] == "" {
			return LocalGroup
		}
		if _, ok := c.monorepoDirs[segs[0]]; ok && len(segs) >= 2 && segs[1] != "" {
			return segs[1] + workspaceSuffix
		}
		return segs[0] + localSuffix
	}

	first, _, hasDir := strings.Cut(path, "/")
	if !hasDir || first == "" {
		return LocalGroup
	}
	return first + localSuffix
}

// packageName extracts "name" or "@scope/name" from the text following node_modules/.
func packageName(rest string) string {
	parts := strings.SplitN(rest, "/", 3)
	if parts[0] == "" {
		return LocalGroup
	}
	if strings.HasPrefix(parts[0], "@") && len(parts) >= 2 && parts[1] != "" {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
