package pipeline

import (
	"strings"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/importgraph"
	"github.com/matzehuels/klumpen/pkg/report"
)

// ResolveTarget maps a chain target to a module path. A module path is used
// as is; a package name resolves to the package's largest file. The second
// result is the package that owns the module, if known.
func ResolveTarget(a *report.Analysis, target string) (string, string, error) {
	if err := errors.ValidateModulePath(target); err != nil {
		return "", "", err
	}
	target = canonicalPath(a, target)
	if a.HasModule(target) {
		pkg, _ := a.PackageOf(target)
		return target, pkg, nil
	}
	if g, ok := a.Package(target); ok {
		if f, ok := g.Largest(); ok {
			return f.Path, g.Name, nil
		}
	}
	if _, ok := a.ImportGraph[target]; ok {
		return target, "", nil
	}
	return "", "", errors.New(errors.ErrCodeNotFound, "no module or package named %q", target)
}

// FindChain returns the chain document for module, owned by pkg.
// Without an entry the chain is reported as not found.
func FindChain(a *report.Analysis, module, pkg, entry string) report.ChainDoc {
	doc := report.ChainDoc{Package: pkg, Target: module, Entry: entry}
	for _, m := range a.Modules {
		if m.Path == module {
			doc.Bytes = m.Bytes
			break
		}
	}
	if entry == "" {
		return doc
	}
	doc.Chain, doc.Found = importgraph.FindChain(a.ImportGraph, module, entry)
	return doc
}

// entryOf picks the chain entry: the option wins over the report.
func entryOf(a *report.Analysis, opts Options) string {
	if opts.Entry != "" {
		return canonicalPath(a, opts.Entry)
	}
	return a.Entry
}

// canonicalPath normalizes a user-supplied module path the way report paths
// are normalized, then matches it against the analysis with and without a
// leading "./". Unknown paths are returned normalized.
func canonicalPath(a *report.Analysis, p string) string {
	p = report.NormalizePath("", p)
	alt := "./" + p
	if rest, ok := strings.CutPrefix(p, "./"); ok {
		alt = rest
	}
	for _, cand := range []string{p, alt} {
		if knownModule(a, cand) {
			return cand
		}
	}
	return p
}

func knownModule(a *report.Analysis, p string) bool {
	if p == a.Entry || a.HasModule(p) {
		return true
	}
	if _, ok := a.ImportGraph[p]; ok {
		return true
	}
	return false
}
